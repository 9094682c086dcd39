package sagaflow

import "time"

// Backoff is the shape of the wait curve between retry attempts.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// RetryPolicy is a pure value object: "should I retry? how long do I wait?"
// per spec §3/§4.1. The curve computation is generalized from the teacher's
// own calculateBackoffDelay (internal/workflow/compensation.go), which keyed
// off the same three backoff names.
type RetryPolicy struct {
	MaxAttempts    int
	Delay          time.Duration
	Backoff        Backoff
	JitterFraction float64
	RetryOn        map[ErrorKind]struct{}
	GiveUpOn       map[ErrorKind]struct{}
	Sampler        Sampler
}

// NewRetryPolicy builds a policy with no jitter and no kind filters (i.e.
// retry on everything not explicitly given up on). Use the With* methods to
// refine it; each returns a modified copy, keeping RetryPolicy a value type.
func NewRetryPolicy(maxAttempts int, delay time.Duration, backoff Backoff) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Backoff:     backoff,
	}
}

// NoRetry is the default policy for a leaf that does not configure one: a
// single attempt, no backoff.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func (p RetryPolicy) WithJitter(fraction float64) RetryPolicy {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	p.JitterFraction = fraction
	return p
}

func (p RetryPolicy) WithSampler(s Sampler) RetryPolicy {
	p.Sampler = s
	return p
}

func (p RetryPolicy) WithRetryOn(kinds ...ErrorKind) RetryPolicy {
	p.RetryOn = kindSet(kinds)
	return p
}

func (p RetryPolicy) WithGiveUpOn(kinds ...ErrorKind) RetryPolicy {
	p.GiveUpOn = kindSet(kinds)
	return p
}

func kindSet(kinds []ErrorKind) map[ErrorKind]struct{} {
	if len(kinds) == 0 {
		return nil
	}
	m := make(map[ErrorKind]struct{}, len(kinds))
	for _, k := range kinds {
		m[k] = struct{}{}
	}
	return m
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// givesUp reports whether kind is in give_up_on, which always shadows
// retry_on.
func (p RetryPolicy) givesUp(kind ErrorKind) bool {
	if len(p.GiveUpOn) == 0 {
		return false
	}
	_, ok := p.GiveUpOn[kind]
	return ok
}

// retries reports whether kind is eligible for retry_on (empty set means
// "all kinds").
func (p RetryPolicy) retries(kind ErrorKind) bool {
	if len(p.RetryOn) == 0 {
		return true
	}
	_, ok := p.RetryOn[kind]
	return ok
}

// shouldRetry combines give_up_on (wins), retry_on, and the attempt bound.
func (p RetryPolicy) shouldRetry(kind ErrorKind, attempt int) bool {
	if p.givesUp(kind) {
		return false
	}
	if !p.retries(kind) {
		return false
	}
	return attempt < p.maxAttempts()
}

// baseDelay computes the backoff curve for 1-based attempt k — the wait
// before attempt k+1 — per spec §4.1: fixed -> delay; linear -> delay*k;
// exponential -> delay*2^(k-1).
func (p RetryPolicy) baseDelay(attempt int) time.Duration {
	switch p.Backoff {
	case BackoffLinear:
		return p.Delay * time.Duration(attempt)
	case BackoffExponential:
		return p.Delay * time.Duration(uint64(1)<<uint(attempt-1))
	default: // BackoffFixed and zero value
		return p.Delay
	}
}

// sampledDelay applies jitter_fraction: uniform in
// [base*(1-j), base*(1+j)], clamped at 0.
func (p RetryPolicy) sampledDelay(attempt int) time.Duration {
	base := p.baseDelay(attempt)
	if p.JitterFraction <= 0 || base <= 0 {
		return base
	}
	sampler := p.Sampler
	if sampler == nil {
		sampler = defaultSampler{}
	}
	lo := float64(base) * (1 - p.JitterFraction)
	hi := float64(base) * (1 + p.JitterFraction)
	if lo < 0 {
		lo = 0
	}
	d := lo + sampler.Float64()*(hi-lo)
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
