package worker

import "time"

// AIMD pacing bounds for the inter-POI delay.
const (
	pacingStart    = 1 * time.Second
	pacingMax      = 4 * time.Second
	pacingMin      = 1 * time.Second
	pacingIncrease = 2.0
	pacingDecrease = 500 * time.Millisecond
)

// Circuit breaker thresholds.
const (
	breakerErrorThreshold = 10
	breakerPause          = 60 * time.Second
)

// PacingController holds the worker's adaptive inter-POI delay as an explicit
// value: multiplicative increase on rate-limit signals, additive decrease on
// success. The current delay is readable at any time for status reporting.
type PacingController struct {
	delay time.Duration
}

func NewPacingController() *PacingController {
	return &PacingController{delay: pacingStart}
}

// Delay returns the current inter-POI delay.
func (p *PacingController) Delay() time.Duration {
	return p.delay
}

// OnRateLimit doubles the delay, capped at the maximum.
func (p *PacingController) OnRateLimit() {
	p.delay = time.Duration(float64(p.delay) * pacingIncrease)
	if p.delay > pacingMax {
		p.delay = pacingMax
	}
}

// OnSuccess shortens the delay additively, floored at the minimum.
func (p *PacingController) OnSuccess() {
	p.delay -= pacingDecrease
	if p.delay < pacingMin {
		p.delay = pacingMin
	}
}

// CircuitBreaker pauses the worker after a run of consecutive errors so a
// dead network or a broken downstream does not burn through the POI queue.
type CircuitBreaker struct {
	consecutive int
	pausedUntil time.Time
}

func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{}
}

// OnError records a failure and reports whether the breaker has tripped.
func (b *CircuitBreaker) OnError() bool {
	b.consecutive++
	if b.consecutive >= breakerErrorThreshold {
		b.pausedUntil = time.Now().Add(breakerPause)
		b.consecutive = 0
		return true
	}
	return false
}

// OnSuccess resets the consecutive error count.
func (b *CircuitBreaker) OnSuccess() {
	b.consecutive = 0
}

// PauseRemaining returns how long the worker must still hold off, zero when
// the breaker is closed.
func (b *CircuitBreaker) PauseRemaining() time.Duration {
	remaining := time.Until(b.pausedUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}
