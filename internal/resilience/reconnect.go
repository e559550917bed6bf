// FilePath: internal/resilience/reconnect.go
package resilience

import (
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// State is the connection lifecycle state of a supervised link.
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateFailed       State = "failed"
)

// Policy describes how reconnection delays grow. A zero Multiplier or a
// Multiplier of one keeps the delay fixed; MaxAttempts of zero retries
// forever.
type Policy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	MaxAttempts int
}

// NewFixedPolicy retries on a fixed period indefinitely. This is the
// upstream-broker policy.
func NewFixedPolicy(interval time.Duration) Policy {
	return Policy{BaseDelay: interval, MaxDelay: interval, Multiplier: 1}
}

// NewExponentialPolicy doubles the delay each attempt up to max, giving up
// after maxAttempts. This is the subscriber-connection policy.
func NewExponentialPolicy(base, max time.Duration, maxAttempts int) Policy {
	return Policy{BaseDelay: base, MaxDelay: max, Multiplier: 2, MaxAttempts: maxAttempts}
}

// Delay returns the backoff before the given attempt, counting from zero.
func (p Policy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay
	if p.Multiplier > 1 {
		for i := 0; i < attempt; i++ {
			delay = time.Duration(float64(delay) * p.Multiplier)
			if delay >= p.MaxDelay {
				return p.MaxDelay
			}
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Reconnector is the state machine wrapping one connection:
//
//	Connecting -> Connected -> {Disconnected -> Connecting | Failed}
//
// Failed is terminal until Reset. A deliberate close never re-enters
// Connecting. Safe for concurrent use.
type Reconnector struct {
	mu       sync.Mutex
	name     string
	policy   Policy
	state    State
	attempts int
	onChange func(State)
}

// NewReconnector creates a reconnector in the Connecting state.
func NewReconnector(name string, policy Policy) *Reconnector {
	return &Reconnector{name: name, policy: policy, state: StateConnecting}
}

// OnStateChange registers a callback invoked after every transition.
func (r *Reconnector) OnStateChange(fn func(State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// State returns the current lifecycle state.
func (r *Reconnector) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Attempts returns how many consecutive reconnect attempts have been made
// since the last successful connection.
func (r *Reconnector) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// ConnectSucceeded records a successful connection. Only the attempt counter
// is reset; everything else carries over.
func (r *Reconnector) ConnectSucceeded() {
	r.mu.Lock()
	r.attempts = 0
	r.setStateLocked(StateConnected)
	r.mu.Unlock()
}

// ConnectionLost records an unexpected close and decides whether to retry.
// It returns the delay before the next attempt, or retry=false once the
// attempt budget is exhausted, in which case the reconnector is Failed and
// stays so until Reset.
func (r *Reconnector) ConnectionLost() (delay time.Duration, retry bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateFailed {
		return 0, false
	}
	r.setStateLocked(StateDisconnected)

	if r.policy.MaxAttempts > 0 && r.attempts >= r.policy.MaxAttempts {
		nuts.L.Warnf("[Reconnector] %s gave up after %d attempts", r.name, r.attempts)
		r.setStateLocked(StateFailed)
		return 0, false
	}

	delay = r.policy.Delay(r.attempts)
	r.attempts++
	r.setStateLocked(StateConnecting)
	return delay, true
}

// Closed records a deliberate, normal close. No reconnection follows.
func (r *Reconnector) Closed() {
	r.mu.Lock()
	r.setStateLocked(StateDisconnected)
	r.mu.Unlock()
}

// Reset clears a terminal Failed state so a manual reconnect can proceed.
func (r *Reconnector) Reset() {
	r.mu.Lock()
	r.attempts = 0
	r.setStateLocked(StateConnecting)
	r.mu.Unlock()
}

func (r *Reconnector) setStateLocked(next State) {
	if r.state == next {
		return
	}
	r.state = next
	if r.onChange != nil {
		r.onChange(next)
	}
}
