package interaction

import "fmt"

// State is a phase of the click retry loop.
type State int

const (
	StateAttempting State = iota
	StateBackoff
	StateReloadPending
	StateSucceeded
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "Attempting"
	case StateBackoff:
		return "Backoff"
	case StateReloadPending:
		return "ReloadPending"
	case StateSucceeded:
		return "Succeeded"
	case StateExhausted:
		return "Exhausted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// RetryState drives one interaction call. Transitions:
//
//	Attempting --ok--> Succeeded
//	Attempting --fail, attempt == max--> Exhausted
//	Attempting --fail--> Backoff
//	Backoff --odd attempt--> Attempting
//	Backoff --even attempt--> ReloadPending --> Attempting
type RetryState struct {
	Attempt     int
	MaxAttempts int
	State       State
	Last        error

	trace []State
}

// NewRetryState starts at attempt 1. maxAttempts below 1 is treated as 1.
func NewRetryState(maxAttempts int) *RetryState {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryState{Attempt: 1, MaxAttempts: maxAttempts, State: StateAttempting, trace: []State{StateAttempting}}
}

func (r *RetryState) to(s State) State {
	r.State = s
	r.trace = append(r.trace, s)
	return s
}

func (r *RetryState) mustBe(s State) {
	if r.State != s {
		panic(fmt.Sprintf("interaction: invalid retry transition from %s (expected %s)", r.State, s))
	}
}

// Succeed records that the current attempt worked.
func (r *RetryState) Succeed() State {
	r.mustBe(StateAttempting)
	r.Last = nil
	return r.to(StateSucceeded)
}

// Fail records the current attempt's error.
func (r *RetryState) Fail(err error) State {
	r.mustBe(StateAttempting)
	r.Last = err
	if r.Attempt >= r.MaxAttempts {
		return r.to(StateExhausted)
	}
	return r.to(StateBackoff)
}

// BackoffDone leaves Backoff. Even-numbered failed attempts escalate to a reload.
func (r *RetryState) BackoffDone() State {
	r.mustBe(StateBackoff)
	if r.Attempt%2 == 0 {
		return r.to(StateReloadPending)
	}
	r.Attempt++
	return r.to(StateAttempting)
}

// ReloadDone leaves ReloadPending for the next attempt.
func (r *RetryState) ReloadDone() State {
	r.mustBe(StateReloadPending)
	r.Attempt++
	return r.to(StateAttempting)
}

// Trace lists every state entered so far, starting with Attempting.
func (r *RetryState) Trace() []State {
	return append([]State(nil), r.trace...)
}

// Err is the terminal error, nil unless Exhausted.
func (r *RetryState) Err() error {
	if r.State != StateExhausted {
		return nil
	}
	return &ExhaustedError{Attempts: r.Attempt, Last: r.Last}
}
