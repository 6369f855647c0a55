package scan

import (
	"time"

	"qrattend/internal/ledger"
)

// DefaultFeedbackTTL is how long a scan result stays on screen.
const DefaultFeedbackTTL = 4 * time.Second

// Feedback is the current on-screen scan result. Version increments on every
// new outcome so pollers can tell a fresh result from a repeat read.
type Feedback struct {
	Outcome   ledger.Outcome
	Version   uint64
	ExpiresAt time.Time
}

// FeedbackState holds the most recent scan outcome until it expires. It
// cycles Idle -> Resolved -> Idle for the lifetime of the session; a new
// outcome overwrites the current one rather than queueing behind it.
// Callers synchronize access (the pipeline holds its lock around both Set
// and Current).
type FeedbackState struct {
	ttl      time.Duration
	current  Feedback
	resolved bool
}

// NewFeedbackState creates an idle state with the given TTL.
func NewFeedbackState(ttl time.Duration) *FeedbackState {
	if ttl <= 0 {
		ttl = DefaultFeedbackTTL
	}
	return &FeedbackState{ttl: ttl}
}

// Set resolves the state with a new outcome, arming expiry at now+TTL.
func (f *FeedbackState) Set(outcome ledger.Outcome, now time.Time) {
	f.current = Feedback{
		Outcome:   outcome,
		Version:   f.current.Version + 1,
		ExpiresAt: now.Add(f.ttl),
	}
	f.resolved = true
}

// Current returns the live feedback, expiring it lazily. Expiry is checked
// against wall-clock time, not frame count, so behavior is fps-independent.
func (f *FeedbackState) Current(now time.Time) (Feedback, bool) {
	if !f.resolved {
		return Feedback{}, false
	}
	if !now.Before(f.current.ExpiresAt) {
		f.resolved = false
		return Feedback{}, false
	}
	return f.current, true
}
