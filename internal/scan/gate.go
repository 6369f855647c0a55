package scan

import "time"

// DefaultDebounceWindow is how long a just-admitted identity stays suppressed.
const DefaultDebounceWindow = 1500 * time.Millisecond

// Gate debounces repeated decodes of the same payload so one continuous code
// presentation produces a single attendance attempt. It holds a single slot:
// only the most recently presented code matters, and a different identity
// always cancels the previous one's suppression.
//
// Owned by the frame-producing context; no internal locking.
type Gate struct {
	window   time.Duration
	lastID   string
	lastSeen time.Time
}

// NewGate creates a gate with the given debounce window.
func NewGate(window time.Duration) *Gate {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Gate{window: window}
}

// Admit reports whether the identity seen at now should be forwarded, and on
// admission overwrites the slot. Suppressed sightings do not refresh the
// slot's timestamp, so a code held in frame is admitted again once the
// window has elapsed since the last forwarded event.
func (g *Gate) Admit(id string, now time.Time) bool {
	if id == g.lastID && !g.lastSeen.IsZero() && now.Sub(g.lastSeen) < g.window {
		return false
	}
	g.lastID = id
	g.lastSeen = now
	return true
}

// Reset clears the slot. Called after a failed ledger write so the same code
// can be re-presented without waiting out the window.
func (g *Gate) Reset() {
	g.lastID = ""
	g.lastSeen = time.Time{}
}
