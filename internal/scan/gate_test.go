package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGate_SuppressesRepeatsWithinWindow(t *testing.T) {
	g := NewGate(1500 * time.Millisecond)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

	assert.True(t, g.Admit("101_Asha", base))
	assert.False(t, g.Admit("101_Asha", base.Add(500*time.Millisecond)))
	assert.False(t, g.Admit("101_Asha", base.Add(1000*time.Millisecond)))
	assert.True(t, g.Admit("101_Asha", base.Add(2000*time.Millisecond)))
}

func TestGate_DifferentIdentityAlwaysAdmitted(t *testing.T) {
	g := NewGate(1500 * time.Millisecond)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

	assert.True(t, g.Admit("A", base))
	assert.True(t, g.Admit("B", base.Add(100*time.Millisecond)))
	// re-observing A after B is a new presentation
	assert.True(t, g.Admit("A", base.Add(200*time.Millisecond)))
}

func TestGate_SuppressedSightingsDoNotExtendWindow(t *testing.T) {
	g := NewGate(1 * time.Second)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

	assert.True(t, g.Admit("A", base))
	assert.False(t, g.Admit("A", base.Add(900*time.Millisecond)))
	// the window is measured from the forwarded event, not the last sighting
	assert.True(t, g.Admit("A", base.Add(1100*time.Millisecond)))
}

func TestGate_ResetAllowsImmediateRetry(t *testing.T) {
	g := NewGate(1500 * time.Millisecond)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

	assert.True(t, g.Admit("A", base))
	g.Reset()
	assert.True(t, g.Admit("A", base.Add(10*time.Millisecond)))
}

func TestGate_ZeroWindowFallsBackToDefault(t *testing.T) {
	g := NewGate(0)
	assert.Equal(t, DefaultDebounceWindow, g.window)
}
