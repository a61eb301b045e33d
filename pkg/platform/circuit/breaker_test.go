package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// step is one Record call and the breaker state expected after it.
type step struct {
	fail     bool
	wantOpen bool
	opened   bool
	closed   bool
}

func TestBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name: "opens on the third consecutive failure",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{fail: true},
				{fail: true},
				{fail: true, wantOpen: true, opened: true},
				{fail: true, wantOpen: true},
			},
		},
		{
			name: "a success resets the failure streak",
			opts: []Option{WithFailureThreshold(2)},
			steps: []step{
				{fail: true},
				{},
				{fail: true},
				{fail: true, wantOpen: true, opened: true},
			},
		},
		{
			name: "closes after enough successful probes",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, wantOpen: true, opened: true},
				{wantOpen: true},
				{closed: true},
			},
		},
		{
			name: "a failed probe restarts the success streak",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, wantOpen: true, opened: true},
				{wantOpen: true},
				{fail: true, wantOpen: true},
				{wantOpen: true},
				{closed: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("stripe-issuing", tt.opts...)
			for i, s := range tt.steps {
				var change StateChange
				if s.fail {
					_, change = b.RecordFailure()
				} else {
					_, change = b.RecordSuccess()
				}
				assert.Equal(t, s.wantOpen, b.IsOpen(), "step %d open", i)
				assert.Equal(t, s.opened, change.Opened, "step %d opened", i)
				assert.Equal(t, s.closed, change.Closed, "step %d closed", i)
			}
		})
	}
}

func TestBreaker_FallbackSignals(t *testing.T) {
	b := New("stripe-issuing", WithFailureThreshold(1), WithSuccessThreshold(1))
	assert.Equal(t, "stripe-issuing", b.Name())
	assert.Equal(t, StateClosed, b.State())

	useFallback, _ := b.RecordFailure()
	assert.True(t, useFallback)
	assert.Equal(t, StateOpen, b.State())

	usePrimary, _ := b.RecordSuccess()
	assert.True(t, usePrimary)

	b.RecordFailure()
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_AllowHonoursCooldown(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := New("stripe-issuing", WithFailureThreshold(1), WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }))

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow(), "open breaker rejects calls during cooldown")

	now = now.Add(10 * time.Second)
	assert.True(t, b.Allow(), "probe allowed once cooldown elapsed")

	b.RecordFailure()
	assert.False(t, b.Allow(), "failed probe restarts the cooldown")
}
