package timers

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSetsAbsoluteWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewBank(clock)
	t0 := clock.Now()

	require.NoError(t, b.Start(0, 300))

	rec, err := b.Record(0)
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.Equal(t, 300, rec.MaxTime)
	assert.Equal(t, NoPause, rec.PauseTime)
	assert.Equal(t, t0, rec.StartTime)
	assert.Equal(t, t0.Add(30*time.Second), rec.EndTime)
}

// Pause followed immediately by Resume must preserve the total
// duration: the recomputed end equals the original start + max.
func TestPauseResumePreservesDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewBank(clock)
	t0 := clock.Now()

	require.NoError(t, b.Start(1, 300))
	clock.Advance(15 * time.Second)
	require.NoError(t, b.Pause(1, 150))

	rec, err := b.Record(1)
	require.NoError(t, err)
	assert.False(t, rec.Enabled)
	assert.Equal(t, 150, rec.PauseTime)

	require.NoError(t, b.Resume(1))

	rec, err = b.Record(1)
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.Equal(t, NoPause, rec.PauseTime)
	assert.Equal(t, t0.Add(30*time.Second), rec.EndTime)
	assert.Equal(t, t0, rec.StartTime)
}

// A pause that lasts real time pushes the end out by exactly the
// length of the pause: the countdown is anchored to event arrival.
func TestLongPauseShiftsEnd(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewBank(clock)
	t0 := clock.Now()

	require.NoError(t, b.Start(0, 300))
	clock.Advance(10 * time.Second)
	require.NoError(t, b.Pause(0, 100))
	clock.Advance(42 * time.Second)
	require.NoError(t, b.Resume(0))

	rec, err := b.Record(0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(30*time.Second).Add(42*time.Second), rec.EndTime)
}

func TestStopThenRestartIsClean(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewBank(clock)

	require.NoError(t, b.Start(2, 300))
	clock.Advance(15 * time.Second)
	require.NoError(t, b.Stop(2))

	rec, err := b.Record(2)
	require.NoError(t, err)
	assert.False(t, rec.Enabled)
	assert.Equal(t, NoPause, rec.PauseTime)

	t1 := clock.Now()
	require.NoError(t, b.Start(2, 300))

	rec, err = b.Record(2)
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.Equal(t, t1, rec.StartTime)
	assert.Equal(t, t1.Add(30*time.Second), rec.EndTime)
}

func TestUserPauseAndUserResume(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewBank(clock)

	require.NoError(t, b.Start(0, 100))
	clock.Advance(2 * time.Second)
	require.NoError(t, b.UserPause(0, 20))

	rec, err := b.Record(0)
	require.NoError(t, err)
	assert.False(t, rec.UserEnabled)
	assert.Equal(t, 20, rec.PauseTime)

	// Host-side Resume must not rebuild while the user holds the pause.
	require.NoError(t, b.Resume(0))
	rec, _ = b.Record(0)
	assert.Equal(t, 20, rec.PauseTime)

	clock.Advance(3 * time.Second)
	require.NoError(t, b.UserResume(0))

	rec, err = b.Record(0)
	require.NoError(t, err)
	assert.True(t, rec.UserEnabled)
	assert.Equal(t, NoPause, rec.PauseTime)
	assert.Equal(t, clock.Now().Add(8*time.Second), rec.EndTime)
}

func TestUserPauseOnIdleTimerRecordsNothing(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewBank(clock)

	require.NoError(t, b.UserPause(1, 50))

	rec, err := b.Record(1)
	require.NoError(t, err)
	assert.False(t, rec.UserEnabled)
	assert.Equal(t, NoPause, rec.PauseTime)
}

func TestSetMaxTimeKeepsRunningState(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewBank(clock)

	require.NoError(t, b.Start(1, 300))
	end := func() time.Time { rec, _ := b.Record(1); return rec.EndTime }()
	require.NoError(t, b.SetMaxTime(1, 600))

	rec, err := b.Record(1)
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.Equal(t, 600, rec.MaxTime)
	assert.Equal(t, end, rec.EndTime)
}

func TestRemaining(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewBank(clock)

	d, err := b.Remaining(0)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	require.NoError(t, b.Start(0, 300))
	clock.Advance(10 * time.Second)

	d, err = b.Remaining(0)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, d)

	clock.Advance(time.Minute)
	d, err = b.Remaining(0)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestBadIndex(t *testing.T) {
	b := NewBank(clockwork.NewFakeClock())
	assert.ErrorIs(t, b.Start(3, 10), ErrBadIndex)
	assert.ErrorIs(t, b.Stop(-1), ErrBadIndex)
	_, err := b.Record(7)
	assert.ErrorIs(t, err, ErrBadIndex)
}
