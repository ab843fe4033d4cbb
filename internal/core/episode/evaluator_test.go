package episode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 50 * time.Millisecond

func TestOffTrackRetiresWithPenalty(t *testing.T) {
	ev := NewEvaluator(DefaultConfig())
	ev.Register("a", "scripted")
	require.NoError(t, ev.Report("a", 10))

	retired, reason, err := ev.Check("a", 5, true, tick)
	require.NoError(t, err)
	assert.True(t, retired)
	assert.Equal(t, ReasonOffTrack, reason)
	assert.Zero(t, ev.Active())

	res, ok := ev.Result("a")
	require.True(t, ok)
	assert.False(t, res.Alive)
	assert.Equal(t, 5.0, res.Fitness)
	assert.Equal(t, 10.0, res.Distance)

	// Retired vehicles stay retired and stop accruing.
	retired, reason, err = ev.Check("a", 5, false, tick)
	require.NoError(t, err)
	assert.False(t, retired)
	assert.Equal(t, ReasonOffTrack, reason)
	require.NoError(t, ev.Report("a", 10))
	res, _ = ev.Result("a")
	assert.Equal(t, 5.0, res.Fitness)
}

func TestStagnation(t *testing.T) {
	ev := NewEvaluator(DefaultConfig())
	ev.Register("a", "learned")

	for i := 0; i < 39; i++ {
		retired, _, err := ev.Check("a", 0, false, tick)
		require.NoError(t, err)
		require.False(t, retired, "tick %d", i)
	}
	// Moving resets the clock.
	retired, _, _ := ev.Check("a", 1, false, tick)
	assert.False(t, retired)
	for i := 0; i < 39; i++ {
		retired, _, _ = ev.Check("a", 0, false, tick)
		require.False(t, retired)
	}

	retired, reason, _ := ev.Check("a", 0, false, tick)
	assert.True(t, retired)
	assert.Equal(t, ReasonStagnant, reason)
}

func TestFinishOnBudgetAppliesBonus(t *testing.T) {
	ev := NewEvaluator(DefaultConfig())
	ev.Register("alive", "scripted")
	ev.Register("dead", "scripted")
	require.NoError(t, ev.Report("alive", 20))
	require.NoError(t, ev.Report("dead", 20))
	_, _, _ = ev.Check("dead", 1, true, tick)
	ev.CheckpointCrossed("alive")

	ev.Finish(ReasonBudget)
	ev.Finish(ReasonBudget)
	assert.Equal(t, ReasonBudget, ev.Ended())

	results := ev.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "alive", results[0].VehicleID)
	assert.Equal(t, 30.0, results[0].Fitness)
	assert.Equal(t, 1, results[0].Checkpoints)
	assert.Equal(t, ReasonBudget, results[0].EndReason)
	assert.Equal(t, 10.0, results[1].Fitness)
	assert.Equal(t, ReasonOffTrack, results[1].EndReason)
}

func TestFinishCancelledKeepsFitness(t *testing.T) {
	ev := NewEvaluator(DefaultConfig())
	ev.Register("a", "human")
	require.NoError(t, ev.Report("a", 4))
	ev.Finish(ReasonCancelled)

	res, _ := ev.Result("a")
	assert.Equal(t, 4.0, res.Fitness)
	assert.Equal(t, ReasonCancelled, res.EndReason)
}

func TestUnknownVehicle(t *testing.T) {
	ev := NewEvaluator(DefaultConfig())
	_, _, err := ev.Check("ghost", 0, false, tick)
	assert.ErrorIs(t, err, ErrUnknownVehicle)
	assert.ErrorIs(t, ev.Report("ghost", 1), ErrUnknownVehicle)
	assert.False(t, ev.Alive("ghost"))
}

func TestRegisterTwiceAndReset(t *testing.T) {
	ev := NewEvaluator(DefaultConfig())
	ev.Register("a", "scripted")
	ev.Register("a", "scripted")
	assert.Equal(t, 1, ev.Active())
	assert.Len(t, ev.Results(), 1)

	ev.Reset()
	assert.Zero(t, ev.Active())
	assert.Empty(t, ev.Results())
	assert.Equal(t, ReasonNone, ev.Ended())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	c := DefaultConfig()
	c.Budget = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
	c = DefaultConfig()
	c.DeathPenalty = -1
	assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
}
