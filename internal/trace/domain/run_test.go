package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentRun_Steps(t *testing.T) {
	sectorID := uuid.New()
	run := NewAgentRun("forecast", &sectorID)
	assert.Equal(t, StatusRunning, run.Status())
	assert.Nil(t, run.FinishedAt())

	first, err := run.AddStep("forecast.baseline", map[string]any{"days": 7})
	require.NoError(t, err)
	second, err := run.AddStep("forecast.lock", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, first.StepOrder)
	assert.Equal(t, 2, second.StepOrder)
	assert.Equal(t, run.ID(), first.RunID)
	assert.Equal(t, 3, run.NextStep())
	assert.Len(t, run.Steps(), 2)
}

func TestAgentRun_Finish(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		run := NewAgentRun("demand", nil)
		require.NoError(t, run.Complete())
		assert.Equal(t, StatusCompleted, run.Status())
		assert.NotNil(t, run.FinishedAt())

		_, err := run.AddStep("late", nil)
		assert.ErrorIs(t, err, ErrRunFinished)
		assert.ErrorIs(t, run.Complete(), ErrRunFinished)
		assert.ErrorIs(t, run.Fail("too late"), ErrRunFinished)
	})

	t.Run("fail keeps the reason", func(t *testing.T) {
		run := NewAgentRun("schedule", nil)
		require.NoError(t, run.Fail("no demand rows for the week"))
		assert.Equal(t, StatusFailed, run.Status())
		assert.Equal(t, "no demand rows for the week", run.FailReason())
	})
}

func TestAgentRun_IsStale(t *testing.T) {
	run := NewAgentRun("assignment", nil)
	now := run.StartedAt()

	assert.False(t, run.IsStale(now.Add(time.Minute), 10*time.Minute))
	assert.True(t, run.IsStale(now.Add(11*time.Minute), 10*time.Minute))

	require.NoError(t, run.Complete())
	// Finished runs never go stale.
	assert.False(t, run.IsStale(now.Add(time.Hour), 10*time.Minute))
}
