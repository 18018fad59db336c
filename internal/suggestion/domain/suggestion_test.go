package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var suggestionDate = time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC)

func newReplan() *ReplanSuggestion {
	return NewReplanSuggestion(
		uuid.New(), uuid.New(), uuid.New(), suggestionDate,
		ReplanHeadcountDelta, 3, 5,
		"headcount moved from 3 to 5",
		map[string]any{"weighted_delta": 2.0},
		PriorityLow,
	)
}

func TestReplanSuggestion_Decide(t *testing.T) {
	now := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)

	suggestion := newReplan()
	assert.InDelta(t, 2.0, suggestion.Delta(), 1e-9)
	assert.Nil(t, suggestion.IsAccepted())
	assert.Nil(t, suggestion.DecidedAt())

	require.NoError(t, suggestion.Decide(true, now))
	require.NotNil(t, suggestion.IsAccepted())
	assert.True(t, *suggestion.IsAccepted())
	require.NotNil(t, suggestion.DecidedAt())
	assert.Equal(t, now, *suggestion.DecidedAt())

	var conflict *sharedDomain.ConflictError
	assert.True(t, errors.As(suggestion.Decide(false, now), &conflict))
	// The first decision stands.
	assert.True(t, *suggestion.IsAccepted())

	t.Run("rejection is also final", func(t *testing.T) {
		rejected := newReplan()
		require.NoError(t, rejected.Decide(false, now))
		assert.False(t, *rejected.IsAccepted())
		assert.Error(t, rejected.Decide(true, now))
	})
}

func TestDailySuggestion_Resolve(t *testing.T) {
	now := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)
	var conflict *sharedDomain.ConflictError

	t.Run("apply", func(t *testing.T) {
		daily := NewDailySuggestion(uuid.New(), suggestionDate, KindReinforce, CategoryOperational, "reforçar equipe")
		assert.Equal(t, DailyOpen, daily.Status())

		require.NoError(t, daily.Apply(now))
		assert.Equal(t, DailyApplied, daily.Status())
		require.NotNil(t, daily.ResolvedAt())
		assert.Equal(t, now, *daily.ResolvedAt())

		assert.True(t, errors.As(daily.Ignore(now), &conflict))
	})

	t.Run("ignore", func(t *testing.T) {
		daily := NewDailySuggestion(uuid.New(), suggestionDate, KindReduce, CategoryFinancial, "reduzir convocações")
		require.NoError(t, daily.Ignore(now))
		assert.Equal(t, DailyIgnored, daily.Status())

		assert.True(t, errors.As(daily.Apply(now), &conflict))
	})
}
