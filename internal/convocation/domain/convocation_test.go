package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

var (
	convTargetDate = time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC)
	convSentAt     = time.Date(2025, time.May, 30, 9, 0, 0, 0, time.UTC)
)

func newTestConvocation() *Convocation {
	return NewConvocation(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		convTargetDate,
		workforce.MustTimeOfDay(7, 0), workforce.MustTimeOfDay(15, 0), 60,
		OriginBaseline, convSentAt, 24,
		LegalValidation{Passed: true},
	)
}

func assertConflict(t *testing.T, err error) {
	t.Helper()
	var conflict *sharedDomain.ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestNewConvocation(t *testing.T) {
	convocation := newTestConvocation()

	assert.Equal(t, StatusPending, convocation.Status())
	assert.False(t, convocation.IsTerminal())
	// 8h window minus the 60-minute break.
	assert.InDelta(t, 7.0, convocation.TotalHours(), 1e-9)
	assert.Equal(t, convSentAt.Add(24*time.Hour), convocation.ResponseDeadline())
	assert.Nil(t, convocation.RespondedAt())

	t.Run("inverted window clamps to zero hours", func(t *testing.T) {
		inverted := NewConvocation(
			uuid.New(), uuid.New(), uuid.New(), uuid.New(),
			convTargetDate,
			workforce.MustTimeOfDay(15, 0), workforce.MustTimeOfDay(7, 0), 0,
			OriginManual, convSentAt, 24,
			LegalValidation{Passed: true},
		)
		assert.Zero(t, inverted.TotalHours())
	})
}

func TestConvocation_Responses(t *testing.T) {
	now := convSentAt.Add(2 * time.Hour)

	t.Run("accept", func(t *testing.T) {
		convocation := newTestConvocation()
		require.NoError(t, convocation.Accept(now))
		assert.Equal(t, StatusAccepted, convocation.Status())
		require.NotNil(t, convocation.RespondedAt())
		assert.Equal(t, now, *convocation.RespondedAt())
		assert.NotEmpty(t, convocation.DomainEvents())
	})

	t.Run("decline", func(t *testing.T) {
		convocation := newTestConvocation()
		require.NoError(t, convocation.Decline(now))
		assert.Equal(t, StatusDeclined, convocation.Status())
		assert.True(t, convocation.IsTerminal())
	})

	t.Run("cancel stores the reason", func(t *testing.T) {
		convocation := newTestConvocation()
		require.NoError(t, convocation.Cancel("plan superseded"))
		assert.Equal(t, StatusCancelled, convocation.Status())
		assert.Equal(t, "plan superseded", convocation.CancelReason())
	})

	t.Run("terminal statuses are immutable", func(t *testing.T) {
		convocation := newTestConvocation()
		require.NoError(t, convocation.Accept(now))

		assertConflict(t, convocation.Accept(now))
		assertConflict(t, convocation.Decline(now))
		assertConflict(t, convocation.Cancel("too late"))
		assertConflict(t, convocation.Expire(now.Add(48*time.Hour)))
	})
}

func TestConvocation_Expire(t *testing.T) {
	convocation := newTestConvocation()

	assertConflict(t, convocation.Expire(convSentAt.Add(time.Hour)))
	assert.Equal(t, StatusPending, convocation.Status())

	require.NoError(t, convocation.Expire(convSentAt.Add(25*time.Hour)))
	assert.Equal(t, StatusExpired, convocation.Status())
}

func TestConvocation_ReplacementChain(t *testing.T) {
	now := convSentAt.Add(time.Hour)

	t.Run("pending cannot be replaced", func(t *testing.T) {
		convocation := newTestConvocation()
		assertConflict(t, convocation.LinkReplacement(uuid.New()))
	})

	t.Run("declined links forward once", func(t *testing.T) {
		declined := newTestConvocation()
		require.NoError(t, declined.Decline(now))

		successorID := uuid.New()
		require.NoError(t, declined.LinkReplacement(successorID))
		require.NotNil(t, declined.ReplacementID())
		assert.Equal(t, successorID, *declined.ReplacementID())

		assertConflict(t, declined.LinkReplacement(uuid.New()))
	})

	t.Run("expired links forward too", func(t *testing.T) {
		expired := newTestConvocation()
		require.NoError(t, expired.Expire(convSentAt.Add(25*time.Hour)))
		assert.NoError(t, expired.LinkReplacement(uuid.New()))
	})

	t.Run("successor links back", func(t *testing.T) {
		predecessorID := uuid.New()
		successor := newTestConvocation()
		successor.MarkReplaces(predecessorID)
		require.NotNil(t, successor.ReplacedID())
		assert.Equal(t, predecessorID, *successor.ReplacedID())
	})
}
