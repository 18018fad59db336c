package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/hotelops/roster/internal/calendar/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
)

// Service manages calendar events and serves composed day factors behind a
// circuit breaker. Factor lookups degrade to neutral factors when the store
// misbehaves; planning proceeds without calendar adjustment rather than
// failing.
type Service struct {
	repo    domain.Repository
	uow     sharedApplication.UnitOfWork
	breaker *gobreaker.CircuitBreaker[domain.DayFactors]
	logger  *slog.Logger
}

// NewService creates a calendar service.
func NewService(repo domain.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, uow: uow, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker[domain.DayFactors](gobreaker.Settings{
		Name:        "calendar-factors",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return s
}

// CreateEvent persists a calendar event.
func (s *Service) CreateEvent(ctx context.Context, scope domain.EventScope, sectorID *uuid.UUID, name string, start, end time.Time, productivityFactor, demandFactor float64, blockConvocations bool) (*domain.CalendarEvent, error) {
	event, err := domain.NewCalendarEvent(scope, sectorID, name, start, end, productivityFactor, demandFactor, blockConvocations)
	if err != nil {
		return nil, err
	}
	err = sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		return s.repo.Save(txCtx, event)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Factors resolves composed day factors for one (date, sector). A failed or
// open breaker yields neutral factors, never an error.
func (s *Service) Factors(ctx context.Context, date time.Time, sectorID uuid.UUID) (domain.DayFactors, error) {
	factors, err := s.breaker.Execute(func() (domain.DayFactors, error) {
		events, err := s.repo.FindInRange(ctx, sectorID, date, date)
		if err != nil {
			return domain.DayFactors{}, err
		}
		return domain.Compose(date, events), nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "calendar lookup degraded to neutral factors",
			"date", date.Format(time.DateOnly),
			"error", err,
		)
		return domain.NeutralFactors(), nil
	}
	return factors, nil
}
