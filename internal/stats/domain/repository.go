package domain

import (
	"context"

	datalake "github.com/hotelops/roster/internal/datalake/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Repository persists bias and distribution statistics. Implementations must
// serialize concurrent updates on the bias rows (row-level locking).
type Repository interface {
	SaveBias(ctx context.Context, bias *WeekdayBias) error
	FindBias(ctx context.Context, metric string, weekday workforce.Weekday) (*WeekdayBias, error)
	AllBias(ctx context.Context, metric string) ([]*WeekdayBias, error)

	ReplaceDistribution(ctx context.Context, metric string, rows []*HourlyDistribution) error
	DistributionFor(ctx context.Context, metric string, weekday workforce.Weekday) ([]*HourlyDistribution, error)
}

// BiasLookup is the read surface consumers use. Missing weekdays resolve to
// bias 0 with HasData=false.
type BiasLookup interface {
	Get(ctx context.Context, metric string, weekday workforce.Weekday) (BiasValue, error)
}

// DistributionLookup resolves hourly percentage shares for a weekday.
type DistributionLookup interface {
	SharesFor(ctx context.Context, eventType datalake.EventType, weekday workforce.Weekday) (map[datalake.HourTimeline]float64, error)
}
