package application

import (
	"context"
	"log/slog"
	"time"

	datalakeDomain "github.com/hotelops/roster/internal/datalake/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	"github.com/hotelops/roster/internal/stats/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Engine performs incremental statistics updates. All updates are
// deterministic over their input batch.
type Engine struct {
	repo   domain.Repository
	lake   datalakeDomain.Store
	uow    sharedApplication.UnitOfWork
	alpha  float64
	logger *slog.Logger
}

// NewEngine creates a statistics engine with the configured EWMA alpha.
func NewEngine(repo domain.Repository, lake datalakeDomain.Store, uow sharedApplication.UnitOfWork, alpha float64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2
	}
	return &Engine{repo: repo, lake: lake, uow: uow, alpha: alpha, logger: logger}
}

// BiasUpdateResult summarizes one weekday-bias update pass.
type BiasUpdateResult struct {
	WeekdaysUpdated []workforce.Weekday
	WeekdaysSkipped []workforce.Weekday
	SamplesUsed     int
}

// UpdateWeekdayBias folds all paired (real, forecast) samples up to the
// cutoff into the per-weekday EWMA bias. Weekdays without paired samples are
// skipped silently; consumers treat absence as bias 0.
func (e *Engine) UpdateWeekdayBias(ctx context.Context, upTo time.Time) (*BiasUpdateResult, error) {
	samples, err := e.lake.PairedSamples(ctx, upTo)
	if err != nil {
		return nil, err
	}

	byWeekday := make(map[workforce.Weekday][]float64)
	for _, sample := range samples {
		weekday := workforce.WeekdayOf(sample.TargetDate)
		byWeekday[weekday] = append(byWeekday[weekday], sample.Error())
	}

	result := &BiasUpdateResult{SamplesUsed: len(samples)}
	err = sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		for weekday := workforce.Sunday; weekday <= workforce.Saturday; weekday++ {
			errs, ok := byWeekday[weekday]
			if !ok {
				result.WeekdaysSkipped = append(result.WeekdaysSkipped, weekday)
				continue
			}

			bias, err := e.repo.FindBias(txCtx, domain.MetricOccupancy, weekday)
			if err != nil {
				return err
			}
			if bias == nil {
				bias = domain.NewWeekdayBias(domain.MetricOccupancy, weekday, e.alpha)
			} else {
				bias.Alpha = e.alpha
			}

			if err := bias.ApplyBatch(errs); err != nil {
				return err
			}
			if err := e.repo.SaveBias(txCtx, bias); err != nil {
				return err
			}
			result.WeekdaysUpdated = append(result.WeekdaysUpdated, weekday)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "weekday bias updated",
		"samples", result.SamplesUsed,
		"weekdays_updated", len(result.WeekdaysUpdated),
	)
	return result, nil
}

// BootstrapBias sets a weekday bias manually (method BOOTSTRAP_MANUAL, n=0).
func (e *Engine) BootstrapBias(ctx context.Context, weekday workforce.Weekday, biasPP float64) error {
	return sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		bias, err := e.repo.FindBias(txCtx, domain.MetricOccupancy, weekday)
		if err != nil {
			return err
		}
		if bias == nil {
			bias = domain.NewWeekdayBias(domain.MetricOccupancy, weekday, e.alpha)
		}
		bias.Bootstrap(biasPP)
		return e.repo.SaveBias(txCtx, bias)
	})
}

// UpdateHourlyDistribution recomputes hourly percentage shares for both event
// types from the full aggregate history.
func (e *Engine) UpdateHourlyDistribution(ctx context.Context) error {
	return sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		for _, eventType := range []datalakeDomain.EventType{datalakeDomain.EventCheckOut, datalakeDomain.EventCheckIn} {
			aggs, err := e.lake.HourlyAggsAll(txCtx, eventType)
			if err != nil {
				return err
			}
			rows := domain.DistributeHourly(eventType, aggs)
			if err := e.repo.ReplaceDistribution(txCtx, domain.MetricNameFor(eventType), rows); err != nil {
				return err
			}
		}
		return nil
	})
}

// Lookup is the repository-backed read surface.
type Lookup struct {
	repo domain.Repository
}

// NewLookup creates a bias/distribution lookup.
func NewLookup(repo domain.Repository) *Lookup {
	return &Lookup{repo: repo}
}

// Get resolves the bias for a weekday; absence is bias 0 without data.
func (l *Lookup) Get(ctx context.Context, metric string, weekday workforce.Weekday) (domain.BiasValue, error) {
	bias, err := l.repo.FindBias(ctx, metric, weekday)
	if err != nil {
		return domain.BiasValue{}, err
	}
	if bias == nil {
		return domain.BiasValue{}, nil
	}
	return domain.BiasValue{BiasPP: bias.BiasPP, HasData: true}, nil
}

// SharesFor resolves the hourly percentage shares of a weekday keyed by
// hour_timeline. Empty map when no distribution data exists.
func (l *Lookup) SharesFor(ctx context.Context, eventType datalakeDomain.EventType, weekday workforce.Weekday) (map[datalakeDomain.HourTimeline]float64, error) {
	rows, err := l.repo.DistributionFor(ctx, domain.MetricNameFor(eventType), weekday)
	if err != nil {
		return nil, err
	}
	shares := make(map[datalakeDomain.HourTimeline]float64, len(rows))
	for _, row := range rows {
		shares[row.HourTimeline] = row.Percentage
	}
	return shares, nil
}
