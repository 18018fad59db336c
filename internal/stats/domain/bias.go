package domain

import (
	"errors"
	"math"

	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

var ErrNoSamples = errors.New("no samples in batch")

// BiasMethod tags how a weekday bias value was produced.
type BiasMethod string

const (
	MethodMeanIncremental BiasMethod = "MEAN_INCREMENTAL"
	MethodEWMA            BiasMethod = "EWMA"
	MethodBootstrapManual BiasMethod = "BOOTSTRAP_MANUAL"
)

// MetricOccupancy is the metric name for occupancy forecast bias.
const MetricOccupancy = "occupancy_pct"

// WeekdayBias is the incremental bias statistic for one (metric, weekday).
// The accumulator fields carry the full error history so std and MAE cover
// all samples, not only the latest batch.
type WeekdayBias struct {
	MetricName string
	Weekday    workforce.Weekday
	BiasPP     float64
	N          int
	StdPP      float64
	MAEPP      float64
	Method     BiasMethod
	Alpha      float64

	SumErr    float64
	SumSqErr  float64
	SumAbsErr float64
}

// NewWeekdayBias creates an empty EWMA statistic.
func NewWeekdayBias(metric string, weekday workforce.Weekday, alpha float64) *WeekdayBias {
	return &WeekdayBias{
		MetricName: metric,
		Weekday:    weekday,
		Method:     MethodEWMA,
		Alpha:      alpha,
	}
}

// Bootstrap sets the bias directly. Sample count resets to zero so the next
// EWMA batch updates as if freshly seeded.
func (b *WeekdayBias) Bootstrap(biasPP float64) {
	b.BiasPP = biasPP
	b.N = 0
	b.StdPP = 0
	b.MAEPP = 0
	b.SumErr = 0
	b.SumSqErr = 0
	b.SumAbsErr = 0
	b.Method = MethodBootstrapManual
}

// ApplyBatch folds a batch of per-sample errors (real − forecast, in pp) into
// the statistic: bias ← (1−α)·bias + α·mean(batch).
func (b *WeekdayBias) ApplyBatch(errs []float64) error {
	if len(errs) == 0 {
		return ErrNoSamples
	}

	var batchSum float64
	for _, e := range errs {
		batchSum += e
		b.SumErr += e
		b.SumSqErr += e * e
		b.SumAbsErr += math.Abs(e)
	}
	batchMean := batchSum / float64(len(errs))

	alpha := b.Alpha
	b.BiasPP = (1-alpha)*b.BiasPP + alpha*batchMean
	b.N += len(errs)
	b.Method = MethodEWMA

	n := float64(b.N)
	mean := b.SumErr / n
	variance := b.SumSqErr/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	b.StdPP = math.Sqrt(variance)
	b.MAEPP = b.SumAbsErr / n
	return nil
}

// BiasValue is what consumers receive from a lookup. Absence of data must be
// treated as bias 0.
type BiasValue struct {
	BiasPP  float64
	HasData bool
}
