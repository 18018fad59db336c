package persistence

import (
	"context"

	datalake "github.com/hotelops/roster/internal/datalake/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
	"github.com/hotelops/roster/internal/stats/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Repository implements domain.Repository on the shared Executor. Upserts on
// the primary key give the row-level serialization the update path needs.
type Repository struct {
	conn database.Connection
}

// NewRepository creates a statistics repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

// SaveBias upserts a weekday bias row.
func (r *Repository) SaveBias(ctx context.Context, bias *domain.WeekdayBias) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO weekday_bias_stats (
			metric_name, weekday, bias_pp, n, std_pp, mae_pp, method, alpha,
			sum_err, sum_sq_err, sum_abs_err
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (metric_name, weekday) DO UPDATE SET
			bias_pp = EXCLUDED.bias_pp,
			n = EXCLUDED.n,
			std_pp = EXCLUDED.std_pp,
			mae_pp = EXCLUDED.mae_pp,
			method = EXCLUDED.method,
			alpha = EXCLUDED.alpha,
			sum_err = EXCLUDED.sum_err,
			sum_sq_err = EXCLUDED.sum_sq_err,
			sum_abs_err = EXCLUDED.sum_abs_err
	`,
		bias.MetricName,
		int(bias.Weekday),
		bias.BiasPP,
		bias.N,
		bias.StdPP,
		bias.MAEPP,
		string(bias.Method),
		bias.Alpha,
		bias.SumErr,
		bias.SumSqErr,
		bias.SumAbsErr,
	)
	return err
}

const biasSelect = `
	SELECT metric_name, weekday, bias_pp, n, std_pp, mae_pp, method, alpha,
	       sum_err, sum_sq_err, sum_abs_err
	FROM weekday_bias_stats
`

// FindBias retrieves one bias row. Nil when the weekday has no data.
func (r *Repository) FindBias(ctx context.Context, metric string, weekday workforce.Weekday) (*domain.WeekdayBias, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, biasSelect+` WHERE metric_name = $1 AND weekday = $2`, metric, int(weekday))
	bias, err := scanBias(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return bias, nil
}

// AllBias lists the bias rows of a metric ordered by weekday.
func (r *Repository) AllBias(ctx context.Context, metric string) ([]*domain.WeekdayBias, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, biasSelect+` WHERE metric_name = $1 ORDER BY weekday`, metric)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*domain.WeekdayBias
	for rows.Next() {
		bias, err := scanBias(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, bias)
	}
	return all, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBias(row scannable) (*domain.WeekdayBias, error) {
	var (
		bias    domain.WeekdayBias
		weekday int
		method  string
	)
	if err := row.Scan(&bias.MetricName, &weekday, &bias.BiasPP, &bias.N, &bias.StdPP, &bias.MAEPP,
		&method, &bias.Alpha, &bias.SumErr, &bias.SumSqErr, &bias.SumAbsErr); err != nil {
		return nil, err
	}
	bias.Weekday = workforce.Weekday(weekday)
	bias.Method = domain.BiasMethod(method)
	return &bias, nil
}

// ReplaceDistribution swaps the full distribution of a metric in place.
func (r *Repository) ReplaceDistribution(ctx context.Context, metric string, rows []*domain.HourlyDistribution) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	if _, err := exec.Exec(ctx, `DELETE FROM hourly_distribution_stats WHERE metric_name = $1`, metric); err != nil {
		return err
	}
	for _, row := range rows {
		_, err := exec.Exec(ctx, `
			INSERT INTO hourly_distribution_stats (metric_name, weekday, hour_timeline, percentage, n)
			VALUES ($1, $2, $3, $4, $5)
		`, row.MetricName, int(row.Weekday), int(row.HourTimeline), row.Percentage, row.N)
		if err != nil {
			return err
		}
	}
	return nil
}

// DistributionFor lists the shares of one (metric, weekday).
func (r *Repository) DistributionFor(ctx context.Context, metric string, weekday workforce.Weekday) ([]*domain.HourlyDistribution, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT metric_name, weekday, hour_timeline, percentage, n
		FROM hourly_distribution_stats
		WHERE metric_name = $1 AND weekday = $2
		ORDER BY hour_timeline
	`, metric, int(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*domain.HourlyDistribution
	for rows.Next() {
		var (
			row         domain.HourlyDistribution
			weekdayInt  int
			timelineInt int
		)
		if err := rows.Scan(&row.MetricName, &weekdayInt, &timelineInt, &row.Percentage, &row.N); err != nil {
			return nil, err
		}
		row.Weekday = workforce.Weekday(weekdayInt)
		row.HourTimeline = datalake.HourTimeline(timelineInt)
		all = append(all, &row)
	}
	return all, rows.Err()
}
