package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hotelops/roster/internal/agenda/domain"
	demandDomain "github.com/hotelops/roster/internal/demand/domain"
	"github.com/hotelops/roster/internal/pipeline"
	scheduleDomain "github.com/hotelops/roster/internal/schedule/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// chunkMinutes caps a single allocation so long activities are split across
// employees.
const chunkMinutes = 60

// ErrPlanLocked signals a concurrent agenda regeneration for the same plan.
var ErrPlanLocked = fmt.Errorf("agenda generation already running for plan")

// Engine splits assigned slots' available minutes into ordered agenda items.
type Engine struct {
	repo       domain.Repository
	plans      scheduleDomain.Repository
	demand     demandDomain.Repository
	activities workforce.ActivityRepository
	redis      *redis.Client // optional advisory lock; nil skips
	lockTTL    time.Duration
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewEngine creates an agenda engine.
func NewEngine(repo domain.Repository, plans scheduleDomain.Repository, demand demandDomain.Repository, activities workforce.ActivityRepository, redisClient *redis.Client, lockTTL time.Duration, uow sharedApplication.UnitOfWork, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &Engine{
		repo:       repo,
		plans:      plans,
		demand:     demand,
		activities: activities,
		redis:      redisClient,
		lockTTL:    lockTTL,
		uow:        uow,
		logger:     logger,
	}
}

// Generate regenerates a plan's agendas from scratch. Prior agendas are
// deleted and the new set written in one transaction, under a per-plan
// advisory lock when Redis is available.
func (e *Engine) Generate(ctx context.Context, pctx *pipeline.Context, planID uuid.UUID) ([]*domain.EmployeeDailyAgenda, error) {
	if e.redis != nil {
		key := "roster:agenda:lock:" + planID.String()
		ok, err := e.redis.SetNX(ctx, key, "1", e.lockTTL).Result()
		if err != nil {
			e.logger.WarnContext(ctx, "agenda lock unavailable, proceeding", "error", err)
		} else if !ok {
			return nil, ErrPlanLocked
		} else {
			defer e.redis.Del(context.WithoutCancel(ctx), key)
		}
	}

	plan, err := e.plans.FindPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, &sharedDomain.NotFoundError{Entity: "schedule plan", Ref: planID.String()}
	}
	demandByDate, err := e.demandByDate(ctx, plan.ForecastRunID())
	if err != nil {
		return nil, err
	}
	activities, err := e.activities.FindActiveBySector(ctx, plan.SectorID())
	if err != nil {
		return nil, err
	}

	var all []*domain.EmployeeDailyAgenda
	rotation := &rotationQueue{}
	for date := plan.WeekStart(); !date.After(plan.WeekEnd()); date = date.AddDate(0, 0, 1) {
		agendas, err := e.generateDay(ctx, pctx, plan, date, demandByDate[date.Format(time.DateOnly)], activities, rotation)
		if err != nil {
			return nil, err
		}
		all = append(all, agendas...)
	}

	err = sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		if err := e.repo.DeleteForPlan(txCtx, planID); err != nil {
			return err
		}
		for _, agenda := range all {
			if err := e.repo.SaveAgenda(txCtx, agenda); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "agendas generated", "plan_id", planID, "agendas", len(all))
	return all, nil
}

func (e *Engine) demandByDate(ctx context.Context, runID uuid.UUID) (map[string]*demandDomain.DemandDaily, error) {
	dailies, err := e.demand.DailiesForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]*demandDomain.DemandDaily, len(dailies))
	for _, daily := range dailies {
		byDate[daily.TargetDate.Format(time.DateOnly)] = daily
	}
	return byDate, nil
}

// poolEntry is one activity instance queued for distribution.
type poolEntry struct {
	activity  *workforce.GovernanceActivity
	minutes   int
	isPending bool
}

func (e *Engine) generateDay(ctx context.Context, pctx *pipeline.Context, plan *scheduleDomain.SchedulePlan, date time.Time, demand *demandDomain.DemandDaily, activities []*workforce.GovernanceActivity, rotation *rotationQueue) ([]*domain.EmployeeDailyAgenda, error) {
	var agendas []*domain.EmployeeDailyAgenda
	for _, slot := range plan.SlotsOn(date) {
		if !slot.IsAssigned() || slot.EmployeeID() == nil {
			continue
		}
		agendas = append(agendas, domain.NewEmployeeDailyAgenda(
			plan.ID(), slot.ID(), *slot.EmployeeID(), date, slot.AvailableMinutes(),
		))
	}
	if len(agendas) == 0 {
		return nil, nil
	}

	pool, err := e.buildPool(ctx, date, demand, activities, len(agendas))
	if err != nil {
		return nil, err
	}

	// Hardest first; the rotation queue spreads difficulty >= 3 evenly.
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].activity.Difficulty() > pool[j].activity.Difficulty()
	})

	demanded := 0
	capacity := 0
	for _, agenda := range agendas {
		capacity += agenda.MinutesAvailable()
	}
	for _, entry := range pool {
		if !entry.isPending {
			demanded += entry.minutes
		}
	}

	lastDifficulty := map[uuid.UUID]int{}
	pendingTurn := 0
	for _, entry := range pool {
		if entry.isPending {
			// EVENTUAL items rotate round-robin and consume no capacity.
			agenda := agendas[pendingTurn%len(agendas)]
			agenda.AddItem(entry.activity, entry.minutes, 1, true, domain.PendingReasonManual)
			pendingTurn++
			continue
		}

		remaining := entry.minutes
		for remaining > 0 {
			chunk := remaining
			if chunk > chunkMinutes {
				chunk = chunkMinutes
			}
			agenda := e.target(agendas, entry.activity, rotation, lastDifficulty)
			if agenda == nil || agenda.MinutesFree() <= 0 {
				break
			}
			if chunk > agenda.MinutesFree() {
				chunk = agenda.MinutesFree()
			}
			agenda.AddItem(entry.activity, chunk, 1, false, "")
			lastDifficulty[agenda.EmployeeID()] = entry.activity.Difficulty()
			remaining -= chunk
		}
	}

	if demanded > capacity {
		for _, agenda := range agendas {
			agenda.MarkConflict()
		}
		pctx.Trace(ctx, "agenda.conflict", map[string]any{
			"target_date":      date.Format(time.DateOnly),
			"demanded_minutes": demanded,
			"capacity_minutes": capacity,
			"deficit_minutes":  demanded - capacity,
		})
	} else {
		for _, agenda := range agendas {
			agenda.MarkGenerated()
		}
	}
	return agendas, nil
}

// buildPool assembles the day's activity pool: CALCULATED items scaled by
// demand, RECURRING items due by periodicity, EVENTUAL items as pending.
func (e *Engine) buildPool(ctx context.Context, date time.Time, demand *demandDomain.DemandDaily, activities []*workforce.GovernanceActivity, employeeCount int) ([]poolEntry, error) {
	var pool []poolEntry
	for _, activity := range activities {
		switch activity.Classification() {
		case workforce.ClassificationCalculated:
			minutes := activity.AverageMinutes()
			if activity.Driver() == workforce.DriverVariable && demand != nil && demand.MinutesFinal > 0 {
				share := demand.MinutesVariable / demand.MinutesFinal
				minutes = activity.AverageMinutes() * share * float64(employeeCount)
			}
			if minutes > 0 {
				pool = append(pool, poolEntry{activity: activity, minutes: int(minutes)})
			}

		case workforce.ClassificationRecurring:
			due, err := e.isDue(ctx, activity, date)
			if err != nil {
				return nil, err
			}
			if due {
				pool = append(pool, poolEntry{activity: activity, minutes: int(activity.AverageMinutes())})
			}

		case workforce.ClassificationEventual:
			pool = append(pool, poolEntry{activity: activity, minutes: int(activity.AverageMinutes()), isPending: true})
		}
	}
	return pool, nil
}

func (e *Engine) isDue(ctx context.Context, activity *workforce.GovernanceActivity, date time.Time) (bool, error) {
	if activity.PeriodicityID() == nil || activity.FirstExecution() == nil {
		return false, nil
	}
	periodicity, err := e.activities.FindPeriodicityByID(ctx, *activity.PeriodicityID())
	if err != nil {
		return false, err
	}
	if periodicity == nil {
		return false, nil
	}
	return periodicity.IsDueOn(date, *activity.FirstExecution(), activity.ToleranceDays()), nil
}

// target picks the agenda for one chunk: difficult work walks the rotation
// queue, easier work goes to the least-loaded agenda with an alternation
// tie-break away from the employee's last difficulty.
func (e *Engine) target(agendas []*domain.EmployeeDailyAgenda, activity *workforce.GovernanceActivity, rotation *rotationQueue, lastDifficulty map[uuid.UUID]int) *domain.EmployeeDailyAgenda {
	withCapacity := agendas[:0:0]
	for _, agenda := range agendas {
		if agenda.MinutesFree() > 0 {
			withCapacity = append(withCapacity, agenda)
		}
	}
	if len(withCapacity) == 0 {
		return nil
	}

	if activity.Difficulty() >= 3 {
		return rotation.next(withCapacity)
	}

	sort.SliceStable(withCapacity, func(i, j int) bool {
		a, b := withCapacity[i], withCapacity[j]
		if a.MinutesAllocated() != b.MinutesAllocated() {
			return a.MinutesAllocated() < b.MinutesAllocated()
		}
		deltaA := abs(lastDifficulty[a.EmployeeID()] - activity.Difficulty())
		deltaB := abs(lastDifficulty[b.EmployeeID()] - activity.Difficulty())
		if deltaA != deltaB {
			return deltaA > deltaB
		}
		return a.EmployeeID().String() < b.EmployeeID().String()
	})
	return withCapacity[0]
}

// rotationQueue spreads difficult activities evenly across employees. The
// cursor persists across days so the same employee does not open every day's
// hard work.
type rotationQueue struct {
	order []uuid.UUID
}

func (q *rotationQueue) next(agendas []*domain.EmployeeDailyAgenda) *domain.EmployeeDailyAgenda {
	byEmployee := make(map[uuid.UUID]*domain.EmployeeDailyAgenda, len(agendas))
	for _, agenda := range agendas {
		byEmployee[agenda.EmployeeID()] = agenda
	}

	// New faces join the queue in deterministic order.
	ids := make([]uuid.UUID, 0, len(agendas))
	for employee := range byEmployee {
		ids = append(ids, employee)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, employee := range ids {
		if !contains(q.order, employee) {
			q.order = append(q.order, employee)
		}
	}

	// Serve the longest-waiting employee who has capacity today.
	for i, employee := range q.order {
		if agenda, ok := byEmployee[employee]; ok {
			q.order = append(append(q.order[:i:i], q.order[i+1:]...), employee)
			return agenda
		}
	}
	return agendas[0]
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
