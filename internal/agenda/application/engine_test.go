package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelops/roster/internal/agenda/domain"
	demandDomain "github.com/hotelops/roster/internal/demand/domain"
	"github.com/hotelops/roster/internal/pipeline"
	rulesDomain "github.com/hotelops/roster/internal/rules/domain"
	scheduleDomain "github.com/hotelops/roster/internal/schedule/domain"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

type nopUnitOfWork struct{}

func (nopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (nopUnitOfWork) Commit(context.Context) error                       { return nil }
func (nopUnitOfWork) Rollback(context.Context) error                     { return nil }

type mockAgendaRepo struct {
	byPlan map[uuid.UUID][]*domain.EmployeeDailyAgenda
}

func newMockAgendaRepo() *mockAgendaRepo {
	return &mockAgendaRepo{byPlan: make(map[uuid.UUID][]*domain.EmployeeDailyAgenda)}
}

func (m *mockAgendaRepo) SaveAgenda(_ context.Context, agenda *domain.EmployeeDailyAgenda) error {
	m.byPlan[agenda.PlanID()] = append(m.byPlan[agenda.PlanID()], agenda)
	return nil
}

func (m *mockAgendaRepo) AgendasForPlan(_ context.Context, planID uuid.UUID) ([]*domain.EmployeeDailyAgenda, error) {
	return m.byPlan[planID], nil
}

func (m *mockAgendaRepo) DeleteForPlan(_ context.Context, planID uuid.UUID) error {
	delete(m.byPlan, planID)
	return nil
}

type mockPlanRepo struct {
	plans map[uuid.UUID]*scheduleDomain.SchedulePlan
}

func (m *mockPlanRepo) SavePlan(_ context.Context, plan *scheduleDomain.SchedulePlan) error {
	m.plans[plan.ID()] = plan
	return nil
}
func (m *mockPlanRepo) FindPlan(_ context.Context, id uuid.UUID) (*scheduleDomain.SchedulePlan, error) {
	return m.plans[id], nil
}
func (m *mockPlanRepo) LatestPlan(context.Context, uuid.UUID, time.Time, scheduleDomain.PlanKind) (*scheduleDomain.SchedulePlan, error) {
	return nil, nil
}
func (m *mockPlanRepo) SaveSlot(context.Context, *scheduleDomain.ShiftSlot) error { return nil }
func (m *mockPlanRepo) DeleteSlot(context.Context, uuid.UUID) error               { return nil }
func (m *mockPlanRepo) SlotCountOn(context.Context, uuid.UUID, time.Time) (int, error) {
	return 0, nil
}
func (m *mockPlanRepo) SaveOverrideLog(context.Context, *scheduleDomain.OverrideLog) error {
	return nil
}

type mockDemandRepo struct {
	dailies []*demandDomain.DemandDaily
}

func (m *mockDemandRepo) SaveDaily(context.Context, *demandDomain.DemandDaily) error { return nil }
func (m *mockDemandRepo) DailiesForRun(context.Context, uuid.UUID) ([]*demandDomain.DemandDaily, error) {
	return m.dailies, nil
}
func (m *mockDemandRepo) DeleteForRun(context.Context, uuid.UUID) error { return nil }

type mockActivityRepo struct {
	activities    []*workforce.GovernanceActivity
	periodicities map[uuid.UUID]*workforce.ActivityPeriodicity
}

func (m *mockActivityRepo) Save(context.Context, *workforce.GovernanceActivity) error { return nil }
func (m *mockActivityRepo) FindByID(context.Context, uuid.UUID) (*workforce.GovernanceActivity, error) {
	return nil, nil
}
func (m *mockActivityRepo) FindActiveBySector(context.Context, uuid.UUID) ([]*workforce.GovernanceActivity, error) {
	return m.activities, nil
}
func (m *mockActivityRepo) SavePeriodicity(context.Context, *workforce.ActivityPeriodicity) error {
	return nil
}
func (m *mockActivityRepo) FindPeriodicityByID(_ context.Context, id uuid.UUID) (*workforce.ActivityPeriodicity, error) {
	return m.periodicities[id], nil
}

var agendaWeekStart = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

type agendaFixture struct {
	engine     *Engine
	repo       *mockAgendaRepo
	activities *mockActivityRepo
	demand     *mockDemandRepo
	plan       *scheduleDomain.SchedulePlan
	sectorID   uuid.UUID
	employees  []uuid.UUID
}

// newAgendaFixture builds a plan with n assigned Monday slots of 420 usable
// minutes each.
func newAgendaFixture(t *testing.T, assignedSlots int) *agendaFixture {
	t.Helper()

	sectorID := uuid.New()
	plan, err := scheduleDomain.NewSchedulePlan(sectorID, uuid.New(), agendaWeekStart, scheduleDomain.PlanBaseline, nil)
	require.NoError(t, err)

	template := workforce.DefaultShiftTemplates()[0]
	lunchStart, lunchEnd := scheduleDomain.LunchWindow(template, workforce.DefaultLunchPolicy(), 0)
	var employees []uuid.UUID
	for i := 0; i < assignedSlots; i++ {
		slot := scheduleDomain.NewShiftSlot(plan.ID(), agendaWeekStart, template, lunchStart, lunchEnd)
		employeeID := uuid.New()
		slot.Assign(employeeID)
		employees = append(employees, employeeID)
		plan.AddSlot(slot)
	}
	// One unassigned slot never produces an agenda.
	plan.AddSlot(scheduleDomain.NewShiftSlot(plan.ID(), agendaWeekStart, template, lunchStart, lunchEnd))

	repo := newMockAgendaRepo()
	activities := &mockActivityRepo{periodicities: make(map[uuid.UUID]*workforce.ActivityPeriodicity)}
	demand := &mockDemandRepo{}
	plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}

	return &agendaFixture{
		engine:     NewEngine(repo, plans, demand, activities, nil, 0, nopUnitOfWork{}, nil),
		repo:       repo,
		activities: activities,
		demand:     demand,
		plan:       plan,
		sectorID:   sectorID,
		employees:  employees,
	}
}

func (f *agendaFixture) addActivity(t *testing.T, name string, minutes float64, driver workforce.WorkloadDriver, classification workforce.ActivityClassification, difficulty int) *workforce.GovernanceActivity {
	t.Helper()
	activity, err := workforce.NewGovernanceActivity(f.sectorID, name, "", minutes, driver, classification, difficulty)
	require.NoError(t, err)
	f.activities.activities = append(f.activities.activities, activity)
	return activity
}

func planningCtx() *pipeline.Context {
	return &pipeline.Context{Constraints: rulesDomain.Reduce(nil)}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("constant work chunks across the least loaded agendas", func(t *testing.T) {
		f := newAgendaFixture(t, 2)
		f.addActivity(t, "Lavanderia", 120, workforce.DriverConstant, workforce.ClassificationCalculated, 1)

		agendas, err := f.engine.Generate(ctx, planningCtx(), f.plan.ID())
		require.NoError(t, err)
		require.Len(t, agendas, 2)

		// 120 minutes split into two 60-minute chunks, one per agenda.
		for _, agenda := range agendas {
			assert.Equal(t, domain.AgendaGenerated, agenda.Status())
			assert.False(t, agenda.HasConflict())
			assert.Equal(t, 60, agenda.MinutesAllocated())
			require.Len(t, agenda.Items(), 1)
			assert.Equal(t, "Lavanderia", agenda.Items()[0].ActivityName)
			assert.Equal(t, 1, agenda.Items()[0].Order)
		}
	})

	t.Run("variable work scales with the demand share", func(t *testing.T) {
		f := newAgendaFixture(t, 2)
		f.addActivity(t, "Limpeza de quarto", 25, workforce.DriverVariable, workforce.ClassificationCalculated, 2)

		day := demandDomain.NewDemandDaily(uuid.New(), agendaWeekStart)
		day.MinutesVariable = 800
		day.MinutesFinal = 1000
		f.demand.dailies = []*demandDomain.DemandDaily{day}

		agendas, err := f.engine.Generate(ctx, planningCtx(), f.plan.ID())
		require.NoError(t, err)

		// 25 * (800/1000) * 2 employees = 40 minutes in a single chunk.
		total := 0
		for _, agenda := range agendas {
			total += agenda.MinutesAllocated()
		}
		assert.Equal(t, 40, total)
	})

	t.Run("over capacity flags every agenda", func(t *testing.T) {
		f := newAgendaFixture(t, 2)
		f.addActivity(t, "Limpeza profunda", 2000, workforce.DriverConstant, workforce.ClassificationCalculated, 2)

		agendas, err := f.engine.Generate(ctx, planningCtx(), f.plan.ID())
		require.NoError(t, err)
		require.Len(t, agendas, 2)

		// Demanded 2000 against 840 available: everything fills, all flagged.
		total := 0
		for _, agenda := range agendas {
			assert.True(t, agenda.HasConflict())
			assert.Equal(t, domain.AgendaConflict, agenda.Status())
			assert.Zero(t, agenda.MinutesFree())
			total += agenda.MinutesAllocated()
		}
		assert.Equal(t, 840, total)
	})

	t.Run("eventual items stay pending and consume nothing", func(t *testing.T) {
		f := newAgendaFixture(t, 2)
		f.addActivity(t, "Vistoria especial", 45, workforce.DriverConstant, workforce.ClassificationEventual, 1)
		f.addActivity(t, "Evento corporativo", 90, workforce.DriverConstant, workforce.ClassificationEventual, 1)

		agendas, err := f.engine.Generate(ctx, planningCtx(), f.plan.ID())
		require.NoError(t, err)
		require.Len(t, agendas, 2)

		// Round-robin: one pending item per agenda, no capacity consumed.
		for _, agenda := range agendas {
			assert.Zero(t, agenda.MinutesAllocated())
			require.Len(t, agenda.Items(), 1)
			item := agenda.Items()[0]
			assert.True(t, item.IsPending)
			assert.Equal(t, domain.PendingReasonManual, item.PendingReason)
		}
	})

	t.Run("recurring work appears only when due", func(t *testing.T) {
		f := newAgendaFixture(t, 1)
		due := f.addActivity(t, "Limpeza de vidros", 30, workforce.DriverConstant, workforce.ClassificationRecurring, 1)
		f.addActivity(t, "Sem recorrência", 30, workforce.DriverConstant, workforce.ClassificationRecurring, 1)

		periodicity, err := workforce.NewActivityPeriodicity("semanal", workforce.PeriodicityWeekly, "", 0, "")
		require.NoError(t, err)
		f.activities.periodicities[periodicity.ID()] = periodicity
		due.SetRecurrence(periodicity.ID(), 0, agendaWeekStart)

		agendas, err := f.engine.Generate(ctx, planningCtx(), f.plan.ID())
		require.NoError(t, err)
		require.Len(t, agendas, 1)
		require.Len(t, agendas[0].Items(), 1)
		assert.Equal(t, "Limpeza de vidros", agendas[0].Items()[0].ActivityName)
	})

	t.Run("difficult work rotates across employees", func(t *testing.T) {
		f := newAgendaFixture(t, 2)
		f.addActivity(t, "Limpeza pós-obra", 180, workforce.DriverConstant, workforce.ClassificationCalculated, 4)

		agendas, err := f.engine.Generate(ctx, planningCtx(), f.plan.ID())
		require.NoError(t, err)
		require.Len(t, agendas, 2)

		// 3 chunks over 2 agendas: the rotation serves 2/1, never 3/0.
		chunks := []int{len(agendas[0].Items()), len(agendas[1].Items())}
		assert.ElementsMatch(t, []int{2, 1}, chunks)
	})

	t.Run("regeneration replaces prior agendas", func(t *testing.T) {
		f := newAgendaFixture(t, 2)
		f.addActivity(t, "Lavanderia", 120, workforce.DriverConstant, workforce.ClassificationCalculated, 1)

		_, err := f.engine.Generate(ctx, planningCtx(), f.plan.ID())
		require.NoError(t, err)
		_, err = f.engine.Generate(ctx, planningCtx(), f.plan.ID())
		require.NoError(t, err)

		stored, err := f.repo.AgendasForPlan(ctx, f.plan.ID())
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("unknown plan", func(t *testing.T) {
		f := newAgendaFixture(t, 1)
		_, err := f.engine.Generate(ctx, planningCtx(), uuid.New())
		var notFound *sharedDomain.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})
}
