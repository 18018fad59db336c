package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

type mockEmployeeRepo struct {
	pool []*workforce.Employee
}

func (m *mockEmployeeRepo) Save(context.Context, *workforce.Employee) error { return nil }
func (m *mockEmployeeRepo) FindByID(_ context.Context, id uuid.UUID) (*workforce.Employee, error) {
	for _, employee := range m.pool {
		if employee.ID() == id {
			return employee, nil
		}
	}
	return nil, nil
}
func (m *mockEmployeeRepo) FindActiveBySector(context.Context, uuid.UUID) ([]*workforce.Employee, error) {
	return m.pool, nil
}

var assignWeekStart = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

func testPlan(t *testing.T, sectorID uuid.UUID, slotCount int) *scheduleDomain.SchedulePlan {
	t.Helper()
	plan, err := scheduleDomain.NewSchedulePlan(sectorID, uuid.New(), assignWeekStart, scheduleDomain.PlanBaseline, nil)
	require.NoError(t, err)
	template := workforce.DefaultShiftTemplates()[0]
	lunchStart, lunchEnd := scheduleDomain.LunchWindow(template, workforce.DefaultLunchPolicy(), 0)
	for i := 0; i < slotCount; i++ {
		plan.AddSlot(scheduleDomain.NewShiftSlot(plan.ID(), assignWeekStart.AddDate(0, 0, i), template, lunchStart, lunchEnd))
	}
	return plan
}

func employeeWithHistory(t *testing.T, sectorID uuid.UUID, name string, history workforce.WorkHistory, specializations ...string) *workforce.Employee {
	t.Helper()
	now := time.Now().UTC()
	return workforce.RehydrateEmployee(uuid.New(), sectorID, name, "camareira", workforce.ContractIntermittent,
		44, workforce.CleaningSpeed{}, specializations, nil, history, true, now, now)
}

func newEngine(plans *mockPlanRepo, employees *mockEmployeeRepo) *Engine {
	return NewEngine(plans, employees, nopUnitOfWork{}, nil)
}

func assignCtx() *pipeline.Context {
	return &pipeline.Context{Constraints: rulesDomain.Reduce(nil), AsOf: assignWeekStart.Add(-200 * time.Hour)}
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	sectorID := uuid.New()

	t.Run("least loaded employee wins", func(t *testing.T) {
		plan := testPlan(t, sectorID, 1)
		loaded := employeeWithHistory(t, sectorID, "Ana", workforce.WorkHistory{WeeklyHours: 20})
		fresh := employeeWithHistory(t, sectorID, "Bia", workforce.WorkHistory{})
		plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
		engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{loaded, fresh}})

		result, err := engine.Assign(ctx, assignCtx(), plan.ID())
		require.NoError(t, err)
		assert.Equal(t, 1, result.FilledSlots)

		slot := plan.Slots()[0]
		require.NotNil(t, slot.EmployeeID())
		assert.Equal(t, fresh.ID(), *slot.EmployeeID())
		assert.InDelta(t, 7.0, fresh.History().WeeklyHours, 1e-9)
	})

	t.Run("unavailability removes a candidate", func(t *testing.T) {
		plan := testPlan(t, sectorID, 1)
		loaded := employeeWithHistory(t, sectorID, "Ana", workforce.WorkHistory{WeeklyHours: 20})
		fresh := employeeWithHistory(t, sectorID, "Bia", workforce.WorkHistory{})
		fresh.DeclareUnavailable(assignWeekStart)
		plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
		engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{loaded, fresh}})

		_, err := engine.Assign(ctx, assignCtx(), plan.ID())
		require.NoError(t, err)
		assert.Equal(t, loaded.ID(), *plan.Slots()[0].EmployeeID())
	})

	t.Run("weekly cap gates with a violation finding", func(t *testing.T) {
		plan := testPlan(t, sectorID, 1)
		nearCap := employeeWithHistory(t, sectorID, "Ana", workforce.WorkHistory{WeeklyHours: 40})
		fallback := employeeWithHistory(t, sectorID, "Bia", workforce.WorkHistory{WeeklyHours: 10})
		plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
		engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{nearCap, fallback}})

		result, err := engine.Assign(ctx, assignCtx(), plan.ID())
		require.NoError(t, err)
		assert.Equal(t, fallback.ID(), *plan.Slots()[0].EmployeeID())
		require.Len(t, result.Violations, 1)
		assert.Equal(t, "max-weekly-hours", result.Violations[0].RuleCode)
		assert.Equal(t, nearCap.ID().String(), result.Violations[0].Subject)
		assert.Equal(t, sharedDomain.SeverityWarning, result.Violations[0].Severity)
	})

	t.Run("nobody eligible leaves the slot open", func(t *testing.T) {
		plan := testPlan(t, sectorID, 1)
		nearCap := employeeWithHistory(t, sectorID, "Ana", workforce.WorkHistory{WeeklyHours: 44})
		plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
		engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{nearCap}})

		result, err := engine.Assign(ctx, assignCtx(), plan.ID())
		require.NoError(t, err)
		assert.Zero(t, result.FilledSlots)
		assert.False(t, plan.Slots()[0].IsAssigned())
	})

	t.Run("ties break toward the lowest employee id", func(t *testing.T) {
		plan := testPlan(t, sectorID, 1)
		first := employeeWithHistory(t, sectorID, "Ana", workforce.WorkHistory{})
		second := employeeWithHistory(t, sectorID, "Bia", workforce.WorkHistory{})
		plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
		engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{first, second}})

		_, err := engine.Assign(ctx, assignCtx(), plan.ID())
		require.NoError(t, err)

		expected := first.ID()
		if second.ID().String() < first.ID().String() {
			expected = second.ID()
		}
		assert.Equal(t, expected, *plan.Slots()[0].EmployeeID())
	})

	t.Run("specialization matches the slot tag", func(t *testing.T) {
		plan, err := scheduleDomain.NewSchedulePlan(sectorID, uuid.New(), assignWeekStart, scheduleDomain.PlanBaseline, nil)
		require.NoError(t, err)
		template := workforce.ShiftTemplate{Name: "deep", Start: workforce.MustTimeOfDay(7, 0), End: workforce.MustTimeOfDay(15, 0), Tag: "deep_clean"}
		plan.AddSlot(scheduleDomain.NewShiftSlot(plan.ID(), assignWeekStart, template, nil, nil))

		specialist := employeeWithHistory(t, sectorID, "Ana", workforce.WorkHistory{}, "deep_clean")
		generalist := employeeWithHistory(t, sectorID, "Bia", workforce.WorkHistory{})
		plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
		engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{generalist, specialist}})

		_, err = engine.Assign(ctx, assignCtx(), plan.ID())
		require.NoError(t, err)
		assert.Equal(t, specialist.ID(), *plan.Slots()[0].EmployeeID())
	})

	t.Run("repeating the same weekday and template is penalized", func(t *testing.T) {
		plan := testPlan(t, sectorID, 1) // Monday morning slot
		lastAssigned := assignWeekStart.Add(-400 * time.Hour)
		monday := workforce.Monday
		repeater := employeeWithHistory(t, sectorID, "Ana", workforce.WorkHistory{
			LastAssignedAt: &lastAssigned, LastTemplateName: "morning", LastWeekday: &monday,
		})
		varied := employeeWithHistory(t, sectorID, "Bia", workforce.WorkHistory{
			LastAssignedAt: &lastAssigned, LastTemplateName: "afternoon", LastWeekday: &monday,
		})
		plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
		engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{repeater, varied}})

		_, err := engine.Assign(ctx, assignCtx(), plan.ID())
		require.NoError(t, err)
		assert.Equal(t, varied.ID(), *plan.Slots()[0].EmployeeID())
	})

	t.Run("intermittent mode skips permanent contracts", func(t *testing.T) {
		plan := testPlan(t, sectorID, 1)
		now := time.Now().UTC()
		permanent := workforce.RehydrateEmployee(uuid.New(), sectorID, "Ana", "camareira",
			workforce.ContractPermanent, 44, workforce.CleaningSpeed{}, nil, nil, workforce.WorkHistory{}, true, now, now)
		onCall := employeeWithHistory(t, sectorID, "Bia", workforce.WorkHistory{WeeklyHours: 30})
		plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
		engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{permanent, onCall}})

		pctx := assignCtx()
		pctx.Constraints.IntermittentMode = true
		result, err := engine.Assign(ctx, pctx, plan.ID())
		require.NoError(t, err)

		assert.Equal(t, onCall.ID(), *plan.Slots()[0].EmployeeID())
		require.NotEmpty(t, result.Violations)
		assert.Equal(t, "fixed-schedule-blocked", result.Violations[0].RuleCode)
		assert.Equal(t, permanent.ID().String(), result.Violations[0].Subject)
	})

	t.Run("metrics cover the whole pool", func(t *testing.T) {
		plan := testPlan(t, sectorID, 2)
		ana := employeeWithHistory(t, sectorID, "Ana", workforce.WorkHistory{})
		bia := employeeWithHistory(t, sectorID, "Bia", workforce.WorkHistory{WeeklyHours: 30})
		plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
		engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{ana, bia}})

		result, err := engine.Assign(ctx, assignCtx(), plan.ID())
		require.NoError(t, err)
		assert.Equal(t, 2, result.FilledSlots)
		require.Len(t, result.Metrics, 2)
		assert.NotEmpty(t, result.Preview)

		total := 0
		for _, metrics := range result.Metrics {
			total += metrics.SlotsAssigned
		}
		assert.Equal(t, 2, total)
	})
}

func TestAssignSlot(t *testing.T) {
	ctx := context.Background()
	sectorID := uuid.New()

	plan := testPlan(t, sectorID, 1)
	best := employeeWithHistory(t, sectorID, "Ana", workforce.WorkHistory{})
	backup := employeeWithHistory(t, sectorID, "Bia", workforce.WorkHistory{WeeklyHours: 20})
	plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
	engine := newEngine(plans, &mockEmployeeRepo{pool: []*workforce.Employee{best, backup}})

	slotID := plan.Slots()[0].ID()

	t.Run("excluded employees are never picked", func(t *testing.T) {
		assigned, err := engine.AssignSlot(ctx, assignCtx(), plan.ID(), slotID, map[uuid.UUID]bool{best.ID(): true})
		require.NoError(t, err)
		require.NotNil(t, assigned)
		assert.Equal(t, backup.ID(), *assigned)
	})

	t.Run("empty pool returns nil without error", func(t *testing.T) {
		assigned, err := engine.AssignSlot(ctx, assignCtx(), plan.ID(), slotID,
			map[uuid.UUID]bool{best.ID(): true, backup.ID(): true})
		require.NoError(t, err)
		assert.Nil(t, assigned)
	})

	t.Run("unknown slot", func(t *testing.T) {
		_, err := engine.AssignSlot(ctx, assignCtx(), plan.ID(), uuid.New(), nil)
		var notFound *sharedDomain.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}
