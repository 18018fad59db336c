package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assignmentApplication "github.com/hotelops/roster/internal/assignment/application"
	calendarDomain "github.com/hotelops/roster/internal/calendar/domain"
	"github.com/hotelops/roster/internal/convocation/domain"
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

type mockConvRepo struct {
	items map[uuid.UUID]*domain.Convocation
}

func newMockConvRepo() *mockConvRepo {
	return &mockConvRepo{items: make(map[uuid.UUID]*domain.Convocation)}
}

func (m *mockConvRepo) Save(_ context.Context, convocation *domain.Convocation) error {
	m.items[convocation.ID()] = convocation
	return nil
}

func (m *mockConvRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Convocation, error) {
	return m.items[id], nil
}

func (m *mockConvRepo) Find(_ context.Context, filter domain.Filter) ([]*domain.Convocation, error) {
	var out []*domain.Convocation
	for _, c := range m.items {
		if filter.EmployeeID != nil && c.EmployeeID() != *filter.EmployeeID {
			continue
		}
		if filter.PlanID != nil && c.PlanID() != *filter.PlanID {
			continue
		}
		if filter.Status != "" && c.Status() != filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockConvRepo) AcceptedForEmployee(_ context.Context, employeeID uuid.UUID, from, to time.Time) ([]*domain.Convocation, error) {
	var out []*domain.Convocation
	for _, c := range m.items {
		if c.Status() != domain.StatusAccepted || c.EmployeeID() != employeeID {
			continue
		}
		if c.TargetDate().Before(from) || c.TargetDate().After(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockConvRepo) PendingExpired(_ context.Context, now time.Time) ([]*domain.Convocation, error) {
	var out []*domain.Convocation
	for _, c := range m.items {
		if c.Status() == domain.StatusPending && c.ResponseDeadline().Before(now) {
			out = append(out, c)
		}
	}
	return out, nil
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

type mockEmployeeRepo struct {
	pool []*workforce.Employee
}

func (m *mockEmployeeRepo) Save(context.Context, *workforce.Employee) error { return nil }
func (m *mockEmployeeRepo) FindByID(context.Context, uuid.UUID) (*workforce.Employee, error) {
	return nil, nil
}
func (m *mockEmployeeRepo) FindActiveBySector(context.Context, uuid.UUID) ([]*workforce.Employee, error) {
	return m.pool, nil
}

type stubCalendar struct {
	factors calendarDomain.DayFactors
}

func (s stubCalendar) Factors(context.Context, time.Time, uuid.UUID) (calendarDomain.DayFactors, error) {
	return s.factors, nil
}

var (
	convWeekStart = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	convDate      = convWeekStart.AddDate(0, 0, 2)
)

type convFixture struct {
	svc       *Service
	repo      *mockConvRepo
	employees *mockEmployeeRepo
	plan      *scheduleDomain.SchedulePlan
	slot      *scheduleDomain.ShiftSlot
	sectorID  uuid.UUID
}

func newConvFixture(t *testing.T) *convFixture {
	t.Helper()

	sectorID := uuid.New()
	plan, err := scheduleDomain.NewSchedulePlan(sectorID, uuid.New(), convWeekStart, scheduleDomain.PlanBaseline, nil)
	require.NoError(t, err)
	template := workforce.DefaultShiftTemplates()[0]
	lunchStart, lunchEnd := scheduleDomain.LunchWindow(template, workforce.DefaultLunchPolicy(), 0)
	slot := scheduleDomain.NewShiftSlot(plan.ID(), convDate, template, lunchStart, lunchEnd)
	plan.AddSlot(slot)

	repo := newMockConvRepo()
	plans := &mockPlanRepo{plans: map[uuid.UUID]*scheduleDomain.SchedulePlan{plan.ID(): plan}}
	employees := &mockEmployeeRepo{}
	assigner := assignmentApplication.NewEngine(plans, employees, nopUnitOfWork{}, nil)

	return &convFixture{
		svc:       NewService(repo, plans, assigner, nopUnitOfWork{}, nil, nil),
		repo:      repo,
		employees: employees,
		plan:      plan,
		slot:      slot,
		sectorID:  sectorID,
	}
}

func (f *convFixture) pctx(asOf time.Time, factors calendarDomain.DayFactors) *pipeline.Context {
	return &pipeline.Context{
		AsOf:        asOf,
		Constraints: rulesDomain.Reduce(nil),
		Calendar:    stubCalendar{factors: factors},
	}
}

func (f *convFixture) input(employeeID uuid.UUID) CreateInput {
	return CreateInput{
		EmployeeID:   employeeID,
		SectorID:     f.sectorID,
		PlanID:       f.plan.ID(),
		SlotID:       f.slot.ID(),
		TargetDate:   convDate,
		Start:        workforce.MustTimeOfDay(7, 0),
		End:          workforce.MustTimeOfDay(15, 0),
		BreakMinutes: 60,
		Origin:       domain.OriginBaseline,
	}
}

func (f *convFixture) acceptedShift(t *testing.T, employeeID uuid.UUID, date time.Time, start, end workforce.TimeOfDay, breakMinutes int) {
	t.Helper()
	prior := domain.NewConvocation(
		employeeID, f.sectorID, f.plan.ID(), uuid.New(),
		date, start, end, breakMinutes,
		domain.OriginBaseline, date.Add(-96*time.Hour), 24,
		domain.LegalValidation{Passed: true},
	)
	require.NoError(t, prior.Accept(date.Add(-90*time.Hour)))
	f.repo.items[prior.ID()] = prior
}

func hasRule(findings []sharedDomain.Finding, code string) bool {
	for _, finding := range findings {
		if finding.RuleCode == code {
			return true
		}
	}
	return false
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	calmAsOf := convDate.Add(-200 * time.Hour)

	t.Run("clean invitation persists pending", func(t *testing.T) {
		f := newConvFixture(t)
		convocation, validation, err := f.svc.Create(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), f.input(uuid.New()))
		require.NoError(t, err)
		require.NotNil(t, convocation)

		assert.True(t, validation.Passed)
		assert.Empty(t, validation.Warnings)
		assert.Equal(t, domain.StatusPending, convocation.Status())
		assert.InDelta(t, 7.0, convocation.TotalHours(), 1e-9)
		assert.Equal(t, calmAsOf.Add(24*time.Hour), convocation.ResponseDeadline())
		assert.Contains(t, f.repo.items, convocation.ID())
	})

	t.Run("short notice warns without blocking", func(t *testing.T) {
		f := newConvFixture(t)
		// Shift starts at 07:00; 24h before that is inside the 72h window.
		asOf := convDate.Add(7*time.Hour - 24*time.Hour)
		convocation, validation, err := f.svc.Create(ctx, f.pctx(asOf, calendarDomain.NeutralFactors()), f.input(uuid.New()))
		require.NoError(t, err)
		require.NotNil(t, convocation)

		assert.True(t, validation.Passed)
		require.Len(t, validation.Warnings, 1)
		assert.Equal(t, "advance-notice", validation.Warnings[0].RuleCode)
		assert.Len(t, convocation.Validation().Warnings, 1)
	})

	t.Run("weekly cap blocks", func(t *testing.T) {
		f := newConvFixture(t)
		employeeID := uuid.New()
		// 42 accepted hours inside the Monday..Sunday week; 7 more breaches 44.
		for _, offset := range []int{-2, -1, 1, 2, 3, 4} {
			f.acceptedShift(t, employeeID, convDate.AddDate(0, 0, offset),
				workforce.MustTimeOfDay(7, 0), workforce.MustTimeOfDay(15, 0), 60)
		}

		convocation, validation, err := f.svc.Create(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), f.input(employeeID))
		require.NoError(t, err)
		assert.Nil(t, convocation)
		assert.False(t, validation.Passed)
		assert.True(t, hasRule(validation.Errors, "max-weekly-hours"))
	})

	t.Run("prior-week hours do not count against the cap", func(t *testing.T) {
		f := newConvFixture(t)
		employeeID := uuid.New()
		// 42 accepted hours ending the Sunday before the target week.
		for i := 3; i <= 8; i++ {
			f.acceptedShift(t, employeeID, convDate.AddDate(0, 0, -i),
				workforce.MustTimeOfDay(7, 0), workforce.MustTimeOfDay(15, 0), 60)
		}

		convocation, validation, err := f.svc.Create(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), f.input(employeeID))
		require.NoError(t, err)
		require.NotNil(t, convocation)
		assert.True(t, validation.Passed)
	})

	t.Run("daily cap and rest block a same-day double", func(t *testing.T) {
		f := newConvFixture(t)
		employeeID := uuid.New()
		f.acceptedShift(t, employeeID, convDate,
			workforce.MustTimeOfDay(7, 0), workforce.MustTimeOfDay(12, 0), 0)

		input := f.input(employeeID)
		input.Start = workforce.MustTimeOfDay(13, 0)
		input.End = workforce.MustTimeOfDay(18, 0)
		input.BreakMinutes = 0

		convocation, validation, err := f.svc.Create(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), input)
		require.NoError(t, err)
		assert.Nil(t, convocation)
		assert.True(t, hasRule(validation.Errors, "max-daily-hours"))
		assert.True(t, hasRule(validation.Errors, "min-rest-between-shifts"))
	})

	t.Run("calendar block", func(t *testing.T) {
		f := newConvFixture(t)
		blocked := calendarDomain.NeutralFactors()
		blocked.BlockConvocations = true

		convocation, validation, err := f.svc.Create(ctx, f.pctx(calmAsOf, blocked), f.input(uuid.New()))
		require.NoError(t, err)
		assert.Nil(t, convocation)
		assert.True(t, hasRule(validation.Errors, "calendar-block"))
		assert.Empty(t, f.repo.items)
	})
}

func TestRespond(t *testing.T) {
	ctx := context.Background()
	calmAsOf := convDate.Add(-200 * time.Hour)

	t.Run("accept", func(t *testing.T) {
		f := newConvFixture(t)
		convocation, _, err := f.svc.Create(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), f.input(uuid.New()))
		require.NoError(t, err)

		accepted, err := f.svc.Accept(ctx, convocation.ID(), calmAsOf.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAccepted, accepted.Status())
		assert.Empty(t, accepted.DomainEvents())
	})

	t.Run("cancel stores the reason", func(t *testing.T) {
		f := newConvFixture(t)
		convocation, _, err := f.svc.Create(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), f.input(uuid.New()))
		require.NoError(t, err)

		cancelled, err := f.svc.Cancel(ctx, convocation.ID(), "plan replanned")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status())
		assert.Equal(t, "plan replanned", cancelled.CancelReason())
	})

	t.Run("unknown convocation", func(t *testing.T) {
		f := newConvFixture(t)
		_, err := f.svc.Accept(ctx, uuid.New(), calmAsOf)
		var notFound *sharedDomain.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})
}

func TestDecline(t *testing.T) {
	ctx := context.Background()
	calmAsOf := convDate.Add(-200 * time.Hour)

	t.Run("without reschedule", func(t *testing.T) {
		f := newConvFixture(t)
		convocation, _, err := f.svc.Create(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), f.input(uuid.New()))
		require.NoError(t, err)

		declined, successor, err := f.svc.Decline(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), convocation.ID(), calmAsOf.Add(time.Hour), false)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDeclined, declined.Status())
		assert.Nil(t, successor)
		assert.Nil(t, declined.ReplacementID())
	})

	t.Run("reschedule links the chain both ways", func(t *testing.T) {
		f := newConvFixture(t)
		decliner, err := workforce.NewEmployee(f.sectorID, "Ana", "camareira", workforce.ContractIntermittent, 44)
		require.NoError(t, err)
		replacement, err := workforce.NewEmployee(f.sectorID, "Beatriz", "camareira", workforce.ContractIntermittent, 44)
		require.NoError(t, err)
		f.employees.pool = []*workforce.Employee{decliner, replacement}
		f.slot.Assign(decliner.ID())

		pctx := f.pctx(calmAsOf, calendarDomain.NeutralFactors())
		convocation, _, err := f.svc.Create(ctx, pctx, f.input(decliner.ID()))
		require.NoError(t, err)

		declined, successor, err := f.svc.Decline(ctx, pctx, convocation.ID(), calmAsOf.Add(time.Hour), true)
		require.NoError(t, err)
		require.NotNil(t, successor)

		assert.Equal(t, replacement.ID(), successor.EmployeeID())
		assert.Equal(t, domain.OriginReschedule, successor.Origin())
		require.NotNil(t, successor.ReplacedID())
		assert.Equal(t, declined.ID(), *successor.ReplacedID())
		require.NotNil(t, declined.ReplacementID())
		assert.Equal(t, successor.ID(), *declined.ReplacementID())

		require.NotNil(t, f.slot.EmployeeID())
		assert.Equal(t, replacement.ID(), *f.slot.EmployeeID())
	})

	t.Run("no candidate leaves the slot open", func(t *testing.T) {
		f := newConvFixture(t)
		decliner, err := workforce.NewEmployee(f.sectorID, "Ana", "camareira", workforce.ContractIntermittent, 44)
		require.NoError(t, err)
		f.employees.pool = []*workforce.Employee{decliner}
		f.slot.Assign(decliner.ID())

		pctx := f.pctx(calmAsOf, calendarDomain.NeutralFactors())
		convocation, _, err := f.svc.Create(ctx, pctx, f.input(decliner.ID()))
		require.NoError(t, err)

		declined, successor, err := f.svc.Decline(ctx, pctx, convocation.ID(), calmAsOf.Add(time.Hour), true)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDeclined, declined.Status())
		assert.Nil(t, successor)
		assert.Nil(t, declined.ReplacementID())
	})
}

func TestFinalizePlan(t *testing.T) {
	ctx := context.Background()
	calmAsOf := convDate.Add(-200 * time.Hour)

	intermittent := func(f *convFixture) *pipeline.Context {
		pctx := f.pctx(calmAsOf, calendarDomain.NeutralFactors())
		pctx.Constraints.IntermittentMode = true
		return pctx
	}

	t.Run("outside intermittent mode the draft finalizes directly", func(t *testing.T) {
		f := newConvFixture(t)
		f.slot.Assign(uuid.New())

		plan, err := f.svc.FinalizePlan(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), f.plan.ID())
		require.NoError(t, err)
		assert.Equal(t, scheduleDomain.PlanFinal, plan.Status())
	})

	t.Run("assigned slot without a convocation blocks finalization", func(t *testing.T) {
		f := newConvFixture(t)
		f.slot.Assign(uuid.New())

		_, err := f.svc.FinalizePlan(ctx, intermittent(f), f.plan.ID())
		var validation *sharedDomain.ValidationError
		require.True(t, errors.As(err, &validation))
		assert.True(t, hasRule(validation.Blocking, "formal-convocation-required"))
		assert.Equal(t, scheduleDomain.PlanDraft, f.plan.Status())
	})

	t.Run("a pending convocation satisfies the gate", func(t *testing.T) {
		f := newConvFixture(t)
		employeeID := uuid.New()
		f.slot.Assign(employeeID)

		pctx := intermittent(f)
		_, _, err := f.svc.Create(ctx, pctx, f.input(employeeID))
		require.NoError(t, err)

		plan, err := f.svc.FinalizePlan(ctx, pctx, f.plan.ID())
		require.NoError(t, err)
		assert.Equal(t, scheduleDomain.PlanFinal, plan.Status())
	})

	t.Run("cancelled convocations do not count", func(t *testing.T) {
		f := newConvFixture(t)
		employeeID := uuid.New()
		f.slot.Assign(employeeID)

		pctx := intermittent(f)
		convocation, _, err := f.svc.Create(ctx, pctx, f.input(employeeID))
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, convocation.ID(), "replanned")
		require.NoError(t, err)

		_, err = f.svc.FinalizePlan(ctx, pctx, f.plan.ID())
		var validation *sharedDomain.ValidationError
		assert.True(t, errors.As(err, &validation))
	})

	t.Run("unknown plan", func(t *testing.T) {
		f := newConvFixture(t)
		_, err := f.svc.FinalizePlan(ctx, f.pctx(calmAsOf, calendarDomain.NeutralFactors()), uuid.New())
		var notFound *sharedDomain.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})
}

func TestExpireDue(t *testing.T) {
	ctx := context.Background()
	f := newConvFixture(t)
	calmAsOf := convDate.Add(-200 * time.Hour)
	pctx := f.pctx(calmAsOf, calendarDomain.NeutralFactors())

	overdue1, _, err := f.svc.Create(ctx, pctx, f.input(uuid.New()))
	require.NoError(t, err)
	overdue2, _, err := f.svc.Create(ctx, pctx, f.input(uuid.New()))
	require.NoError(t, err)

	// A later invitation whose 24h deadline has not passed yet.
	fresh, _, err := f.svc.Create(ctx, f.pctx(calmAsOf.Add(100*time.Hour), calendarDomain.NeutralFactors()), f.input(uuid.New()))
	require.NoError(t, err)

	now := calmAsOf.Add(48 * time.Hour)
	expired, err := f.svc.ExpireDue(ctx, pctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	assert.Equal(t, domain.StatusExpired, f.repo.items[overdue1.ID()].Status())
	assert.Equal(t, domain.StatusExpired, f.repo.items[overdue2.ID()].Status())
	assert.Equal(t, domain.StatusPending, f.repo.items[fresh.ID()].Status())

	again, err := f.svc.ExpireDue(ctx, pctx, now)
	require.NoError(t, err)
	assert.Zero(t, again)
}
