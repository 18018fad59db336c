package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	agendaApplication "github.com/hotelops/roster/internal/agenda/application"
	"github.com/hotelops/roster/internal/app"
	assignmentApplication "github.com/hotelops/roster/internal/assignment/application"
	calendarApplication "github.com/hotelops/roster/internal/calendar/application"
	convocationApplication "github.com/hotelops/roster/internal/convocation/application"
	datalakeApplication "github.com/hotelops/roster/internal/datalake/application"
	demandApplication "github.com/hotelops/roster/internal/demand/application"
	demandDomain "github.com/hotelops/roster/internal/demand/domain"
	forecastApplication "github.com/hotelops/roster/internal/forecast/application"
	forecastDomain "github.com/hotelops/roster/internal/forecast/domain"
	"github.com/hotelops/roster/internal/pipeline"
	rulesApplication "github.com/hotelops/roster/internal/rules/application"
	scheduleApplication "github.com/hotelops/roster/internal/schedule/application"
	scheduleDomain "github.com/hotelops/roster/internal/schedule/domain"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	statsApplication "github.com/hotelops/roster/internal/stats/application"
	suggestionApplication "github.com/hotelops/roster/internal/suggestion/application"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
	"github.com/hotelops/roster/pkg/config"
)

// App holds the CLI application dependencies.
type App struct {
	Config *config.Config

	// Planning engines
	Ingest      *datalakeApplication.IngestService
	Stats       *statsApplication.Engine
	Rules       *rulesApplication.Service
	Calendar    *calendarApplication.Service
	Pipeline    *pipeline.Builder
	Forecast    *forecastApplication.Service
	Demand      *demandApplication.Engine
	Schedule    *scheduleApplication.Generator
	Assignment  *assignmentApplication.Engine
	Agenda      *agendaApplication.Engine
	Convocation *convocationApplication.Service
	Suggestion  *suggestionApplication.Engine

	// Read-side repositories for command plumbing
	Sectors      workforce.SectorRepository
	ForecastRuns forecastDomain.Repository
	DemandRows   demandDomain.Repository
	Plans        scheduleDomain.Repository
}

// NewApp creates a CLI application from the wired container.
func NewApp(container *app.Container) *App {
	return &App{
		Config:       container.Config,
		Ingest:       container.Ingest,
		Stats:        container.Stats,
		Rules:        container.Rules,
		Calendar:     container.Calendar,
		Pipeline:     container.Pipeline,
		Forecast:     container.Forecast,
		Demand:       container.Demand,
		Schedule:     container.Schedule,
		Assignment:   container.Assignment,
		Agenda:       container.Agenda,
		Convocation:  container.Convocation,
		Suggestion:   container.Suggestion,
		Sectors:      container.SectorRepo,
		ForecastRuns: container.ForecastRepo,
		DemandRows:   container.DemandRepo,
		Plans:        container.ScheduleRepo,
	}
}

// ResolveSector accepts a sector id or name.
func (a *App) ResolveSector(ctx context.Context, ref string) (*workforce.Sector, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return a.Sectors.FindByID(ctx, id)
	}
	return a.Sectors.FindByName(ctx, ref)
}

// BuildPipeline opens a traced planning context for one operation.
func (a *App) BuildPipeline(ctx context.Context, component string, sector *workforce.Sector, asOf time.Time) (*pipeline.Context, error) {
	return a.Pipeline.Build(ctx, component, sector, asOf)
}

// ResolveRun finds the forecast run a command operates on: an explicit run id
// when given, otherwise the locked baseline for the week.
func (a *App) ResolveRun(ctx context.Context, sectorID uuid.UUID, weekStart time.Time, runRef string) (*forecastDomain.ForecastRun, error) {
	if runRef != "" {
		id, err := uuid.Parse(runRef)
		if err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", runRef, err)
		}
		return a.ForecastRuns.FindRun(ctx, id)
	}
	run, err := a.ForecastRuns.LockedBaseline(ctx, sectorID, weekStart)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, &sharedDomain.NotFoundError{Entity: "locked baseline", Ref: weekStart.Format(time.DateOnly)}
	}
	return run, nil
}

// ParseDate parses a YYYY-MM-DD flag into a normalized UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return workforce.NormalizeDate(t), nil
}

// PrintFindings writes validation findings in a uniform shape.
func PrintFindings(findings []sharedDomain.Finding) {
	for _, f := range findings {
		fmt.Printf("  [%s] %s: %s\n", f.Severity, f.RuleCode, f.Message)
	}
}

// app is the global CLI application instance
var appInstance *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	appInstance = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return appInstance
}
