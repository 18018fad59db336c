// Package pipeline carries the per-operation execution context the planning
// engines share: the sector snapshot, effective constraints, calendar
// provider, and trace run.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	calendarDomain "github.com/hotelops/roster/internal/calendar/domain"
	rulesDomain "github.com/hotelops/roster/internal/rules/domain"
	traceApplication "github.com/hotelops/roster/internal/trace/application"
	traceDomain "github.com/hotelops/roster/internal/trace/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Context is built once per planning operation. Rules are reduced to
// constraints at build time and held for the whole call; mid-operation rule
// edits never split a computation.
type Context struct {
	Sector      *workforce.Sector
	AsOf        time.Time
	Constraints rulesDomain.Constraints
	Calendar    calendarDomain.Provider
	Sink        *traceApplication.Sink
	Run         *traceDomain.AgentRun
}

// ConstraintsResolver reduces the rules in force into effective constraints.
type ConstraintsResolver interface {
	Constraints(ctx context.Context, sectorID uuid.UUID, onDate time.Time) (rulesDomain.Constraints, error)
}

// Builder assembles pipeline contexts.
type Builder struct {
	rules    ConstraintsResolver
	calendar calendarDomain.Provider
	sink     *traceApplication.Sink
}

// NewBuilder creates a pipeline context builder.
func NewBuilder(rules ConstraintsResolver, calendar calendarDomain.Provider, sink *traceApplication.Sink) *Builder {
	return &Builder{rules: rules, calendar: calendar, sink: sink}
}

// Build resolves constraints as of the given time and opens a trace run for
// the component.
func (b *Builder) Build(ctx context.Context, component string, sector *workforce.Sector, asOf time.Time) (*Context, error) {
	asOf = asOf.UTC()
	constraints, err := b.rules.Constraints(ctx, sector.ID(), asOf)
	if err != nil {
		return nil, err
	}

	sectorID := sector.ID()
	run, err := b.sink.Begin(ctx, component, &sectorID)
	if err != nil {
		return nil, err
	}

	return &Context{
		Sector:      sector,
		AsOf:        asOf,
		Constraints: constraints,
		Calendar:    b.calendar,
		Sink:        b.sink,
		Run:         run,
	}, nil
}

// IntermittentMode reports whether on-call rules govern this sector.
func (p *Context) IntermittentMode() bool {
	return p.Constraints.IntermittentMode
}

// Trace writes one decision step; trace failures never abort planning.
func (p *Context) Trace(ctx context.Context, name string, payload map[string]any) {
	if p.Sink == nil || p.Run == nil {
		return
	}
	_ = p.Sink.Step(ctx, p.Run, name, payload)
}

// Finish closes the trace run according to the operation outcome.
func (p *Context) Finish(ctx context.Context, opErr error) {
	if p.Sink == nil || p.Run == nil {
		return
	}
	if opErr != nil {
		_ = p.Sink.Fail(ctx, p.Run, opErr.Error())
		return
	}
	_ = p.Sink.Complete(ctx, p.Run)
}
