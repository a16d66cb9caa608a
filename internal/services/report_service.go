// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"

	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
	"github.com/Kavalar/by-kalancha/internal/records"
	"github.com/Kavalar/by-kalancha/internal/report"
)

// Draft is a report built but not yet dispatched. Report is nil when no
// appointment matched the period.
type Draft struct {
	Period    core.ReportPeriod
	Aggregate core.AggregateResult
	Popular   *core.PopularService
	Report    *core.RenderedReport
}

// ReportService runs the report pipeline: resolve the period, aggregate
// appointments, pick the most popular service, render, dispatch.
type ReportService struct {
	resolver     *core.Resolver
	appointments records.AppointmentReader
	catalog      records.ServiceCatalog
	renderer     *report.Renderer
	dispatcher   *Dispatcher
	logger       *applog.Logger
	structured   *applog.StructuredLogger
}

func NewReportService(
	resolver *core.Resolver,
	appointments records.AppointmentReader,
	catalog records.ServiceCatalog,
	renderer *report.Renderer,
	dispatcher *Dispatcher,
	logger *applog.Logger,
) *ReportService {
	logger = logger.WithComponent(applog.ComponentReport)
	return &ReportService{
		resolver:     resolver,
		appointments: appointments,
		catalog:      catalog,
		renderer:     renderer,
		dispatcher:   dispatcher,
		logger:       logger,
		structured:   applog.NewStructuredLogger(logger),
	}
}

// Build resolves and aggregates the period and renders the report without
// dispatching it.
func (s *ReportService) Build(ctx context.Context, req core.PeriodRequest) (*Draft, error) {
	period, err := s.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	appts, err := s.appointments.CompletedBetween(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	agg := core.Aggregate(period, appts)

	fields := applog.NewFields().
		WithPeriod(string(period.Kind), period.Start, period.End).
		WithOperation(applog.OpAggregate)
	fields[applog.FieldServicesCount] = agg.ServicesCount
	fields[applog.FieldTotalRevenue] = agg.Total().String()
	s.logger.InfoContext(ctx, "Period aggregated", fields.ToSlice()...)

	draft := &Draft{Period: period, Aggregate: agg}
	if agg.IsEmpty() {
		return draft, nil
	}

	if top, ok := agg.Popularity.MostPopular(); ok {
		services, err := s.catalog.ListServices(ctx)
		if err != nil {
			return nil, fmt.Errorf("list services: %w", err)
		}
		draft.Popular = &core.PopularService{
			ServiceID: top.ServiceID,
			Name:      core.ServiceNames(services)[top.ServiceID],
			Count:     top.Count,
		}
	}

	rendered, err := s.renderer.Render(period, agg, draft.Popular)
	if err != nil {
		return nil, err
	}
	draft.Report = &rendered
	return draft, nil
}

// Generate runs the whole pipeline. An empty period is a success with the
// no-data message and never reaches the dispatcher.
func (s *ReportService) Generate(ctx context.Context, req core.PeriodRequest) (core.Outcome, error) {
	draft, err := s.Build(ctx, req)
	if err != nil {
		return core.Outcome{}, err
	}

	if draft.Report == nil {
		s.logger.InfoContext(ctx, "No completed appointments for period",
			applog.FieldPeriodKind, draft.Period.Kind,
			applog.FieldPeriodStart, draft.Period.Start,
			applog.FieldPeriodEnd, draft.Period.End)
		return core.Outcome{
			Status:  core.OutcomeNoData,
			Message: s.renderer.NoDataMessage(),
			Period:  draft.Period,
		}, nil
	}

	dispatched, err := s.dispatcher.Dispatch(ctx, *draft.Report)
	if err != nil {
		return core.Outcome{}, err
	}

	s.structured.LogReportDispatched(ctx, string(draft.Period.Kind), draft.Period.Start, draft.Period.End,
		dispatched.Channel, dispatched.Recipients, dispatched.MessageID)

	return core.Outcome{
		Status:   core.OutcomeSent,
		Message:  s.renderer.SentMessage(),
		Period:   draft.Period,
		Dispatch: dispatched,
	}, nil
}
