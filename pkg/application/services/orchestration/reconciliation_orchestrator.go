package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/reconcile/pkg/application/dto"
	"github.com/vsinha/reconcile/pkg/application/services/matching"
	"github.com/vsinha/reconcile/pkg/application/services/reconciliation"
	"github.com/vsinha/reconcile/pkg/application/services/reporting"
	"github.com/vsinha/reconcile/pkg/application/services/shared"
	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/domain/repositories"
	"github.com/vsinha/reconcile/pkg/domain/services"
	"github.com/vsinha/reconcile/pkg/infrastructure/events"
)

const (
	engineReconcile = "reconcile"
	engineMatch     = "match"
)

// BalanceRepositoryFactory creates an empty repository for one matching run
type BalanceRepositoryFactory func(expectedRecords int) repositories.BalanceRepository

// Orchestrator runs the reconciliation and matching engines over validated input.
// Runs are serialised: each one owns its mutable pool for its whole duration.
type Orchestrator struct {
	evaluator   *reconciliation.Evaluator
	matchLimits matching.Limits
	newBalances BalanceRepositoryFactory
	eventStore  events.EventStore
	logger      *zap.Logger
	now         func() time.Time
	mu          sync.Mutex
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	evaluator *reconciliation.Evaluator,
	matchLimits matching.Limits,
	newBalances BalanceRepositoryFactory,
	eventStore events.EventStore,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		evaluator:   evaluator,
		matchLimits: matchLimits,
		newBalances: newBalances,
		eventStore:  eventStore,
		logger:      logger,
		now:         time.Now,
	}
}

// Reconcile maps identifiers, nets supply against firm demand, evaluates new demand
// group by group and derives the shortage and past-due projections.
// The caller's slices are not modified.
func (o *Orchestrator) Reconcile(ctx context.Context, input dto.ReconcileInput) (*dto.ReconciliationResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	runID := uuid.NewString()
	logger := o.logger.With(zap.String("run_id", runID), zap.String("engine", engineReconcile))

	today := input.Today
	if today.IsZero() {
		today = o.now()
	}
	today = entities.DateOnly(today)

	logger.Info("run started",
		zap.Int("supply_rows", len(input.Supply)),
		zap.Int("firm_lines", len(input.FirmDemand)),
		zap.Int("new_lines", len(input.NewDemand)),
		zap.Int("cross_references", len(input.CrossReferences)),
		zap.Time("today", today))
	o.record(logger, runID, events.RunStartedEvent, events.RunStarted{Engine: engineReconcile, Lines: len(input.NewDemand)})

	firm := append([]entities.DemandLine(nil), input.FirmDemand...)
	lines := append([]entities.DemandLine(nil), input.NewDemand...)

	mapper := services.NewIdentifierMap(input.CrossReferences)
	newUnmapped := services.NewUnmappedCollector()
	firmUnmapped := services.NewUnmappedCollector()

	diagnostics := append([]entities.Diagnostic(nil), input.Diagnostics...)
	diagnostics = append(diagnostics, mapper.MapLines(entities.DatasetNewDemand, lines, newUnmapped)...)
	diagnostics = append(diagnostics, mapper.MapLines(entities.DatasetFirmDemand, firm, firmUnmapped)...)

	base := shared.BuildAvailability(input.Supply, firm)
	logger.Debug("base availability built",
		zap.Int("parts", base.Size()),
		zap.Int("negative_parts", len(base.Negative())))

	evaluation, err := o.evaluator.Evaluate(ctx, lines, base.Clone())
	if err != nil {
		o.fail(logger, runID, engineReconcile, err)
		return nil, fmt.Errorf("failed to evaluate new demand: %w", err)
	}

	for _, group := range evaluation.Groups {
		o.record(logger, runID, events.OrderEvaluatedEvent, events.OrderEvaluated{Group: group})
	}

	baseSnapshot := base.Snapshot()
	shortages := reporting.BuildShortages(evaluation.Groups, evaluation.Lines, baseSnapshot)
	for _, shortage := range shortages {
		o.record(logger, runID, events.ShortageIdentifiedEvent, events.ShortageIdentified{
			PartNumber: shortage.PartNumber,
			NeededQty:  shortage.NeededQty,
		})
	}

	result := &dto.ReconciliationResult{
		RunID:             runID,
		Today:             today,
		Groups:            evaluation.Groups,
		Lines:             evaluation.Lines,
		BaseAvailability:  baseSnapshot,
		FinalAvailability: evaluation.FinalPool,
		Shortages:         shortages,
		PastDueNewDemand:  reporting.PastDueNewDemand(evaluation.Lines, today),
		PastDueFirmDemand: reporting.PastDueFirmDemand(firm, base, today),
		Unmapped: dto.UnmappedAlerts{
			NewDemand:  newUnmapped.List(),
			FirmDemand: firmUnmapped.List(),
		},
		Diagnostics: diagnostics,
	}

	o.reportUnmapped(logger, runID, entities.DatasetNewDemand, result.Unmapped.NewDemand)
	o.reportUnmapped(logger, runID, entities.DatasetFirmDemand, result.Unmapped.FirmDemand)

	o.record(logger, runID, events.RunCompletedEvent, events.RunCompleted{
		Engine:    engineReconcile,
		Accepted:  evaluation.Accepted,
		Rejected:  evaluation.Rejected,
		Rows:      len(evaluation.Lines),
		Shortages: len(shortages),
	})
	logger.Info("run completed",
		zap.Int("groups", len(evaluation.Groups)),
		zap.Int("accepted", evaluation.Accepted),
		zap.Int("rejected", evaluation.Rejected),
		zap.Int("shortages", len(shortages)),
		zap.Int("past_due_new", len(result.PastDueNewDemand)),
		zap.Int("past_due_firm", len(result.PastDueFirmDemand)),
		zap.Int("diagnostics", len(diagnostics)))

	return result, nil
}

// Match allocates delivery requests against balance records in priority order.
// Without cross-reference rows the request identifiers are taken as canonical.
// The caller's records and requests are not modified.
func (o *Orchestrator) Match(ctx context.Context, input dto.MatchInput) (*dto.MatchingResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	runID := uuid.NewString()
	logger := o.logger.With(zap.String("run_id", runID), zap.String("engine", engineMatch))

	logger.Info("run started",
		zap.Int("balance_records", len(input.Balances)),
		zap.Int("requests", len(input.Requests)),
		zap.Int("cross_references", len(input.CrossReferences)))
	o.record(logger, runID, events.RunStartedEvent, events.RunStarted{Engine: engineMatch, Lines: len(input.Requests)})

	balances := o.newBalances(len(input.Balances))
	if err := balances.LoadBalanceRecords(input.Balances); err != nil {
		o.fail(logger, runID, engineMatch, err)
		return nil, fmt.Errorf("failed to load balance records: %w", err)
	}

	requests := append([]entities.DemandLine(nil), input.Requests...)
	diagnostics := append([]entities.Diagnostic(nil), input.Diagnostics...)
	unmapped := services.NewUnmappedCollector()
	if len(input.CrossReferences) > 0 {
		mapper := services.NewIdentifierMap(input.CrossReferences)
		diagnostics = append(diagnostics, mapper.MapLines(entities.DatasetRequests, requests, unmapped)...)
	} else {
		services.AssumeCanonical(requests)
	}

	allocations, err := matching.NewAllocator(balances, o.matchLimits).Allocate(ctx, requests)
	if err != nil {
		o.fail(logger, runID, engineMatch, err)
		return nil, fmt.Errorf("failed to allocate requests: %w", err)
	}

	for _, allocation := range allocations {
		o.record(logger, runID, events.AllocationRecordedEvent, events.AllocationRecorded{Allocation: allocation})
	}

	records, err := balances.GetAllBalanceRecords()
	if err != nil {
		o.fail(logger, runID, engineMatch, err)
		return nil, fmt.Errorf("failed to read balance records: %w", err)
	}
	remaining := make([]entities.BalanceRecord, len(records))
	for i, record := range records {
		remaining[i] = *record
	}

	result := &dto.MatchingResult{
		RunID:       runID,
		Allocations: allocations,
		Balances:    remaining,
		Summary:     reporting.Summarize(allocations),
		Unmapped:    unmapped.List(),
		Diagnostics: diagnostics,
	}

	o.reportUnmapped(logger, runID, entities.DatasetRequests, result.Unmapped)

	o.record(logger, runID, events.RunCompletedEvent, events.RunCompleted{
		Engine: engineMatch,
		Rows:   len(allocations),
	})
	logger.Info("run completed",
		zap.Int("requests", result.Summary.Requests),
		zap.Int("matched", result.Summary.Matched),
		zap.Int("split", result.Summary.Split),
		zap.Int("unmatched_partial", result.Summary.UnmatchedParts),
		zap.Int("no_match", result.Summary.NoMatch),
		zap.Stringer("total_shortfall", result.Summary.TotalShortfall))

	return result, nil
}

func (o *Orchestrator) reportUnmapped(logger *zap.Logger, runID, dataset string, ids []string) {
	if len(ids) == 0 {
		return
	}
	logger.Warn("identifiers without canonical mapping",
		zap.String("dataset", dataset),
		zap.Int("count", len(ids)),
		zap.Strings("identifiers", ids))
	o.record(logger, runID, events.MappingMissingEvent, events.MappingMissing{Dataset: dataset, CustomID: ids})
}

func (o *Orchestrator) fail(logger *zap.Logger, runID, engine string, err error) {
	logger.Error("run failed", zap.Error(err))
	o.record(logger, runID, events.RunFailedEvent, events.RunFailed{Engine: engine, Reason: err.Error()})
}

// record appends a lifecycle event to the run stream. A store failure never fails the run.
func (o *Orchestrator) record(logger *zap.Logger, runID, eventType string, data interface{}) {
	if o.eventStore == nil {
		return
	}
	if err := o.eventStore.AppendEvent(runID, events.NewEvent(eventType, runID, data)); err != nil {
		logger.Warn("failed to record event", zap.String("event_type", eventType), zap.Error(err))
	}
}
