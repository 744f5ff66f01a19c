package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/reconcile/pkg/application/services/matching"
	"github.com/vsinha/reconcile/pkg/application/services/orchestration"
	"github.com/vsinha/reconcile/pkg/application/services/reconciliation"
	"github.com/vsinha/reconcile/pkg/domain/repositories"
	"github.com/vsinha/reconcile/pkg/infrastructure/config"
	"github.com/vsinha/reconcile/pkg/infrastructure/events"
	"github.com/vsinha/reconcile/pkg/infrastructure/logging"
	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/tabular"
	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/xlsx"
)

// Config holds configuration for the reconcile and match commands
type Config struct {
	ConfigFile     string
	ScenarioDir    string
	SupplyFile     string
	FirmDemandFile string
	NewDemandFile  string
	CrossRefFile   string
	BalancesFile   string
	RequestsFile   string
	Sheet          string
	Today          string
	OutputDir      string
	Format         string
	LogLevel       string
	Verbose        bool
	Help           bool
	Stdout         io.Writer
}

// inputFile is one table to load
type inputFile struct {
	dataset  string
	path     string
	optional bool
}

// runtime is everything a command run shares: settings, logger, reader and event store
type runtime struct {
	settings *config.Config
	logger   *zap.Logger
	reader   *tabular.Reader
	events   *events.InMemoryEventStore
	stdout   io.Writer
	verbose  bool
}

func newRuntime(cfg Config) (*runtime, error) {
	settings := config.Default()
	if cfg.ConfigFile != "" {
		loaded, err := config.Load(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	if cfg.Sheet != "" {
		settings.Sheet = cfg.Sheet
	}
	if cfg.Today != "" {
		settings.Today = cfg.Today
	}
	if cfg.LogLevel != "" {
		settings.Log.Level = cfg.LogLevel
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: settings.Log.Level, Format: settings.Log.Format})
	if err != nil {
		return nil, err
	}

	store := events.NewInMemoryEventStore(logger)
	if cfg.Verbose {
		handler := events.NewLoggingHandler(logger,
			events.RunStartedEvent,
			events.RunCompletedEvent,
			events.RunFailedEvent,
			events.ShortageIdentifiedEvent,
			events.MappingMissingEvent,
		)
		if err := store.Subscribe([]string{
			events.RunStartedEvent,
			events.RunCompletedEvent,
			events.RunFailedEvent,
			events.ShortageIdentifiedEvent,
			events.MappingMissingEvent,
		}, handler); err != nil {
			return nil, fmt.Errorf("failed to subscribe event logger: %w", err)
		}
	}

	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	return &runtime{
		settings: settings,
		logger:   logger,
		reader:   tabular.NewReader(settings.Columns, settings.DateLayouts),
		events:   store,
		stdout:   stdout,
		verbose:  cfg.Verbose,
	}, nil
}

func (rt *runtime) close() {
	_ = rt.logger.Sync()
}

func (rt *runtime) orchestrator() *orchestration.Orchestrator {
	limits := rt.settings.Limits
	return orchestration.NewOrchestrator(
		reconciliation.NewEvaluator(reconciliation.Limits{MaxGroups: limits.MaxGroups, MaxLines: limits.MaxLines}),
		matching.Limits{MaxRequests: limits.MaxRequests, MaxRecords: limits.MaxRecords},
		func(expected int) repositories.BalanceRepository { return memory.NewBalanceRepository(expected) },
		rt.events,
		rt.logger,
	)
}

// printEvents reports the lifecycle events the store holds for one run, counted by type
func (rt *runtime) printEvents(runID string) {
	stream, err := rt.events.ReadEvents(runID, 1)
	if err != nil {
		rt.logger.Warn("failed to read run events", zap.String("run_id", runID), zap.Error(err))
		return
	}

	counts := make(map[string]int)
	for _, event := range stream {
		counts[event.Type()]++
	}
	types := make([]string, 0, len(counts))
	for eventType := range counts {
		types = append(types, eventType)
	}
	sort.Strings(types)

	fmt.Fprintf(rt.stdout, "📜 Events recorded for run %s: %d\n", runID, len(stream))
	for _, eventType := range types {
		fmt.Fprintf(rt.stdout, "  %s: %d\n", eventType, counts[eventType])
	}
	fmt.Fprintln(rt.stdout)
}

// source picks the loader for a file by its extension
func (rt *runtime) source(filename string) (tabular.Source, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return csv.NewLoader(), nil
	case ".xlsx":
		return xlsx.NewLoader(rt.settings.Sheet), nil
	default:
		return nil, fmt.Errorf("unsupported input file type: %s", filename)
	}
}

// readTables loads every input table concurrently. Optional inputs without a path are skipped.
func (rt *runtime) readTables(ctx context.Context, files []inputFile) (map[string]tabular.Table, error) {
	var mu sync.Mutex
	tables := make(map[string]tabular.Table, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		if file.path == "" {
			continue
		}
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			source, err := rt.source(file.path)
			if err != nil {
				return err
			}
			table, err := source.ReadTable(file.dataset, file.path)
			if err != nil {
				return err
			}

			rt.logger.Debug("table loaded",
				zap.String("dataset", file.dataset),
				zap.String("path", file.path),
				zap.Int("rows", len(table.Rows)))

			mu.Lock()
			tables[file.dataset] = table
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// resolveInputFiles fills paths from the scenario directory where none was given
// and checks that every required file exists
func resolveInputFiles(scenarioDir string, files []inputFile) ([]inputFile, error) {
	resolved := make([]inputFile, len(files))
	for i, file := range files {
		if file.path == "" && scenarioDir != "" {
			file.path = scenarioFile(scenarioDir, file.dataset)
		}
		if file.path == "" {
			if !file.optional {
				return nil, fmt.Errorf("no %s file given: use -scenario or the %s flag", file.dataset, flagName(file.dataset))
			}
		} else if _, err := os.Stat(file.path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", file.dataset, file.path)
		}
		resolved[i] = file
	}
	return resolved, nil
}

// scenarioFile finds <dataset>.xlsx or <dataset>.csv in a scenario directory
func scenarioFile(dir, dataset string) string {
	for _, ext := range []string{".xlsx", ".csv"} {
		path := filepath.Join(dir, dataset+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func flagName(dataset string) string {
	return "-" + strings.ReplaceAll(dataset, "_", "-")
}

func (rt *runtime) printInputs(title string, files []inputFile, format, outputDir string) {
	fmt.Fprintf(rt.stdout, "🚀 %s\n", title)
	fmt.Fprintf(rt.stdout, "Input files:\n")
	for _, file := range files {
		path := file.path
		if path == "" {
			path = "(none)"
		}
		fmt.Fprintf(rt.stdout, "  %s: %s\n", file.dataset, path)
	}
	fmt.Fprintf(rt.stdout, "Output format: %s\n", format)
	if outputDir != "" {
		fmt.Fprintf(rt.stdout, "Output directory: %s\n", outputDir)
	}
	fmt.Fprintln(rt.stdout)
}
