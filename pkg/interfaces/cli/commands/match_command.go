package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/reconcile/pkg/application/dto"
	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/tabular"
	"github.com/vsinha/reconcile/pkg/interfaces/cli/output"
)

// MatchCommand allocates delivery requests against balance records first in, first out
type MatchCommand struct {
	config Config
}

// NewMatchCommand creates a new match command with the given configuration
func NewMatchCommand(config Config) *MatchCommand {
	return &MatchCommand{
		config: config,
	}
}

// Execute runs the match command
func (c *MatchCommand) Execute(ctx context.Context) error {
	rt, err := newRuntime(c.config)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	defer rt.close()

	if c.config.Help {
		c.showHelp(rt)
		return nil
	}

	files, err := resolveInputFiles(c.config.ScenarioDir, []inputFile{
		{dataset: tabular.DatasetBalances, path: c.config.BalancesFile},
		{dataset: tabular.DatasetRequests, path: c.config.RequestsFile},
		{dataset: tabular.DatasetCrossReference, path: c.config.CrossRefFile, optional: true},
	})
	if err != nil {
		return fmt.Errorf("failed to resolve input files: %w", err)
	}

	if c.config.Verbose {
		rt.printInputs("FIFO Matching", files, c.config.Format, c.config.OutputDir)
		fmt.Fprintln(rt.stdout, "📂 Loading input tables...")
	}

	tables, err := rt.readTables(ctx, files)
	if err != nil {
		return fmt.Errorf("error loading input: %w", err)
	}

	toValidate := []tabular.Table{tables[tabular.DatasetBalances], tables[tabular.DatasetRequests]}
	if xref, ok := tables[tabular.DatasetCrossReference]; ok {
		toValidate = append(toValidate, xref)
	}
	if err := rt.reader.Validate(toValidate...); err != nil {
		rt.logger.Error("input validation failed", zap.Error(err))
		return fmt.Errorf("input validation failed: %w", err)
	}

	input, err := c.buildInput(rt, tables)
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintf(rt.stdout, "✅ Data loaded successfully:\n")
		fmt.Fprintf(rt.stdout, "  Balance records: %d\n", len(input.Balances))
		fmt.Fprintf(rt.stdout, "  Requests: %d\n", len(input.Requests))
		fmt.Fprintf(rt.stdout, "  Cross references: %d\n", len(input.CrossReferences))
		fmt.Fprintln(rt.stdout)
		fmt.Fprintln(rt.stdout, "🔄 Matching requests...")
	}

	startTime := time.Now()
	result, err := rt.orchestrator().Match(ctx, input)
	elapsed := time.Since(startTime)
	if err != nil {
		return fmt.Errorf("error running matching: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(rt.stdout, "✅ Matching completed in %v\n\n", elapsed)
		rt.printEvents(result.RunID)
	}

	err = output.GenerateMatching(result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Elapsed:   elapsed,
		Stdout:    rt.stdout,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintln(rt.stdout, "🏁 Matching complete!")
	}
	return nil
}

func (c *MatchCommand) buildInput(rt *runtime, tables map[string]tabular.Table) (dto.MatchInput, error) {
	var input dto.MatchInput
	var diagnostics []entities.Diagnostic

	balances, d, err := rt.reader.Balances(tables[tabular.DatasetBalances])
	if err != nil {
		return input, fmt.Errorf("error reading balances: %w", err)
	}
	diagnostics = append(diagnostics, d...)

	requests, d, err := rt.reader.Requests(tables[tabular.DatasetRequests])
	if err != nil {
		return input, fmt.Errorf("error reading requests: %w", err)
	}
	diagnostics = append(diagnostics, d...)

	var xrefs []entities.CrossReference
	if table, ok := tables[tabular.DatasetCrossReference]; ok {
		xrefs, err = rt.reader.CrossReferences(table)
		if err != nil {
			return input, fmt.Errorf("error reading cross reference: %w", err)
		}
	}

	return dto.MatchInput{
		Balances:        balances,
		Requests:        requests,
		CrossReferences: xrefs,
		Diagnostics:     diagnostics,
	}, nil
}

// showHelp displays the help message
func (c *MatchCommand) showHelp(rt *runtime) {
	fmt.Fprintf(rt.stdout, `FIFO Matching - allocate delivery requests against balance records in priority order

USAGE:
    reconcile match -scenario <directory>
    reconcile match -balances <file> -requests <file> [-cross-reference <file>]

OPTIONS:
    -scenario <dir>          Directory holding balances, requests and optionally cross_reference (.xlsx or .csv)
    -balances <file>         Balance records: record_id (optional), part_number, priority_date, quantity
    -requests <file>         Requests in processing order: request_ref, custom_id, quantity
    -cross-reference <file>  Optional custom to canonical identifier table
    -config <file>           YAML settings: column names, sheet, date layouts, limits, logging
    -sheet <name>            Worksheet read from .xlsx inputs (default: Sheet1)
    -output <dir>            Output directory for results (required for csv and xlsx)
    -format <fmt>            Output format: text, json, csv, xlsx (default: text)
    -log-level <level>       Log level: debug, info, warn, error (default: info)
    -verbose                 Enable verbose output
    -help                    Show this help message

Any other columns of the balance and request tables are carried through to the output.

A request is served whole by the first record, in priority order, that can cover it.
Only when no single record suffices is it split across records; what remains is
reported as unmatched-partial. Requests for parts without records are no-match.
`)
}
