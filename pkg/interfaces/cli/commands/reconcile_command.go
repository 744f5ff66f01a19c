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

// ReconcileCommand evaluates new demand against inventory net of firm demand
type ReconcileCommand struct {
	config Config
}

// NewReconcileCommand creates a new reconcile command with the given configuration
func NewReconcileCommand(config Config) *ReconcileCommand {
	return &ReconcileCommand{
		config: config,
	}
}

// Execute runs the reconcile command
func (c *ReconcileCommand) Execute(ctx context.Context) error {
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
		{dataset: tabular.DatasetSupply, path: c.config.SupplyFile},
		{dataset: tabular.DatasetFirmDemand, path: c.config.FirmDemandFile},
		{dataset: tabular.DatasetNewDemand, path: c.config.NewDemandFile},
		{dataset: tabular.DatasetCrossReference, path: c.config.CrossRefFile},
	})
	if err != nil {
		return fmt.Errorf("failed to resolve input files: %w", err)
	}

	if c.config.Verbose {
		rt.printInputs("Demand Reconciliation", files, c.config.Format, c.config.OutputDir)
		fmt.Fprintln(rt.stdout, "📂 Loading input tables...")
	}

	tables, err := rt.readTables(ctx, files)
	if err != nil {
		return fmt.Errorf("error loading input: %w", err)
	}

	if err := rt.reader.Validate(
		tables[tabular.DatasetSupply],
		tables[tabular.DatasetFirmDemand],
		tables[tabular.DatasetNewDemand],
		tables[tabular.DatasetCrossReference],
	); err != nil {
		rt.logger.Error("input validation failed", zap.Error(err))
		return fmt.Errorf("input validation failed: %w", err)
	}

	input, err := c.buildInput(rt, tables)
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintf(rt.stdout, "✅ Data loaded successfully:\n")
		fmt.Fprintf(rt.stdout, "  Supply rows: %d\n", len(input.Supply))
		fmt.Fprintf(rt.stdout, "  Firm demand lines: %d\n", len(input.FirmDemand))
		fmt.Fprintf(rt.stdout, "  New demand lines: %d\n", len(input.NewDemand))
		fmt.Fprintf(rt.stdout, "  Cross references: %d\n", len(input.CrossReferences))
		fmt.Fprintf(rt.stdout, "  Diagnostics: %d\n", len(input.Diagnostics))
		fmt.Fprintln(rt.stdout)
		fmt.Fprintln(rt.stdout, "🔄 Evaluating orders...")
	}

	startTime := time.Now()
	result, err := rt.orchestrator().Reconcile(ctx, input)
	elapsed := time.Since(startTime)
	if err != nil {
		return fmt.Errorf("error running reconciliation: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(rt.stdout, "✅ Reconciliation completed in %v\n\n", elapsed)
		rt.printEvents(result.RunID)
	}

	err = output.GenerateReconciliation(result, output.Config{
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
		fmt.Fprintln(rt.stdout, "🏁 Reconciliation complete!")
	}
	return nil
}

func (c *ReconcileCommand) buildInput(rt *runtime, tables map[string]tabular.Table) (dto.ReconcileInput, error) {
	var input dto.ReconcileInput
	var diagnostics []entities.Diagnostic

	supply, d, err := rt.reader.Supply(tables[tabular.DatasetSupply])
	if err != nil {
		return input, fmt.Errorf("error reading supply: %w", err)
	}
	diagnostics = append(diagnostics, d...)

	firm, d, err := rt.reader.DemandLines(tables[tabular.DatasetFirmDemand])
	if err != nil {
		return input, fmt.Errorf("error reading firm demand: %w", err)
	}
	diagnostics = append(diagnostics, d...)

	lines, d, err := rt.reader.DemandLines(tables[tabular.DatasetNewDemand])
	if err != nil {
		return input, fmt.Errorf("error reading new demand: %w", err)
	}
	diagnostics = append(diagnostics, d...)

	xrefs, err := rt.reader.CrossReferences(tables[tabular.DatasetCrossReference])
	if err != nil {
		return input, fmt.Errorf("error reading cross reference: %w", err)
	}

	today, err := rt.settings.TodayDate()
	if err != nil {
		return input, err
	}

	for _, diagnostic := range diagnostics {
		rt.logger.Debug("input diagnostic", zap.Stringer("diagnostic", diagnostic))
	}

	return dto.ReconcileInput{
		Supply:          supply,
		FirmDemand:      firm,
		NewDemand:       lines,
		CrossReferences: xrefs,
		Today:           today,
		Diagnostics:     diagnostics,
	}, nil
}

// showHelp displays the help message
func (c *ReconcileCommand) showHelp(rt *runtime) {
	fmt.Fprintf(rt.stdout, `Demand Reconciliation - release new orders against inventory net of firm demand

USAGE:
    reconcile -scenario <directory>                  # Use scenario directory
    reconcile -supply <file> -firm-demand <file> ... # Use individual files
    reconcile match ...                              # FIFO matching, see reconcile match -help
    reconcile generate ...                           # Synthetic scenarios, see reconcile generate -help

OPTIONS:
    -scenario <dir>          Directory holding supply, firm_demand, new_demand and cross_reference (.xlsx or .csv)
    -supply <file>           On-hand inventory (MB52)
    -firm-demand <file>      Firm demand already committed (COOIS)
    -new-demand <file>       New demand to evaluate (ZCO41)
    -cross-reference <file>  Custom to canonical identifier table
    -config <file>           YAML settings: column names, sheet, date layouts, limits, logging
    -sheet <name>            Worksheet read from .xlsx inputs (default: Sheet1)
    -today <YYYY-MM-DD>      Reference day for past-due reports (default: current day)
    -output <dir>            Output directory for results (required for csv and xlsx)
    -format <fmt>            Output format: text, json, csv, xlsx (default: text)
    -log-level <level>       Log level: debug, info, warn, error (default: info)
    -verbose                 Enable verbose output
    -help                    Show this help message

REQUIRED COLUMNS (header names are matched trimmed and case-insensitively):
    supply:          part_number | Material description, quantity | Open Quantity
    firm_demand:     group_id | Sales Order, custom_id | Material description,
                     quantity | Order quantity (GMEIN), ship_date | Est. Ship Date
    new_demand:      group_id | Sales Order, custom_id | Material description,
                     quantity | Pln.Or Qty, ship_date | Estimated Ship Date
    cross_reference: custom_id | Custom, part_number | Non Custom

EXAMPLES:
    # Reconcile SAP exports and write one workbook
    reconcile -scenario ./exports -format xlsx -output ./results

    # Reproduce a past run
    reconcile -scenario ./exports -today 2024-06-01 -verbose
`)
}
