package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/tabular"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Parts      int     // Number of canonical parts
	Orders     int     // Number of new demand orders
	FirmOrders int     // Number of firm demand orders
	MaxLines   int     // Maximum lines per order
	Inventory  float64 // Supply multiplier over total demand (e.g., 0.5 = half coverage)
	Unmapped   float64 // Fraction of custom identifiers left out of the cross-reference
	Records    int     // Balance records per part for matching
	Requests   int     // Number of delivery requests for matching
	OutputDir  string  // Output directory for generated files
	Seed       int64   // Random seed for reproducible generation
	Help       bool    // Show help
	Verbose    bool    // Verbose output
	Stdout     io.Writer
}

// GenerateCommand writes a synthetic scenario directory readable by the reconcile and match commands
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	stdout io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	stdout := config.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		stdout: stdout,
	}
}

// scenarioLine is one generated order line
type scenarioLine struct {
	order    string
	part     int
	qty      int
	shipDate time.Time
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}

	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.stdout,
			"🔧 Generating scenario with %d parts, %d orders, %d firm orders, %.1fx inventory\n",
			cmd.config.Parts,
			cmd.config.Orders,
			cmd.config.FirmOrders,
			cmd.config.Inventory,
		)
		fmt.Fprintf(cmd.stdout, "📁 Output directory: %s\n", cmd.config.OutputDir)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	baseDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	firm := cmd.generateOrders("FO", cmd.config.FirmOrders, baseDate)
	orders := cmd.generateOrders("SO", cmd.config.Orders, baseDate)

	steps := []struct {
		name  string
		write func() error
	}{
		{tabular.DatasetCrossReference, cmd.generateCrossReference},
		{tabular.DatasetFirmDemand, func() error { return cmd.writeOrders(tabular.DatasetFirmDemand, firm) }},
		{tabular.DatasetNewDemand, func() error { return cmd.writeOrders(tabular.DatasetNewDemand, orders) }},
		{tabular.DatasetSupply, func() error { return cmd.generateSupply(append(firm, orders...)) }},
		{tabular.DatasetBalances, func() error { return cmd.generateBalances(baseDate) }},
		{tabular.DatasetRequests, cmd.generateRequests},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cmd.config.Verbose {
			fmt.Fprintf(cmd.stdout, "📦 Generating %s.csv...\n", step.name)
		}
		if err := step.write(); err != nil {
			return fmt.Errorf("failed to generate %s: %w", step.name, err)
		}
	}

	if cmd.config.Verbose {
		fmt.Fprintln(cmd.stdout, "✅ Scenario generated")
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	switch {
	case cmd.config.OutputDir == "":
		return fmt.Errorf("output directory is required")
	case cmd.config.Parts <= 0:
		return fmt.Errorf("parts must be positive, got %d", cmd.config.Parts)
	case cmd.config.MaxLines <= 0:
		return fmt.Errorf("max lines must be positive, got %d", cmd.config.MaxLines)
	case cmd.config.Orders < 0 || cmd.config.FirmOrders < 0 || cmd.config.Requests < 0 || cmd.config.Records < 0:
		return fmt.Errorf("counts cannot be negative")
	case cmd.config.Inventory < 0:
		return fmt.Errorf("inventory multiplier cannot be negative, got %.2f", cmd.config.Inventory)
	case cmd.config.Unmapped < 0 || cmd.config.Unmapped > 1:
		return fmt.Errorf("unmapped fraction must be within [0, 1], got %.2f", cmd.config.Unmapped)
	}
	return nil
}

func partNumber(i int) string { return fmt.Sprintf("PN-%05d", i) }

func customID(i int) string { return fmt.Sprintf("C-%05d", i) }

// generateOrders creates orders of one to MaxLines lines with ship dates within half a year
func (cmd *GenerateCommand) generateOrders(prefix string, count int, baseDate time.Time) []scenarioLine {
	var lines []scenarioLine
	for i := 0; i < count; i++ {
		order := fmt.Sprintf("%s-%06d", prefix, i+1)
		shipDate := baseDate.AddDate(0, 0, cmd.rand.Intn(180))
		for n := 1 + cmd.rand.Intn(cmd.config.MaxLines); n > 0; n-- {
			lines = append(lines, scenarioLine{
				order:    order,
				part:     cmd.rand.Intn(cmd.config.Parts),
				qty:      1 + cmd.rand.Intn(10),
				shipDate: shipDate.AddDate(0, 0, cmd.rand.Intn(7)),
			})
		}
	}
	return lines
}

func (cmd *GenerateCommand) generateCrossReference() error {
	rows := [][]string{{tabular.FieldCustomID, tabular.FieldPartNumber}}
	for i := 0; i < cmd.config.Parts; i++ {
		if cmd.rand.Float64() < cmd.config.Unmapped {
			continue
		}
		rows = append(rows, []string{customID(i), partNumber(i)})
	}
	return cmd.writeCSV(tabular.DatasetCrossReference, rows)
}

func (cmd *GenerateCommand) writeOrders(dataset string, lines []scenarioLine) error {
	rows := [][]string{{tabular.FieldGroupID, tabular.FieldCustomID, tabular.FieldQuantity, tabular.FieldShipDate}}
	for _, line := range lines {
		rows = append(rows, []string{
			line.order, customID(line.part), strconv.Itoa(line.qty), line.shipDate.Format("2006-01-02"),
		})
	}
	return cmd.writeCSV(dataset, rows)
}

// generateSupply sizes on-hand inventory from the total demand of each part
func (cmd *GenerateCommand) generateSupply(lines []scenarioLine) error {
	totals := make([]int, cmd.config.Parts)
	for _, line := range lines {
		totals[line.part] += line.qty
	}

	rows := [][]string{{tabular.FieldPartNumber, tabular.FieldQuantity}}
	for i, total := range totals {
		qty := int(float64(total) * cmd.config.Inventory)
		if qty <= 0 {
			continue
		}
		rows = append(rows, []string{partNumber(i), strconv.Itoa(qty)})
	}
	return cmd.writeCSV(tabular.DatasetSupply, rows)
}

func (cmd *GenerateCommand) generateBalances(baseDate time.Time) error {
	rows := [][]string{{tabular.FieldRecordID, tabular.FieldPartNumber, tabular.FieldPriorityDate, tabular.FieldQuantity, "warehouse"}}
	id := 1
	for i := 0; i < cmd.config.Parts; i++ {
		for r := 0; r < cmd.config.Records; r++ {
			receipt := baseDate.AddDate(0, 0, -cmd.rand.Intn(365))
			rows = append(rows, []string{
				fmt.Sprintf("LOT-%06d", id),
				partNumber(i),
				receipt.Format("2006-01-02"),
				strconv.Itoa(1 + cmd.rand.Intn(20)),
				cmd.generateLocation(),
			})
			id++
		}
	}
	return cmd.writeCSV(tabular.DatasetBalances, rows)
}

func (cmd *GenerateCommand) generateRequests() error {
	rows := [][]string{{tabular.FieldRequestRef, tabular.FieldCustomID, tabular.FieldQuantity, "customer"}}
	for i := 0; i < cmd.config.Requests; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("DN-%06d", i+1),
			customID(cmd.rand.Intn(cmd.config.Parts)),
			strconv.Itoa(1 + cmd.rand.Intn(15)),
			fmt.Sprintf("CUST-%03d", 1+cmd.rand.Intn(50)),
		})
	}
	return cmd.writeCSV(tabular.DatasetRequests, rows)
}

func (cmd *GenerateCommand) writeCSV(dataset string, rows [][]string) error {
	file, err := os.Create(filepath.Join(cmd.config.OutputDir, dataset+".csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

// generateLocation creates realistic warehouse names
func (cmd *GenerateCommand) generateLocation() string {
	locations := []string{
		"FACTORY_A",
		"FACTORY_B",
		"WAREHOUSE_1",
		"WAREHOUSE_2",
		"PLANT_NORTH",
		"PLANT_SOUTH",
	}
	return locations[cmd.rand.Intn(len(locations))]
}

// printHelp shows usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintln(cmd.stdout, `Reconcile Scenario Generator

USAGE:
    reconcile generate [OPTIONS]

OPTIONS:
    -parts <N>          Number of canonical parts (default: 50)
    -orders <N>         Number of new demand orders (default: 100)
    -firm-orders <N>    Number of firm demand orders (default: 40)
    -max-lines <N>      Maximum lines per order (default: 4)
    -inventory <F>      Supply multiplier over total demand (e.g., 0.5 = half coverage) (default: 0.8)
    -unmapped <F>       Fraction of custom identifiers missing from the cross-reference (default: 0.05)
    -records <N>        Balance records per part for matching (default: 3)
    -requests <N>       Number of delivery requests for matching (default: 100)
    -output <DIR>       Output directory for generated files (required)
    -seed <N>           Random seed for reproducible generation (optional)
    -verbose            Enable verbose output
    -help               Show this help message

EXAMPLES:
    # Generate a small scenario and reconcile it
    reconcile generate -output ./scenario -seed 42
    reconcile -scenario ./scenario

    # Generate a tight-inventory scenario and run FIFO matching on it
    reconcile generate -inventory 0.3 -records 1 -output ./tight
    reconcile match -scenario ./tight`)
}
