package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vsinha/reconcile/pkg/application/dto"
	"github.com/vsinha/reconcile/pkg/domain/entities"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration
	Stdout    io.Writer
}

func (c Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// GenerateReconciliation writes the reports of a reconciliation run in the configured format
func GenerateReconciliation(result *dto.ReconciliationResult, config Config) error {
	reports := ReconciliationReports(result)
	switch config.Format {
	case FormatText:
		w := config.stdout()
		fmt.Fprintf(w, "📊 Reconciliation Results Summary\n")
		fmt.Fprintf(w, "=================================\n\n")
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
		fmt.Fprintf(w, "Today: %s\n", formatDate(result.Today))
		fmt.Fprintf(w, "Orders: %d (%d pass, %d fail)\n", len(result.Groups), countPass(result), len(result.Groups)-countPass(result))
		fmt.Fprintf(w, "Lines: %d\n", len(result.Lines))
		fmt.Fprintf(w, "Parts short: %d\n", len(result.Shortages))
		fmt.Fprintf(w, "Past due: %d new, %d firm\n", len(result.PastDueNewDemand), len(result.PastDueFirmDemand))
		fmt.Fprintf(w, "Unmapped identifiers: %d new, %d firm\n", len(result.Unmapped.NewDemand), len(result.Unmapped.FirmDemand))
		fmt.Fprintf(w, "Elapsed: %v\n\n", config.Elapsed)
		return writeText(w, reports, config)
	case FormatJSON:
		return writeJSON(result, "reconciliation.json", config)
	case FormatCSV:
		return writeCSV(reports, config)
	case FormatXLSX:
		return writeXLSX(reports, "reconciliation.xlsx", config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateMatching writes the reports of a FIFO matching run in the configured format
func GenerateMatching(result *dto.MatchingResult, config Config) error {
	reports := MatchingReports(result)
	switch config.Format {
	case FormatText:
		w := config.stdout()
		s := result.Summary
		fmt.Fprintf(w, "📦 Matching Results Summary\n")
		fmt.Fprintf(w, "===========================\n\n")
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
		fmt.Fprintf(w, "Requests: %d\n", s.Requests)
		fmt.Fprintf(w, "Rows: %d matched, %d split, %d unmatched-partial, %d no-match\n",
			s.Matched, s.Split, s.UnmatchedParts, s.NoMatch)
		fmt.Fprintf(w, "Quantity: %s requested, %s consumed, %s short\n",
			s.TotalRequested, s.TotalConsumed, s.TotalShortfall)
		fmt.Fprintf(w, "Unmapped identifiers: %d\n", len(result.Unmapped))
		fmt.Fprintf(w, "Elapsed: %v\n\n", config.Elapsed)
		return writeText(w, reports, config)
	case FormatJSON:
		return writeJSON(result, "matching.json", config)
	case FormatCSV:
		return writeCSV(reports, config)
	case FormatXLSX:
		return writeXLSX(reports, "matching.xlsx", config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func countPass(result *dto.ReconciliationResult) int {
	pass := 0
	for _, g := range result.Groups {
		if g.Status == entities.GroupPass {
			pass++
		}
	}
	return pass
}

// writeText prints each non-empty report as an aligned table. Empty reports are
// listed only in verbose mode.
func writeText(w io.Writer, reports []Report, config Config) error {
	for _, report := range reports {
		if len(report.Rows) == 0 {
			if config.Verbose {
				fmt.Fprintf(w, "%s: none\n\n", report.Name)
			}
			continue
		}

		widths := make([]int, len(report.Header))
		for i, name := range report.Header {
			widths[i] = utf8.RuneCountInString(name)
		}
		for _, row := range report.Rows {
			for i, cell := range row {
				if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
					widths[i] = utf8.RuneCountInString(cell)
				}
			}
		}

		fmt.Fprintf(w, "%s:\n", report.Name)
		printRow(w, report.Header, widths)
		rule := make([]string, len(widths))
		for i, width := range widths {
			rule[i] = strings.Repeat("-", width)
		}
		printRow(w, rule, widths)
		for _, row := range report.Rows {
			printRow(w, row, widths)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " "), " "))
}

// writeJSON prints the whole result, or saves it when an output directory is set
func writeJSON(result interface{}, name string, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.stdout(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// writeCSV saves one file per report
func writeCSV(reports []Report, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, report := range reports {
		filename := filepath.Join(config.OutputDir, report.File)
		if err := writeReportCSV(report, filename); err != nil {
			return fmt.Errorf("failed to write %s CSV: %w", report.Name, err)
		}
		written = append(written, filename)
	}

	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 CSV results saved to:\n")
		for i, report := range reports {
			fmt.Fprintf(config.stdout(), "  %s: %s\n", report.Name, written[i])
		}
	}
	return nil
}

func writeReportCSV(report Report, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(report.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(report.Rows); err != nil {
		return err
	}
	return file.Close()
}
