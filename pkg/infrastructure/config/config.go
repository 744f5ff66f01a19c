// Package config holds the optional YAML configuration of the reconcile commands
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/tabular"
)

// DefaultSheet is the worksheet read from every workbook unless configured otherwise
const DefaultSheet = "Sheet1"

const todayLayout = "2006-01-02"

// Config is the file-level configuration. Every field is optional in the file.
type Config struct {
	Sheet       string                         `yaml:"sheet"`
	DateLayouts []string                       `yaml:"date_layouts"`
	Columns     map[string]map[string][]string `yaml:"columns"`
	Limits      Limits                         `yaml:"limits"`
	Log         Log                            `yaml:"log"`
	Today       string                         `yaml:"today"`
}

// Limits bounds the size of one run. Zero means unlimited.
type Limits struct {
	MaxGroups   int `yaml:"max_groups"`
	MaxLines    int `yaml:"max_lines"`
	MaxRequests int `yaml:"max_requests"`
	MaxRecords  int `yaml:"max_records"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration, which accepts both the
// snake_case column names and the SAP report headers (MB52, COOIS, ZCO41)
func Default() *Config {
	return &Config{
		Sheet: DefaultSheet,
		DateLayouts: []string{
			"2006-01-02",
			"2006-01-02 15:04:05",
			time.RFC3339,
			"01/02/2006",
			"1/2/2006",
			"01-02-06",
			"02.01.2006",
			"2006/01/02",
		},
		Columns: map[string]map[string][]string{
			tabular.DatasetSupply: {
				tabular.FieldPartNumber: {"Material description", "Non Custom"},
				tabular.FieldQuantity:   {"Open Quantity"},
			},
			tabular.DatasetFirmDemand: {
				tabular.FieldGroupID:  {"Sales Order"},
				tabular.FieldCustomID: {"Material description", "Custom"},
				tabular.FieldQuantity: {"Order quantity (GMEIN)"},
				tabular.FieldShipDate: {"Est. Ship Date"},
			},
			tabular.DatasetNewDemand: {
				tabular.FieldGroupID:  {"Sales Order"},
				tabular.FieldCustomID: {"Material description", "Custom"},
				tabular.FieldQuantity: {"Pln.Or Qty"},
				tabular.FieldShipDate: {"Estimated Ship Date"},
			},
			tabular.DatasetCrossReference: {
				tabular.FieldCustomID:   {"Custom"},
				tabular.FieldPartNumber: {"Non Custom"},
			},
			tabular.DatasetBalances: {
				tabular.FieldRecordID:     {"id", "lot"},
				tabular.FieldPriorityDate: {"date", "receipt_date"},
			},
			tabular.DatasetRequests: {
				tabular.FieldRequestRef: {"reference", "order"},
				tabular.FieldCustomID:   {"part_number"},
			},
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file and merges it over the defaults.
// Column aliases replace the defaults per field; other fields keep theirs.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg := Default()
	cfg.merge(&file)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(file *Config) {
	if file.Sheet != "" {
		c.Sheet = file.Sheet
	}
	if len(file.DateLayouts) > 0 {
		c.DateLayouts = file.DateLayouts
	}
	for dataset, fields := range file.Columns {
		if c.Columns[dataset] == nil {
			c.Columns[dataset] = make(map[string][]string)
		}
		for field, aliases := range fields {
			c.Columns[dataset][field] = aliases
		}
	}
	if file.Limits != (Limits{}) {
		c.Limits = file.Limits
	}
	if file.Log.Level != "" {
		c.Log.Level = file.Log.Level
	}
	if file.Log.Format != "" {
		c.Log.Format = file.Log.Format
	}
	if file.Today != "" {
		c.Today = file.Today
	}
}

// Validate reports every nonsensical setting at once
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Sheet) == "" {
		errs = append(errs, errors.New("sheet cannot be empty"))
	}
	if len(c.DateLayouts) == 0 {
		errs = append(errs, errors.New("at least one date layout is required"))
	}
	if c.Limits.MaxGroups < 0 || c.Limits.MaxLines < 0 || c.Limits.MaxRequests < 0 || c.Limits.MaxRecords < 0 {
		errs = append(errs, fmt.Errorf("limits cannot be negative: %+v", c.Limits))
	}
	if _, err := c.TodayDate(); err != nil {
		errs = append(errs, err)
	}

	known := make(map[string]bool)
	for _, dataset := range tabular.Datasets() {
		known[dataset] = true
	}
	for dataset, fields := range c.Columns {
		if !known[dataset] {
			errs = append(errs, fmt.Errorf("unknown dataset %q in columns", dataset))
			continue
		}
		valid := make(map[string]bool)
		for _, field := range tabular.Fields(dataset) {
			valid[field.Name] = true
		}
		for field := range fields {
			if !valid[field] {
				errs = append(errs, fmt.Errorf("unknown field %q for dataset %s", field, dataset))
			}
		}
	}

	return errors.Join(errs...)
}

// TodayDate returns the configured reference day, or the zero time when none is set
func (c *Config) TodayDate() (time.Time, error) {
	if strings.TrimSpace(c.Today) == "" {
		return time.Time{}, nil
	}
	today, err := time.Parse(todayLayout, strings.TrimSpace(c.Today))
	if err != nil {
		return time.Time{}, fmt.Errorf("today must be formatted as %s: %w", todayLayout, err)
	}
	return today, nil
}
