package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/vsinha/reconcile/pkg/interfaces/cli/commands"
)

type command interface {
	Execute(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args[1:]
	var cmd command
	var err error
	switch {
	case len(args) > 0 && args[0] == "match":
		cmd, err = parseMatch(args[1:])
	case len(args) > 0 && args[0] == "generate":
		cmd, err = parseGenerate(args[1:])
	case len(args) > 0 && args[0] == "reconcile":
		cmd, err = parseReconcile(args[1:])
	default:
		cmd, err = parseReconcile(args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags registers the flags shared by reconcile and match
func commonFlags(fs *flag.FlagSet, config *commands.Config) {
	fs.StringVar(&config.ScenarioDir, "scenario", "", "Path to scenario directory containing .xlsx or .csv tables")
	fs.StringVar(&config.CrossRefFile, "cross-reference", "", "Path to custom to canonical cross-reference table")
	fs.StringVar(&config.ConfigFile, "config", "", "Path to YAML settings file")
	fs.StringVar(&config.Sheet, "sheet", "", "Worksheet read from .xlsx inputs")
	fs.StringVar(&config.OutputDir, "output", "", "Output directory for results")
	fs.StringVar(&config.Format, "format", "text", "Output format: text, json, csv, xlsx")
	fs.StringVar(&config.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&config.Verbose, "verbose", false, "Enable verbose output")
	fs.BoolVar(&config.Help, "help", false, "Show help message")
}

func parseReconcile(args []string) (command, error) {
	var config commands.Config
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	commonFlags(fs, &config)
	fs.StringVar(&config.SupplyFile, "supply", "", "Path to on-hand inventory table")
	fs.StringVar(&config.FirmDemandFile, "firm-demand", "", "Path to firm demand table")
	fs.StringVar(&config.NewDemandFile, "new-demand", "", "Path to new demand table")
	fs.StringVar(&config.Today, "today", "", "Reference day for past-due reports (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return commands.NewReconcileCommand(config), nil
}

func parseMatch(args []string) (command, error) {
	var config commands.Config
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	commonFlags(fs, &config)
	fs.StringVar(&config.BalancesFile, "balances", "", "Path to balance records table")
	fs.StringVar(&config.RequestsFile, "requests", "", "Path to delivery requests table")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return commands.NewMatchCommand(config), nil
}

func parseGenerate(args []string) (command, error) {
	var config commands.GenerateConfig
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.IntVar(&config.Parts, "parts", 50, "Number of canonical parts")
	fs.IntVar(&config.Orders, "orders", 100, "Number of new demand orders")
	fs.IntVar(&config.FirmOrders, "firm-orders", 40, "Number of firm demand orders")
	fs.IntVar(&config.MaxLines, "max-lines", 4, "Maximum lines per order")
	fs.Float64Var(&config.Inventory, "inventory", 0.8, "Supply as a multiple of total demand")
	fs.Float64Var(&config.Unmapped, "unmapped", 0.05, "Fraction of custom identifiers left out of the cross-reference")
	fs.IntVar(&config.Records, "records", 3, "Balance records per part")
	fs.IntVar(&config.Requests, "requests", 100, "Number of delivery requests")
	fs.StringVar(&config.OutputDir, "output", "", "Output directory for generated files")
	fs.Int64Var(&config.Seed, "seed", 0, "Random seed (0 uses the current time)")
	fs.BoolVar(&config.Verbose, "verbose", false, "Enable verbose output")
	fs.BoolVar(&config.Help, "help", false, "Show help message")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return commands.NewGenerateCommand(config), nil
}
