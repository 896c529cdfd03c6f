package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/sinkbom/pkg/infrastructure/config"
	"github.com/vsinha/sinkbom/pkg/infrastructure/logging"
	"github.com/vsinha/sinkbom/pkg/interfaces/cli/commands"
)

func main() {
	defaults := config.Default()

	// Command line flags
	var (
		envFile          = flag.String("env", "", "Environment file with BOMGEN_* settings (default: .env)")
		catalogDir       = flag.String("catalog", defaults.CatalogDir, "Path to catalog directory")
		orderFile        = flag.String("order", "", "Path to order JSON file")
		outputDir        = flag.String("output", "", "Output directory for results (optional)")
		format           = flag.String("format", "text", "Output format: text, json, csv, xlsx")
		verbose          = flag.Bool("verbose", false, "Enable verbose output")
		partialSuccess   = flag.Bool("partial", false, "Return surviving builds when some builds fail")
		collectAllErrors = flag.Bool("collect-errors", false, "Keep expanding sibling branches after a catalog error")
		maxDepth         = flag.Int("max-depth", defaults.MaxDepth, "Maximum assembly nesting depth")
		workers          = flag.Int("workers", 0, "Builds processed concurrently (0: CPU count)")
		whereUsed        = flag.String("where-used", "", "List assemblies that use a part")
		search           = flag.String("search", "", "Search the catalog")
		logLevel         = flag.String("log-level", "", "Log level: debug, info, warn, error")
		help             = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	settings, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line win over the environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "catalog":
			settings.CatalogDir = *catalogDir
		case "partial":
			settings.PartialSuccess = *partialSuccess
		case "collect-errors":
			settings.CollectAllErrors = *collectAllErrors
		case "max-depth":
			settings.MaxDepth = *maxDepth
		case "workers":
			settings.Workers = *workers
		case "log-level":
			settings.LogLevel = *logLevel
		}
	})
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Console output is the report; the log only carries warnings unless asked for more
	level := settings.LogLevel
	if !*verbose && level == "info" {
		level = "warn"
	}
	logger, err := logging.NewLogger(logging.Config{Level: level, Format: settings.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	// Create command configuration
	cmdConfig := commands.Config{
		CatalogDir:       settings.CatalogDir,
		OrderFile:        *orderFile,
		OutputDir:        *outputDir,
		Format:           *format,
		Verbose:          *verbose,
		PartialSuccess:   settings.PartialSuccess,
		CollectAllErrors: settings.CollectAllErrors,
		MaxDepth:         settings.MaxDepth,
		Workers:          settings.Workers,
		WhereUsed:        *whereUsed,
		Search:           *search,
		Help:             *help,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create and execute command
	cmd := commands.NewBOMCommand(cmdConfig, logger)
	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
