package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/sinkbom/pkg/application/dto"
	"github.com/vsinha/sinkbom/pkg/application/services/bom"
	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/infrastructure/catalogstore"
	"github.com/vsinha/sinkbom/pkg/interfaces/cli/output"
)

// Config holds configuration for the BOM command
type Config struct {
	CatalogDir       string
	OrderFile        string
	OutputDir        string
	Format           string
	Verbose          bool
	PartialSuccess   bool
	CollectAllErrors bool
	MaxDepth         int
	Workers          int
	WhereUsed        string
	Search           string
	Help             bool
}

// BOMCommand loads a catalog and either answers a catalog query or generates the BOM of an order
type BOMCommand struct {
	config Config
	logger *zap.Logger
	out    io.Writer
}

// NewBOMCommand creates a new BOM command with the given configuration
func NewBOMCommand(config Config, logger *zap.Logger) *BOMCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BOMCommand{
		config: config,
		logger: logger,
		out:    os.Stdout,
	}
}

// SetOutput redirects console output
func (c *BOMCommand) SetOutput(w io.Writer) {
	c.out = w
}

// Execute runs the BOM command
func (c *BOMCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		c.printHeader()
		fmt.Fprintln(c.out, "📂 Loading catalog...")
	}

	store, err := catalogstore.Open(c.config.CatalogDir, c.logger)
	if err != nil {
		return err
	}
	catalog := store.Snapshot()

	report := catalog.IntegrityReport()
	if c.config.Verbose {
		parts, assemblies, categories := catalog.Stats()
		fmt.Fprintf(c.out, "✅ Catalog %s loaded:\n", catalog.Version())
		fmt.Fprintf(c.out, "  Parts: %d\n", parts)
		fmt.Fprintf(c.out, "  Assemblies: %d\n", assemblies)
		fmt.Fprintf(c.out, "  Categories: %d\n", categories)
		fmt.Fprintf(c.out, "  Integrity warnings: %d\n", len(report.Warnings))
		fmt.Fprintf(c.out, "  Integrity errors: %d\n", len(report.Errors))
		fmt.Fprintln(c.out)
	}
	for _, w := range report.Warnings {
		c.logger.Debug("catalog integrity warning", zap.String("assembly_id", string(w.AssemblyID)), zap.String("reason", w.Reason))
	}
	for _, e := range report.Errors {
		c.logger.Warn("catalog integrity error", zap.Error(e))
	}

	if c.config.Search != "" {
		c.printSearch(catalog.Search(c.config.Search))
		return nil
	}
	if c.config.WhereUsed != "" {
		c.printWhereUsed(entities.PartNumber(c.config.WhereUsed), catalog.WhereUsed(entities.PartNumber(c.config.WhereUsed)))
		return nil
	}

	req, err := c.loadOrder()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "🔄 Generating BOM for %d builds...\n", len(req.BuildNumbers))
	}

	generator := bom.NewGenerator(bom.Options{
		MaxDepth:         c.config.MaxDepth,
		CollectAllErrors: c.config.CollectAllErrors,
		PartialSuccess:   c.config.PartialSuccess,
		Workers:          c.config.Workers,
	}, bom.WithLogger(c.logger))

	startTime := time.Now()
	result, err := generator.GenerateBOM(ctx, catalog, req)
	duration := time.Since(startTime)
	if err != nil {
		var genErr *dto.GenerationError
		if errors.As(err, &genErr) && len(genErr.Issues) > 0 {
			c.printIssues(genErr.Issues)
		}
		return fmt.Errorf("error generating BOM: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ BOM generated in %v\n\n", duration)
	}

	err = output.Generate(result, output.Config{
		Format:       c.config.Format,
		OutputDir:    c.config.OutputDir,
		Verbose:      c.config.Verbose,
		Duration:     duration,
		BuildNumbers: req.BuildNumbers,
		Out:          c.out,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if failed := result.FailedBuilds(req.BuildNumbers); len(failed) > 0 {
		fmt.Fprintf(c.out, "⚠️  Builds left out of the BOM: %s\n", strings.Join(failed, ", "))
	}
	if c.config.Verbose {
		fmt.Fprintln(c.out, "🏁 BOM generation complete!")
	}

	return nil
}

// validateInputs validates the command configuration
func (c *BOMCommand) validateInputs() error {
	if c.config.CatalogDir == "" {
		return fmt.Errorf("must specify -catalog directory")
	}
	if c.config.OrderFile == "" && c.config.Search == "" && c.config.WhereUsed == "" {
		return fmt.Errorf("must specify -order file, -search or -where-used")
	}
	switch c.config.Format {
	case "", "text", "json", "csv", "xlsx":
	default:
		return fmt.Errorf("unsupported output format: %s", c.config.Format)
	}
	return nil
}

func (c *BOMCommand) loadOrder() (*dto.GenerateBOMRequest, error) {
	file, err := os.Open(c.config.OrderFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open order file: %w", err)
	}
	defer file.Close()

	req, err := dto.DecodeGenerateBOMRequest(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.config.OrderFile, err)
	}
	return req, nil
}

func (c *BOMCommand) printSearch(items []entities.CatalogItem) {
	fmt.Fprintf(c.out, "🔍 %d items match %q\n", len(items), c.config.Search)
	for _, item := range items {
		kind := "PART"
		if _, ok := item.(*entities.Assembly); ok {
			kind = "ASSEMBLY"
		}
		fmt.Fprintf(c.out, "  %-32s %-9s %s\n", item.ItemID(), kind, item.DisplayName())
	}
}

func (c *BOMCommand) printWhereUsed(id entities.PartNumber, parents []entities.PartNumber) {
	if len(parents) == 0 {
		fmt.Fprintf(c.out, "%s is not used by any assembly\n", id)
		return
	}
	fmt.Fprintf(c.out, "%s is used by %d assemblies:\n", id, len(parents))
	for _, parent := range parents {
		fmt.Fprintf(c.out, "  %s\n", parent)
	}
}

func (c *BOMCommand) printIssues(issues []entities.Issue) {
	fmt.Fprintf(c.out, "❌ %d issues:\n", len(issues))
	for _, issue := range issues {
		fmt.Fprintf(c.out, "  [%s] %s\n", issue.Kind, issue.Message)
		if issue.Hint != "" {
			fmt.Fprintf(c.out, "      hint: %s\n", issue.Hint)
		}
	}
}

// printHeader prints the command header information
func (c *BOMCommand) printHeader() {
	fmt.Fprintf(c.out, "🚀 Sink BOM Generator\n")
	fmt.Fprintf(c.out, "Catalog: %s\n", c.config.CatalogDir)
	if c.config.OrderFile != "" {
		fmt.Fprintf(c.out, "Order: %s\n", c.config.OrderFile)
	}
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.out)
}

// showHelp displays the help message
func (c *BOMCommand) showHelp() {
	fmt.Fprintf(c.out, `Sink BOM Generator - Bills of Materials for configured sink orders

USAGE:
    bomgen -catalog <dir> -order <file> [OPTIONS]
    bomgen -catalog <dir> -search <text>
    bomgen -catalog <dir> -where-used <part>

OPTIONS:
    -catalog <dir>       Catalog directory (parts.json, assemblies.json, categories.json,
                         control_box_rules.json)
    -order <file>        Order JSON file with buildNumbers and configurations
    -output <dir>        Output directory for results (required for csv and xlsx)
    -format <fmt>        Output format: text, json, csv, xlsx (default: text)
    -partial             Return the surviving builds when some builds fail
    -collect-errors      Keep expanding sibling branches after a catalog error
    -max-depth <n>       Maximum assembly nesting depth (default: 32)
    -workers <n>         Builds processed concurrently (default: CPU count)
    -search <text>       List catalog items whose id, name or MPN contains text
    -where-used <part>   List assemblies that use part directly
    -env <file>          Environment file with BOMGEN_* settings (default: .env)
    -verbose             Enable verbose output
    -help                Show this help message

ORDER FILE FORMAT:
    {
      "customer": {"name": "Acme Labs", "poNumber": "PO-7781"},
      "buildNumbers": ["A", "B"],
      "configurations": {
        "A": {"sinkModel": "T2-B1", "basins": [{"type": "E_SINK", "sizeCode": "24X20X8"}]},
        "B": {"sinkModel": "T2-B2", "sinkLength": 72, "pegboard": true, "pegboardColor": "BLUE",
              "basins": [{"type": "E_DRAIN", "sizeCode": "24X20X8"}, {"type": "E_DRAIN", "sizeCode": "24X20X8"}]}
      },
      "accessories": {"B": [{"assemblyId": "T2-SHELF-KIT", "quantity": 1}]}
    }

EXAMPLES:
    # Generate the sample order
    bomgen -catalog examples/catalog -order examples/orders/two_builds.json -verbose

    # Write a procurement workbook
    bomgen -catalog examples/catalog -order examples/orders/two_builds.json -format xlsx -output results/

    # Keep the good builds of an order with a failing build
    bomgen -catalog examples/catalog -order examples/orders/unmapped_control_box.json -partial

    # Find where a fastener is used
    bomgen -catalog examples/catalog -where-used HW-BOLT-M8
`)
}
