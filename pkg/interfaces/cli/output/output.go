package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/sinkbom/pkg/application/dto"
	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// Output file names written into Config.OutputDir
const (
	TextFile      = "bom_results.txt"
	JSONFile      = "bom_results.json"
	FlattenedFile = "bom_flattened.csv"
	HierarchyFile = "bom_hierarchy.csv"
	WorkbookFile  = "bom_results.xlsx"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Duration  time.Duration
	// BuildNumbers fixes the order builds are reported in; result order is used when empty
	BuildNumbers []string
	// Out receives console output; nil writes to stdout
	Out io.Writer
}

func (c Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Generate renders result in the configured format
func Generate(result *dto.GenerateBOMResult, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	case "xlsx":
		return generateXLSXOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// buildOrder returns the build numbers to report, in request order when known
func buildOrder(result *dto.GenerateBOMResult, config Config) []string {
	if len(config.BuildNumbers) > 0 {
		return config.BuildNumbers
	}
	order := make([]string, 0, len(result.PerBuildSummary))
	for bn := range result.PerBuildSummary {
		order = append(order, bn)
	}
	sort.Strings(order)
	return order
}

// WriteText writes the human-readable report
func WriteText(w io.Writer, result *dto.GenerateBOMResult, config Config) {
	fmt.Fprintf(w, "📊 BOM Results Summary\n")
	fmt.Fprintf(w, "======================\n\n")

	fmt.Fprintf(w, "Generation: %s\n", result.GenerationID)
	fmt.Fprintf(w, "Catalog Version: %s\n", result.CatalogVersion)
	if result.Customer.Name != "" {
		fmt.Fprintf(w, "Customer: %s\n", result.Customer.Name)
	}
	if result.Customer.PONumber != "" {
		fmt.Fprintf(w, "PO Number: %s\n", result.Customer.PONumber)
	}
	fmt.Fprintf(w, "Distinct Items: %d\n", result.TotalItems)
	fmt.Fprintf(w, "Total Quantity: %d\n", result.TotalQuantity)
	if config.Duration > 0 {
		fmt.Fprintf(w, "Generation Time: %v\n", config.Duration)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "🧾 Builds:\n")
	fmt.Fprintf(w, "%-12s %-10s %-8s %-10s %-8s %-10s %-8s\n",
		"Build", "Status", "Model", "Top Items", "Nodes", "Quantity", "Issues")
	fmt.Fprintf(w, "%-12s %-10s %-8s %-10s %-8s %-10s %-8s\n",
		"------------", "----------", "--------", "----------", "--------", "----------", "--------")
	for _, bn := range buildOrder(result, config) {
		s, ok := result.PerBuildSummary[bn]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%-12s %-10s %-8s %-10d %-8d %-10d %-8d\n",
			s.BuildNumber, s.Status, s.SinkModel, s.TopLevelItems, s.NodeCount, s.TotalQuantity, s.Warnings+s.Errors)
	}
	fmt.Fprintln(w)

	if config.Verbose {
		for _, bn := range buildOrder(result, config) {
			roots, ok := result.Hierarchical[bn]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "🌳 Build %s:\n", bn)
			for _, root := range roots {
				writeTree(w, root, 1)
			}
			fmt.Fprintln(w)
		}
	}

	if len(result.Flattened) > 0 {
		fmt.Fprintf(w, "📋 Procurement List:\n")
		fmt.Fprintf(w, "%-32s %-8s %-14s %-40s\n", "Part Number", "Qty", "Category", "Description")
		fmt.Fprintf(w, "%-32s %-8s %-14s %-40s\n",
			"--------------------------------", "--------", "--------------", "----------------------------------------")
		for _, item := range result.Flattened {
			fmt.Fprintf(w, "%-32s %-8d %-14s %-40s\n", item.PartNumber, item.Quantity, item.Category, item.Description)
		}
		fmt.Fprintln(w)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(w, "⚠️  Warnings:\n")
		for _, issue := range result.Warnings {
			writeIssue(w, issue)
		}
		fmt.Fprintln(w)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "❌ Errors:\n")
		for _, issue := range result.Errors {
			writeIssue(w, issue)
		}
		fmt.Fprintln(w)
	}
}

func writeTree(w io.Writer, node *entities.BOMNode, indent int) {
	marker := ""
	if node.IsCustom {
		marker = " [custom]"
	}
	fmt.Fprintf(w, "%s%s x%d (%d per) %s%s\n",
		strings.Repeat("  ", indent), node.ID, node.Quantity, node.QuantityPer, node.Name, marker)
	for _, child := range node.Components {
		writeTree(w, child, indent+1)
	}
}

func writeIssue(w io.Writer, issue entities.Issue) {
	fmt.Fprintf(w, "  [%s] %s\n", issue.Kind, issue.Message)
	if issue.Hint != "" {
		fmt.Fprintf(w, "      hint: %s\n", issue.Hint)
	}
}

// generateTextOutput prints the report and saves a copy when an output directory is set
func generateTextOutput(result *dto.GenerateBOMResult, config Config) error {
	WriteText(config.out(), result, config)

	if config.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, TextFile)
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create text file: %w", err)
	}
	defer file.Close()

	WriteText(file, result, config)

	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 Results saved to: %s\n", filename)
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.GenerateBOMResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.out(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, JSONFile)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes the procurement list and the per-build hierarchy
func generateCSVOutput(result *dto.GenerateBOMResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	flatFile := filepath.Join(config.OutputDir, FlattenedFile)
	if err := writeCSVFile(flatFile, flattenedRows(result)); err != nil {
		return fmt.Errorf("failed to write flattened CSV: %w", err)
	}

	treeFile := filepath.Join(config.OutputDir, HierarchyFile)
	if err := writeCSVFile(treeFile, hierarchyRows(result, config)); err != nil {
		return fmt.Errorf("failed to write hierarchy CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 CSV results saved to:\n")
		fmt.Fprintf(config.out(), "  Flattened: %s\n", flatFile)
		fmt.Fprintf(config.out(), "  Hierarchy: %s\n", treeFile)
	}
	return nil
}

func writeCSVFile(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

var flattenedHeader = []string{"part_number", "description", "quantity", "category", "kind", "custom", "sources", "build_numbers"}

func flattenedRows(result *dto.GenerateBOMResult) [][]string {
	rows := [][]string{flattenedHeader}
	for _, item := range result.Flattened {
		sources := make([]string, len(item.Sources))
		for i, s := range item.Sources {
			sources[i] = string(s)
		}
		rows = append(rows, []string{
			string(item.PartNumber),
			item.Description,
			strconv.FormatInt(int64(item.Quantity), 10),
			item.Category,
			string(item.Kind),
			strconv.FormatBool(item.IsCustom),
			strings.Join(sources, ";"),
			strings.Join(item.BuildNumbers, ";"),
		})
	}
	return rows
}

var hierarchyHeader = []string{"build_number", "level", "part_number", "name", "quantity_per", "quantity", "category", "source", "custom"}

func hierarchyRows(result *dto.GenerateBOMResult, config Config) [][]string {
	rows := [][]string{hierarchyHeader}
	for _, bn := range buildOrder(result, config) {
		for _, root := range result.Hierarchical[bn] {
			root.Walk(func(n *entities.BOMNode) {
				rows = append(rows, []string{
					bn,
					strconv.Itoa(n.Level),
					string(n.ID),
					n.Name,
					strconv.FormatInt(int64(n.QuantityPer), 10),
					strconv.FormatInt(int64(n.Quantity), 10),
					n.Category,
					string(n.ItemType),
					strconv.FormatBool(n.IsCustom),
				})
			})
		}
	}
	return rows
}

// ProcurementSheet is the workbook sheet holding the flattened list
const ProcurementSheet = "Procurement"

// generateXLSXOutput writes a workbook with the procurement list and one indented sheet per build
func generateXLSXOutput(result *dto.GenerateBOMResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for XLSX format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := BuildWorkbook(result, config)
	if err != nil {
		return err
	}
	defer f.Close()

	filename := filepath.Join(config.OutputDir, WorkbookFile)
	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 Workbook saved to: %s\n", filename)
	}
	return nil
}

// BuildWorkbook renders result as an excelize workbook
func BuildWorkbook(result *dto.GenerateBOMResult, config Config) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ProcurementSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create procurement sheet: %w", err)
	}
	if err := writeRows(f, ProcurementSheet, flattenedRows(result)); err != nil {
		f.Close()
		return nil, err
	}

	used := map[string]bool{ProcurementSheet: true}
	for _, bn := range buildOrder(result, config) {
		roots, ok := result.Hierarchical[bn]
		if !ok {
			continue
		}
		sheet := sheetName(bn, used)
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet for build %s: %w", bn, err)
		}

		rows := [][]string{{"level", "part_number", "name", "quantity_per", "quantity", "category", "source"}}
		for _, root := range roots {
			root.Walk(func(n *entities.BOMNode) {
				rows = append(rows, []string{
					strconv.Itoa(n.Level),
					strings.Repeat("  ", n.Level) + string(n.ID),
					n.Name,
					strconv.FormatInt(int64(n.QuantityPer), 10),
					strconv.FormatInt(int64(n.Quantity), 10),
					n.Category,
					string(n.ItemType),
				})
			})
		}
		if err := writeRows(f, sheet, rows); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			var v any = value
			if n, err := strconv.ParseInt(value, 10, 64); err == nil && r > 0 {
				v = n
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

// sheetName derives a unique, valid worksheet name for a build number
func sheetName(buildNumber string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, "Build "+buildNumber)
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}

	candidate := name
	for i := 2; used[candidate]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := []rune(name)
		if len(base)+len(suffix) > 31 {
			base = base[:31-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[candidate] = true
	return candidate
}
