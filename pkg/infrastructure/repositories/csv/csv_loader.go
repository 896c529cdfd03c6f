// Package csv loads a catalog from the flat CSV export of an ERP system
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/infrastructure/repositories/memory"
)

// Catalog file names inside a CSV catalog directory
const (
	PartsFile           = "parts.csv"
	AssembliesFile      = "assemblies.csv"
	ComponentsFile      = "components.csv"
	CategoriesFile      = "categories.csv"
	ControlBoxRulesFile = "control_box_rules.csv"
)

var (
	partsHeader      = []string{"part_id", "name", "type", "manufacturer_part_number", "status"}
	assembliesHeader = []string{"assembly_id", "name", "type", "category_code", "subcategory_code", "can_order"}
	componentsHeader = []string{"parent_id", "child_id", "child_kind", "quantity", "notes"}
	categoriesHeader = []string{"category_code", "subcategory_code", "name", "description"}
	rulesHeader      = []string{"assembly_id", "e_drain", "e_sink", "e_sink_di"}
)

// Loader handles loading catalogs from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// Detect reports whether fsys holds a CSV catalog
func Detect(fsys fs.FS) bool {
	_, err := fs.Stat(fsys, PartsFile)
	return err == nil
}

// LoadDir loads a catalog from a directory on disk
func (l *Loader) LoadDir(dir string) (*memory.CatalogData, error) {
	return l.LoadFS(os.DirFS(dir))
}

// LoadFS loads parts, assemblies with their component rows, categories and the optional
// control box rules from fsys
func (l *Loader) LoadFS(fsys fs.FS) (*memory.CatalogData, error) {
	hash := fnv.New64a()

	partRows, err := readRecords(fsys, PartsFile, partsHeader, hash)
	if err != nil {
		return nil, err
	}
	assemblyRows, err := readRecords(fsys, AssembliesFile, assembliesHeader, hash)
	if err != nil {
		return nil, err
	}
	componentRows, err := readRecords(fsys, ComponentsFile, componentsHeader, hash)
	if err != nil {
		return nil, err
	}
	categoryRows, err := readRecords(fsys, CategoriesFile, categoriesHeader, hash)
	if err != nil {
		return nil, err
	}
	ruleRows, err := readRecords(fsys, ControlBoxRulesFile, rulesHeader, hash)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	data := &memory.CatalogData{
		Version: fmt.Sprintf("%016x", hash.Sum64()),
	}

	for i, record := range partRows {
		part, err := parsePart(record)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", PartsFile, i+2, err)
		}
		data.Parts = append(data.Parts, part)
	}

	components, err := groupComponents(componentRows)
	if err != nil {
		return nil, err
	}
	for i, record := range assemblyRows {
		assembly, err := parseAssembly(record, components[record[0]])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", AssembliesFile, i+2, err)
		}
		delete(components, record[0])
		data.Assemblies = append(data.Assemblies, assembly)
	}
	if len(components) > 0 {
		orphan, row := "", 0
		for parent, rows := range components {
			if row == 0 || rows[0].row < row {
				orphan, row = parent, rows[0].row
			}
		}
		return nil, fmt.Errorf("%s row %d: parent %s is not an assembly", ComponentsFile, row, orphan)
	}

	data.Categories, err = parseCategories(categoryRows)
	if err != nil {
		return nil, err
	}

	for i, record := range ruleRows {
		rule, err := parseControlBoxRule(record)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", ControlBoxRulesFile, i+2, err)
		}
		data.ControlBoxRules = append(data.ControlBoxRules, rule)
	}

	return data, nil
}

// readRecords returns the data rows of name after checking its header
func readRecords(fsys fs.FS, name string, expectedHeader []string, hash io.Writer) ([][]string, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(io.TeeReader(file, hash))
	reader.FieldsPerRecord = len(expectedHeader)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s must have a header row", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.ToLower(actual[i])) != col {
			return false
		}
	}
	return true
}

func parsePart(record []string) (*entities.Part, error) {
	id := strings.TrimSpace(record[0])
	partType, err := entities.ParsePartType(record[2])
	if err != nil {
		return nil, fmt.Errorf("part %s: %w", id, err)
	}
	status, err := entities.ParsePartStatus(record[4])
	if err != nil {
		return nil, fmt.Errorf("part %s: %w", id, err)
	}
	return entities.NewPart(entities.PartNumber(id), strings.TrimSpace(record[1]), partType, strings.TrimSpace(record[3]), status)
}

type componentRow struct {
	row int
	ref entities.ComponentRef
}

// groupComponents collects component rows per parent, keeping file order
func groupComponents(records [][]string) (map[string][]componentRow, error) {
	grouped := make(map[string][]componentRow)
	for i, record := range records {
		row := i + 2
		parent := strings.TrimSpace(record[0])
		if parent == "" {
			return nil, fmt.Errorf("%s row %d: parent_id cannot be empty", ComponentsFile, row)
		}

		kind, err := entities.ParseChildKind(record[2])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", ComponentsFile, row, err)
		}
		quantity, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid quantity: %s", ComponentsFile, row, record[3])
		}
		ref, err := entities.NewComponentRef(
			entities.PartNumber(strings.TrimSpace(record[1])),
			kind,
			entities.Quantity(quantity),
			strings.TrimSpace(record[4]),
		)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", ComponentsFile, row, err)
		}
		grouped[parent] = append(grouped[parent], componentRow{row: row, ref: *ref})
	}
	return grouped, nil
}

func parseAssembly(record []string, rows []componentRow) (*entities.Assembly, error) {
	id := strings.TrimSpace(record[0])
	assemblyType, err := entities.ParseAssemblyType(record[2])
	if err != nil {
		return nil, fmt.Errorf("assembly %s: %w", id, err)
	}

	canOrder := false
	if s := strings.TrimSpace(record[5]); s != "" {
		canOrder, err = strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("assembly %s: invalid can_order: %s", id, s)
		}
	}

	components := make([]entities.ComponentRef, len(rows))
	for i, r := range rows {
		components[i] = r.ref
	}

	return entities.NewAssembly(
		entities.PartNumber(id),
		strings.TrimSpace(record[1]),
		assemblyType,
		strings.TrimSpace(record[3]),
		strings.TrimSpace(record[4]),
		canOrder,
		components,
	)
}

// parseCategories reads category rows (empty subcategory_code) and subcategory rows in any order
func parseCategories(records [][]string) ([]*entities.Category, error) {
	var categories []*entities.Category
	byCode := make(map[string]*entities.Category)
	type pending struct {
		row      int
		category string
		sub      entities.Subcategory
	}
	var subs []pending

	for i, record := range records {
		code := strings.TrimSpace(record[0])
		if code == "" {
			return nil, fmt.Errorf("%s row %d: category_code cannot be empty", CategoriesFile, i+2)
		}
		subCode := strings.TrimSpace(record[1])
		if subCode != "" {
			subs = append(subs, pending{
				row:      i + 2,
				category: code,
				sub:      entities.Subcategory{Code: subCode, Name: strings.TrimSpace(record[2])},
			})
			continue
		}
		if _, dup := byCode[code]; dup {
			return nil, fmt.Errorf("%s row %d: duplicate category %s", CategoriesFile, i+2, code)
		}
		category := &entities.Category{
			Code:          code,
			Name:          strings.TrimSpace(record[2]),
			Description:   strings.TrimSpace(record[3]),
			Subcategories: make(map[string]entities.Subcategory),
		}
		byCode[code] = category
		categories = append(categories, category)
	}

	for _, p := range subs {
		category, ok := byCode[p.category]
		if !ok {
			return nil, fmt.Errorf("%s row %d: subcategory %s references unknown category %s",
				CategoriesFile, p.row, p.sub.Code, p.category)
		}
		category.Subcategories[p.sub.Code] = p.sub
	}
	return categories, nil
}

func parseControlBoxRule(record []string) (entities.ControlBoxRule, error) {
	id := strings.TrimSpace(record[0])
	if id == "" {
		return entities.ControlBoxRule{}, fmt.Errorf("assembly_id cannot be empty")
	}

	basins := make(entities.BasinMultiset)
	columns := []entities.BasinType{entities.BasinEDrain, entities.BasinESink, entities.BasinESinkDI}
	for i, basinType := range columns {
		s := strings.TrimSpace(record[i+1])
		if s == "" {
			continue
		}
		count, err := strconv.Atoi(s)
		if err != nil || count < 0 {
			return entities.ControlBoxRule{}, fmt.Errorf("invalid %s count: %s", rulesHeader[i+1], s)
		}
		if count > 0 {
			basins[basinType] = count
		}
	}
	if len(basins) == 0 {
		return entities.ControlBoxRule{}, fmt.Errorf("rule for %s has no basins", id)
	}

	return entities.ControlBoxRule{Basins: basins, AssemblyID: entities.PartNumber(id)}, nil
}
