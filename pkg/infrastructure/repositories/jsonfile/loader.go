package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/infrastructure/repositories/memory"
)

// Catalog file names inside a catalog directory
const (
	PartsFile           = "parts.json"
	AssembliesFile      = "assemblies.json"
	CategoriesFile      = "categories.json"
	ControlBoxRulesFile = "control_box_rules.json"
)

type partRecord struct {
	Name                   string `json:"name"`
	Type                   string `json:"type"`
	ManufacturerPartNumber string `json:"manufacturerPartNumber"`
	Status                 string `json:"status"`
}

type componentRecord struct {
	ChildID   string `json:"childId"`
	ChildKind string `json:"childKind"`
	Quantity  int64  `json:"quantity"`
	Notes     string `json:"notes"`
}

type assemblyRecord struct {
	Name            string            `json:"name"`
	Type            string            `json:"type"`
	CategoryCode    string            `json:"categoryCode"`
	SubcategoryCode string            `json:"subcategoryCode"`
	CanOrder        bool              `json:"canOrder"`
	Components      []componentRecord `json:"components"`
}

type subcategoryRecord struct {
	Name string `json:"name"`
}

type categoryRecord struct {
	Name          string                       `json:"name"`
	Description   string                       `json:"description"`
	Subcategories map[string]subcategoryRecord `json:"subcategories"`
}

type controlBoxRuleRecord struct {
	Basins     map[string]int `json:"basins"`
	AssemblyID string         `json:"assemblyId"`
}

type partsDocument struct {
	Parts map[string]partRecord `json:"parts"`
}

type assembliesDocument struct {
	Assemblies map[string]assemblyRecord `json:"assemblies"`
}

type categoriesDocument struct {
	Categories map[string]categoryRecord `json:"categories"`
}

type controlBoxRulesDocument struct {
	Rules []controlBoxRuleRecord `json:"rules"`
}

// Loader reads catalog JSON documents
type Loader struct{}

// NewLoader creates a new JSON catalog loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDir loads a catalog from a directory on disk
func (l *Loader) LoadDir(dir string) (*memory.CatalogData, error) {
	return l.LoadFS(os.DirFS(dir))
}

// LoadFS loads parts, assemblies, categories and control box rules from fsys.
// The control box rules document is optional.
func (l *Loader) LoadFS(fsys fs.FS) (*memory.CatalogData, error) {
	hash := fnv.New64a()

	var partsDoc partsDocument
	if err := readDocument(fsys, PartsFile, &partsDoc, hash); err != nil {
		return nil, err
	}
	var assembliesDoc assembliesDocument
	if err := readDocument(fsys, AssembliesFile, &assembliesDoc, hash); err != nil {
		return nil, err
	}
	var categoriesDoc categoriesDocument
	if err := readDocument(fsys, CategoriesFile, &categoriesDoc, hash); err != nil {
		return nil, err
	}
	var rulesDoc controlBoxRulesDocument
	if err := readDocument(fsys, ControlBoxRulesFile, &rulesDoc, hash); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	data := &memory.CatalogData{
		Version: fmt.Sprintf("%016x", hash.Sum64()),
	}

	for _, id := range sortedKeys(partsDoc.Parts) {
		part, err := parsePart(id, partsDoc.Parts[id])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", PartsFile, err)
		}
		data.Parts = append(data.Parts, part)
	}

	for _, id := range sortedKeys(assembliesDoc.Assemblies) {
		assembly, err := parseAssembly(id, assembliesDoc.Assemblies[id])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", AssembliesFile, err)
		}
		data.Assemblies = append(data.Assemblies, assembly)
	}

	for _, code := range sortedKeys(categoriesDoc.Categories) {
		data.Categories = append(data.Categories, parseCategory(code, categoriesDoc.Categories[code]))
	}

	for i, record := range rulesDoc.Rules {
		rule, err := parseControlBoxRule(record)
		if err != nil {
			return nil, fmt.Errorf("%s rule %d: %w", ControlBoxRulesFile, i+1, err)
		}
		data.ControlBoxRules = append(data.ControlBoxRules, rule)
	}

	return data, nil
}

func readDocument(fsys fs.FS, name string, v any, hash io.Writer) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	_, _ = hash.Write(raw)
	return nil
}

func parsePart(id string, record partRecord) (*entities.Part, error) {
	partType, err := entities.ParsePartType(record.Type)
	if err != nil {
		return nil, fmt.Errorf("part %s: %w", id, err)
	}
	status, err := entities.ParsePartStatus(record.Status)
	if err != nil {
		return nil, fmt.Errorf("part %s: %w", id, err)
	}
	return entities.NewPart(entities.PartNumber(id), record.Name, partType, record.ManufacturerPartNumber, status)
}

func parseAssembly(id string, record assemblyRecord) (*entities.Assembly, error) {
	assemblyType, err := entities.ParseAssemblyType(record.Type)
	if err != nil {
		return nil, fmt.Errorf("assembly %s: %w", id, err)
	}

	components := make([]entities.ComponentRef, 0, len(record.Components))
	for i, c := range record.Components {
		kind, err := entities.ParseChildKind(c.ChildKind)
		if err != nil {
			return nil, fmt.Errorf("assembly %s component %d: %w", id, i+1, err)
		}
		ref, err := entities.NewComponentRef(entities.PartNumber(c.ChildID), kind, entities.Quantity(c.Quantity), c.Notes)
		if err != nil {
			return nil, fmt.Errorf("assembly %s component %d: %w", id, i+1, err)
		}
		components = append(components, *ref)
	}

	return entities.NewAssembly(
		entities.PartNumber(id),
		record.Name,
		assemblyType,
		record.CategoryCode,
		record.SubcategoryCode,
		record.CanOrder,
		components,
	)
}

func parseCategory(code string, record categoryRecord) *entities.Category {
	subs := make(map[string]entities.Subcategory, len(record.Subcategories))
	for subCode, sub := range record.Subcategories {
		subs[subCode] = entities.Subcategory{Code: subCode, Name: sub.Name}
	}
	return &entities.Category{
		Code:          code,
		Name:          record.Name,
		Description:   record.Description,
		Subcategories: subs,
	}
}

func parseControlBoxRule(record controlBoxRuleRecord) (entities.ControlBoxRule, error) {
	if record.AssemblyID == "" {
		return entities.ControlBoxRule{}, fmt.Errorf("assemblyId cannot be empty")
	}
	basins := make(entities.BasinMultiset, len(record.Basins))
	for basinType, count := range record.Basins {
		switch entities.BasinType(basinType) {
		case entities.BasinEDrain, entities.BasinESink, entities.BasinESinkDI:
		default:
			return entities.ControlBoxRule{}, fmt.Errorf("invalid basin type: %s", basinType)
		}
		if count <= 0 {
			return entities.ControlBoxRule{}, fmt.Errorf("basin count for %s must be positive, got %d", basinType, count)
		}
		basins[entities.BasinType(basinType)] = count
	}
	return entities.ControlBoxRule{
		Basins:     basins,
		AssemblyID: entities.PartNumber(record.AssemblyID),
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
