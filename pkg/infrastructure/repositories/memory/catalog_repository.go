package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/domain/repositories"
	"github.com/vsinha/sinkbom/pkg/domain/services"
)

// CatalogData is the raw content of one catalog version
type CatalogData struct {
	Version         string
	Parts           []*entities.Part
	Assemblies      []*entities.Assembly
	Categories      []*entities.Category
	ControlBoxRules []entities.ControlBoxRule
}

// Catalog is an immutable in-memory catalog. It is never mutated after NewCatalog returns,
// so one instance can serve any number of concurrent generations.
type Catalog struct {
	version     string
	parts       map[entities.PartNumber]*entities.Part
	assemblies  map[entities.PartNumber]*entities.Assembly
	categories  map[string]*entities.Category
	usedIn      map[entities.PartNumber][]entities.PartNumber
	controlBox  map[string]entities.PartNumber
	searchIndex []entities.CatalogItem
	report      *services.IntegrityReport
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*Catalog)(nil)

// NewCatalog indexes the catalog data and runs the integrity scan. Integrity problems are
// recorded in the report; only structurally unusable data (duplicate ids, conflicting rules) fails.
func NewCatalog(data CatalogData) (*Catalog, error) {
	c := &Catalog{
		version:    data.Version,
		parts:      make(map[entities.PartNumber]*entities.Part, len(data.Parts)),
		assemblies: make(map[entities.PartNumber]*entities.Assembly, len(data.Assemblies)),
		categories: make(map[string]*entities.Category, len(data.Categories)),
		usedIn:     make(map[entities.PartNumber][]entities.PartNumber),
		controlBox: make(map[string]entities.PartNumber, len(data.ControlBoxRules)),
	}

	for _, part := range data.Parts {
		if _, exists := c.parts[part.ID]; exists {
			return nil, fmt.Errorf("duplicate part id: %s", part.ID)
		}
		p := *part
		c.parts[part.ID] = &p
	}

	for _, assembly := range data.Assemblies {
		if _, exists := c.assemblies[assembly.ID]; exists {
			return nil, fmt.Errorf("duplicate assembly id: %s", assembly.ID)
		}
		if _, exists := c.parts[assembly.ID]; exists {
			return nil, fmt.Errorf("id %s is defined as both part and assembly", assembly.ID)
		}
		a := *assembly
		a.Components = append([]entities.ComponentRef(nil), assembly.Components...)
		c.assemblies[assembly.ID] = &a
	}

	for _, category := range data.Categories {
		if _, exists := c.categories[category.Code]; exists {
			return nil, fmt.Errorf("duplicate category code: %s", category.Code)
		}
		c.categories[category.Code] = category
	}

	for _, rule := range data.ControlBoxRules {
		key := rule.Basins.Key()
		if key == "" {
			return nil, fmt.Errorf("control box rule for %s has no basins", rule.AssemblyID)
		}
		if existing, exists := c.controlBox[key]; exists && existing != rule.AssemblyID {
			return nil, fmt.Errorf("conflicting control box rules for %s: %s and %s", key, existing, rule.AssemblyID)
		}
		c.controlBox[key] = rule.AssemblyID
	}

	c.report = services.NewCatalogValidator().Validate(c.assemblies, c.exists, data.ControlBoxRules)
	c.resolveChildKinds()
	c.buildIndexes()

	return c, nil
}

// resolveChildKinds fills in unspecified child kinds and flags declarations the catalog contradicts.
// Assemblies are visited by id so the warnings come out in the same order on every load.
func (c *Catalog) resolveChildKinds() {
	ids := make([]entities.PartNumber, 0, len(c.assemblies))
	for id := range c.assemblies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		assembly := c.assemblies[id]
		for i := range assembly.Components {
			ref := &assembly.Components[i]
			actual := entities.ChildUnspecified
			if _, ok := c.parts[ref.ChildID]; ok {
				actual = entities.ChildPart
			} else if _, ok := c.assemblies[ref.ChildID]; ok {
				actual = entities.ChildAssembly
			}
			if actual == entities.ChildUnspecified {
				continue
			}
			if ref.ChildKind != entities.ChildUnspecified && ref.ChildKind != actual {
				w := &entities.CatalogIntegrityWarning{
					AssemblyID: assembly.ID,
					Reason:     fmt.Sprintf("component %s declared as %s but catalog has %s", ref.ChildID, ref.ChildKind, actual),
				}
				c.report.Warnings = append(c.report.Warnings, w)
				c.report.ByAssembly[assembly.ID] = append(c.report.ByAssembly[assembly.ID], w)
			}
			ref.ChildKind = actual
		}
	}
}

func (c *Catalog) buildIndexes() {
	seen := make(map[[2]entities.PartNumber]bool)
	for _, assembly := range c.assemblies {
		for _, ref := range assembly.Components {
			edge := [2]entities.PartNumber{ref.ChildID, assembly.ID}
			if seen[edge] {
				continue
			}
			seen[edge] = true
			c.usedIn[ref.ChildID] = append(c.usedIn[ref.ChildID], assembly.ID)
		}
	}
	for id := range c.usedIn {
		users := c.usedIn[id]
		sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	}

	c.searchIndex = make([]entities.CatalogItem, 0, len(c.parts)+len(c.assemblies))
	for _, p := range c.parts {
		c.searchIndex = append(c.searchIndex, p)
	}
	for _, a := range c.assemblies {
		c.searchIndex = append(c.searchIndex, a)
	}
	sort.Slice(c.searchIndex, func(i, j int) bool {
		return c.searchIndex[i].ItemID() < c.searchIndex[j].ItemID()
	})
}

func (c *Catalog) exists(id entities.PartNumber) bool {
	_, ok := c.Lookup(id)
	return ok
}

// GetPart returns the part with the given id
func (c *Catalog) GetPart(id entities.PartNumber) (*entities.Part, bool) {
	p, ok := c.parts[id]
	return p, ok
}

// GetAssembly returns the assembly with the given id
func (c *Catalog) GetAssembly(id entities.PartNumber) (*entities.Assembly, bool) {
	a, ok := c.assemblies[id]
	return a, ok
}

// Lookup returns the part or assembly with the given id
func (c *Catalog) Lookup(id entities.PartNumber) (entities.CatalogItem, bool) {
	if a, ok := c.assemblies[id]; ok {
		return a, true
	}
	if p, ok := c.parts[id]; ok {
		return p, true
	}
	return nil, false
}

// GetCategory returns the category with the given code
func (c *Catalog) GetCategory(code string) (*entities.Category, bool) {
	cat, ok := c.categories[code]
	return cat, ok
}

// Search returns items whose id, name or manufacturer part number contains the query, case-insensitively
func (c *Catalog) Search(query string) []entities.CatalogItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []entities.CatalogItem
	for _, item := range c.searchIndex {
		if matches(item, q) {
			results = append(results, item)
		}
	}
	return results
}

func matches(item entities.CatalogItem, q string) bool {
	if strings.Contains(strings.ToLower(string(item.ItemID())), q) ||
		strings.Contains(strings.ToLower(item.DisplayName()), q) {
		return true
	}
	if p, ok := item.(*entities.Part); ok {
		return strings.Contains(strings.ToLower(p.ManufacturerPartNumber), q)
	}
	return false
}

// WhereUsed returns the assemblies that list id as a direct component, sorted by id
func (c *Catalog) WhereUsed(id entities.PartNumber) []entities.PartNumber {
	return append([]entities.PartNumber(nil), c.usedIn[id]...)
}

// ControlBoxFor returns the control box mapped to the basin-type multiset
func (c *Catalog) ControlBoxFor(basins entities.BasinMultiset) (entities.PartNumber, bool) {
	id, ok := c.controlBox[basins.Key()]
	return id, ok
}

// Version returns the catalog version label
func (c *Catalog) Version() string {
	return c.version
}

// IntegrityReport returns the defects found when the catalog was built
func (c *Catalog) IntegrityReport() *services.IntegrityReport {
	return c.report
}

// Stats returns part, assembly and category counts
func (c *Catalog) Stats() (parts, assemblies, categories int) {
	return len(c.parts), len(c.assemblies), len(c.categories)
}
