package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// IntegrityReport collects catalog defects found at load time
type IntegrityReport struct {
	// Warnings are non-fatal, e.g. a KIT with no components
	Warnings []*entities.CatalogIntegrityWarning
	// Errors are dangling references and cycles
	Errors []error
	// ByAssembly indexes Warnings and Errors by the originating assembly
	ByAssembly map[entities.PartNumber][]error
}

// HasErrors reports whether any integrity error was recorded
func (r *IntegrityReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// IssueCount returns warnings plus errors
func (r *IntegrityReport) IssueCount() int {
	return len(r.Warnings) + len(r.Errors)
}

func (r *IntegrityReport) addWarning(w *entities.CatalogIntegrityWarning) {
	r.Warnings = append(r.Warnings, w)
	r.ByAssembly[w.AssemblyID] = append(r.ByAssembly[w.AssemblyID], w)
}

func (r *IntegrityReport) addError(origin entities.PartNumber, err error) {
	r.Errors = append(r.Errors, err)
	r.ByAssembly[origin] = append(r.ByAssembly[origin], err)
}

// CatalogValidator scans catalog data for referential integrity problems
type CatalogValidator struct{}

// NewCatalogValidator creates a new catalog validator
func NewCatalogValidator() *CatalogValidator {
	return &CatalogValidator{}
}

// Validate checks every assembly: composite types without components, references to unknown ids,
// control box rules pointing at unknown assemblies, and cycles in the assembly graph
func (v *CatalogValidator) Validate(
	assemblies map[entities.PartNumber]*entities.Assembly,
	exists func(entities.PartNumber) bool,
	rules []entities.ControlBoxRule,
) *IntegrityReport {
	report := &IntegrityReport{
		Warnings:   make([]*entities.CatalogIntegrityWarning, 0),
		Errors:     make([]error, 0),
		ByAssembly: make(map[entities.PartNumber][]error),
	}

	ids := sortedAssemblyIDs(assemblies)

	for _, id := range ids {
		assembly := assemblies[id]
		if assembly.Type.Composite() && len(assembly.Components) == 0 {
			report.addWarning(&entities.CatalogIntegrityWarning{
				AssemblyID: id,
				Reason:     fmt.Sprintf("%s assembly has no components", assembly.Type),
			})
		}
		for _, ref := range assembly.Components {
			if !exists(ref.ChildID) {
				report.addError(id, &entities.UnknownCatalogReferenceError{
					ParentID: id,
					ChildID:  ref.ChildID,
				})
			}
		}
	}

	for _, rule := range rules {
		if _, ok := assemblies[rule.AssemblyID]; !ok {
			report.addError(rule.AssemblyID, &entities.UnknownCatalogReferenceError{
				ChildID: rule.AssemblyID,
			})
		}
	}

	for _, cycle := range v.detectCycles(assemblies, ids) {
		report.addError(cycle[0], &entities.CycleDetectedError{Path: cycle})
	}

	return report
}

// detectCycles uses DFS to find cycles in the assembly graph
func (v *CatalogValidator) detectCycles(
	assemblies map[entities.PartNumber]*entities.Assembly,
	ids []entities.PartNumber,
) [][]entities.PartNumber {
	visited := make(map[entities.PartNumber]bool)
	recursionStack := make(map[entities.PartNumber]bool)
	cycles := make([][]entities.PartNumber, 0)

	for _, id := range ids {
		if !visited[id] {
			v.dfsDetectCycle(id, assemblies, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

func (v *CatalogValidator) dfsDetectCycle(
	current entities.PartNumber,
	assemblies map[entities.PartNumber]*entities.Assembly,
	visited map[entities.PartNumber]bool,
	recursionStack map[entities.PartNumber]bool,
	path []entities.PartNumber,
	cycles *[][]entities.PartNumber,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	if assembly, ok := assemblies[current]; ok {
		for _, ref := range assembly.Components {
			if _, isAssembly := assemblies[ref.ChildID]; !isAssembly {
				continue
			}
			if !visited[ref.ChildID] {
				v.dfsDetectCycle(ref.ChildID, assemblies, visited, recursionStack, path, cycles)
			} else if recursionStack[ref.ChildID] {
				for i, id := range path {
					if id == ref.ChildID {
						cycle := make([]entities.PartNumber, 0, len(path)-i+1)
						cycle = append(cycle, path[i:]...)
						cycle = append(cycle, ref.ChildID)
						*cycles = append(*cycles, cycle)
						break
					}
				}
			}
		}
	}

	recursionStack[current] = false
}

func sortedAssemblyIDs(assemblies map[entities.PartNumber]*entities.Assembly) []entities.PartNumber {
	ids := make([]entities.PartNumber, 0, len(assemblies))
	for id := range assemblies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
