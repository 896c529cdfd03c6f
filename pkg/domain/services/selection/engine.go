// Package selection maps normalized build configuration choices to catalog ids.
// Every rule is a pure function of the configuration and one catalog snapshot.
package selection

import (
	"errors"
	"fmt"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/domain/repositories"
)

// RuleKey names a selection rule
type RuleKey string

const (
	RuleFrame      RuleKey = "FRAME"
	RuleBasinKit   RuleKey = "BASIN_KIT"
	RulePegboard   RuleKey = "PEGBOARD"
	RuleControlBox RuleKey = "CONTROL_BOX"
	RuleLegs       RuleKey = "LEGS"
	RuleFeet       RuleKey = "FEET"
	RuleManual     RuleKey = "MANUAL"
)

// ErrNotSelected is returned by Select when the configuration does not ask for the option
var ErrNotSelected = errors.New("option not selected")

// Selection is one top-level entry of a build's BOM
type Selection struct {
	ID       entities.PartNumber
	Quantity entities.Quantity
	Source   entities.ItemSource
	// Custom is set for basins without a catalog size; ID is empty and the caller synthesizes the item
	Custom *entities.BasinSpec
}

// Engine evaluates selection rules against one catalog
type Engine struct {
	catalog repositories.CatalogRepository
}

// NewEngine creates a selection engine bound to a catalog snapshot
func NewEngine(catalog repositories.CatalogRepository) *Engine {
	return &Engine{catalog: catalog}
}

// Select evaluates a configuration-level rule and returns the verified catalog id.
// Basin kits are per basin, see SelectBasinKit.
func (e *Engine) Select(key RuleKey, cfg *entities.BuildConfiguration) (entities.PartNumber, error) {
	switch key {
	case RuleFrame:
		return e.selectFromTable(cfg.BuildNumber, key, string(cfg.SinkModel), frameKits)
	case RulePegboard:
		return e.selectPegboard(cfg)
	case RuleControlBox:
		return e.selectControlBox(cfg)
	case RuleLegs:
		if cfg.LegType == "" {
			return "", ErrNotSelected
		}
		return e.selectFromTable(cfg.BuildNumber, key, string(cfg.LegType), legKits)
	case RuleFeet:
		if cfg.FeetType == "" {
			return "", ErrNotSelected
		}
		return e.selectFromTable(cfg.BuildNumber, key, string(cfg.FeetType), feetKits)
	case RuleManual:
		return e.selectManual(cfg)
	case RuleBasinKit:
		return "", fmt.Errorf("rule %s is evaluated per basin", key)
	default:
		return "", fmt.Errorf("unknown selection rule: %s", key)
	}
}

// Resolve returns every top-level entry of the build in a fixed order: frame, basins, faucets,
// sprayers, pegboard, control box, legs, feet, manual, accessories. All failing rules are reported,
// joined into one error.
func (e *Engine) Resolve(cfg *entities.BuildConfiguration) ([]Selection, error) {
	var (
		selections []Selection
		errs       []error
	)

	add := func(key RuleKey, source entities.ItemSource) {
		id, err := e.Select(key, cfg)
		switch {
		case errors.Is(err, ErrNotSelected):
		case err != nil:
			errs = append(errs, err)
		default:
			selections = append(selections, Selection{ID: id, Quantity: 1, Source: source})
		}
	}

	add(RuleFrame, entities.SourceSystem)

	for i := range cfg.Basins {
		basin := cfg.Basins[i]
		id, err := e.SelectBasinKit(cfg.BuildNumber, basin)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		selections = append(selections, Selection{ID: id, Quantity: 1, Source: entities.SourceBasin})
		if basin.IsCustom() {
			selections = append(selections, Selection{Quantity: 1, Source: entities.SourceBasin, Custom: &basin})
		}
	}

	for _, f := range cfg.Faucets {
		if err := e.requireItem(cfg.BuildNumber, f.AssemblyID); err != nil {
			errs = append(errs, err)
			continue
		}
		selections = append(selections, Selection{ID: f.AssemblyID, Quantity: f.Quantity, Source: entities.SourceFaucet})
	}

	for _, s := range cfg.Sprayers {
		if err := e.requireItem(cfg.BuildNumber, s.AssemblyID); err != nil {
			errs = append(errs, err)
			continue
		}
		selections = append(selections, Selection{ID: s.AssemblyID, Quantity: s.Quantity, Source: entities.SourceSprayer})
	}

	add(RulePegboard, entities.SourcePegboard)
	add(RuleControlBox, entities.SourceControlBox)
	add(RuleLegs, entities.SourceLegs)
	add(RuleFeet, entities.SourceFeet)
	add(RuleManual, entities.SourceManual)

	for _, a := range cfg.Accessories {
		if err := e.requireItem(cfg.BuildNumber, a.AssemblyID); err != nil {
			errs = append(errs, err)
			continue
		}
		selections = append(selections, Selection{ID: a.AssemblyID, Quantity: a.Quantity, Source: entities.SourceAccessory})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return selections, nil
}

func (e *Engine) selectFromTable(
	buildNumber string,
	key RuleKey,
	value string,
	table map[string]entities.PartNumber,
) (entities.PartNumber, error) {
	id, ok := table[value]
	if !ok {
		return "", &entities.AmbiguousSelectionError{BuildNumber: buildNumber, Rule: string(key), Key: value}
	}
	return id, e.requireKit(buildNumber, key, id)
}

// requireKit verifies a rule-derived id against the catalog
func (e *Engine) requireKit(buildNumber string, key RuleKey, id entities.PartNumber) error {
	if _, ok := e.catalog.GetAssembly(id); !ok {
		return &entities.MissingKitError{BuildNumber: buildNumber, Rule: string(key), KitID: id}
	}
	return nil
}

// requireItem verifies an id taken verbatim from the configuration
func (e *Engine) requireItem(buildNumber string, id entities.PartNumber) error {
	if _, ok := e.catalog.Lookup(id); !ok {
		return &entities.UnknownCatalogReferenceError{BuildNumber: buildNumber, ChildID: id}
	}
	return nil
}
