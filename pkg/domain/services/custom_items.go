package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// CustomSpec describes a configuration value with no catalog backing
type CustomSpec struct {
	Kind   string
	Width  decimal.Decimal
	Length decimal.Decimal
	Depth  decimal.Decimal
	Source entities.ItemSource
}

// BasinCustomSpec describes a basin given by dimensions instead of a size code
func BasinCustomSpec(basin entities.BasinSpec) CustomSpec {
	return CustomSpec{
		Kind:   "BASIN",
		Width:  basin.CustomWidth,
		Length: basin.CustomLength,
		Depth:  basin.CustomDepth,
		Source: entities.SourceBasin,
	}
}

// CustomItemSynthesizer creates leaf nodes for custom items. The ids are deterministic and
// never resolved against the catalog.
type CustomItemSynthesizer struct{}

// NewCustomItemSynthesizer creates a new synthesizer
func NewCustomItemSynthesizer() *CustomItemSynthesizer {
	return &CustomItemSynthesizer{}
}

// CustomID returns the synthetic id, e.g. CUSTOM-BASIN-30X20X10
func (s *CustomItemSynthesizer) CustomID(spec CustomSpec) entities.PartNumber {
	return entities.PartNumber(fmt.Sprintf("CUSTOM-%s-%sX%sX%s",
		strings.ToUpper(spec.Kind), spec.Width.String(), spec.Length.String(), spec.Depth.String()))
}

// Synthesize returns a custom leaf node for quantity units of spec. Name, like the id, depends
// only on kind and dimensions, so equal custom items from different builds stay one line.
func (s *CustomItemSynthesizer) Synthesize(spec CustomSpec, quantity entities.Quantity) *entities.BOMNode {
	name := fmt.Sprintf("Custom %s %s\" W x %s\" L x %s\" D",
		strings.ToLower(spec.Kind), spec.Width.String(), spec.Length.String(), spec.Depth.String())

	return &entities.BOMNode{
		ID:          s.CustomID(spec),
		Name:        name,
		Quantity:    quantity,
		QuantityPer: quantity,
		ItemType:    spec.Source,
		Kind:        entities.NodeCustom,
		Category:    entities.CategoryCustom,
		IsCustom:    true,
	}
}
