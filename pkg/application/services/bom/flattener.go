package bom

import (
	"sort"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// BuildTree is the hierarchical BOM of one build
type BuildTree struct {
	BuildNumber string
	Roots       []*entities.BOMNode
}

// Flattener aggregates build trees into one procurement list
type Flattener struct{}

// NewFlattener creates a new flattener
func NewFlattener() *Flattener {
	return &Flattener{}
}

type accumulator struct {
	item    entities.FlattenedItem
	sources map[entities.ItemSource]bool
	builds  map[string]bool
}

// Flatten walks every tree, multiplying QuantityPer along each path from a root multiplier of 1,
// and sums every occurrence per id. Sources and build numbers are unioned, and when occurrences
// of one id disagree on the description the smallest one wins. The result is sorted by category
// then id and does not depend on the order of builds or siblings. A product or sum outside the
// Quantity range returns a *entities.QuantityOverflowError.
func (f *Flattener) Flatten(trees []BuildTree) ([]entities.FlattenedItem, error) {
	acc := make(map[entities.PartNumber]*accumulator)

	var walk func(buildNumber string, node *entities.BOMNode, multiplier entities.Quantity) error
	walk = func(buildNumber string, node *entities.BOMNode, multiplier entities.Quantity) error {
		quantity, ok := multiplier.Mul(node.QuantityPer)
		if !ok {
			return &entities.QuantityOverflowError{BuildNumber: buildNumber, ItemID: node.ID}
		}

		a, ok := acc[node.ID]
		if !ok {
			a = &accumulator{
				item: entities.FlattenedItem{
					PartNumber:  node.ID,
					Description: node.Name,
					Category:    node.Category,
					Kind:        node.Kind,
					IsCustom:    node.IsCustom,
				},
				sources: make(map[entities.ItemSource]bool),
				builds:  make(map[string]bool),
			}
			acc[node.ID] = a
		} else if node.Name < a.item.Description {
			a.item.Description = node.Name
		}
		if a.item.Quantity, ok = a.item.Quantity.Add(quantity); !ok {
			return &entities.QuantityOverflowError{ItemID: node.ID}
		}
		a.sources[node.ItemType] = true
		a.builds[buildNumber] = true

		for _, child := range node.Components {
			if err := walk(buildNumber, child, quantity); err != nil {
				return err
			}
		}
		return nil
	}

	for _, tree := range trees {
		for _, root := range tree.Roots {
			if err := walk(tree.BuildNumber, root, 1); err != nil {
				return nil, err
			}
		}
	}

	items := make([]entities.FlattenedItem, 0, len(acc))
	for _, a := range acc {
		item := a.item
		item.Sources = sortedSources(a.sources)
		item.BuildNumbers = sortedStrings(a.builds)
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].PartNumber < items[j].PartNumber
	})

	return items, nil
}

// Totals returns the number of distinct lines and the summed quantity
func Totals(items []entities.FlattenedItem) (totalItems int, totalQuantity int64, err error) {
	var sum entities.Quantity
	for _, item := range items {
		var ok bool
		if sum, ok = sum.Add(item.Quantity); !ok {
			return 0, 0, &entities.QuantityOverflowError{ItemID: item.PartNumber}
		}
	}
	return len(items), int64(sum), nil
}

func sortedSources(set map[entities.ItemSource]bool) []entities.ItemSource {
	out := make([]entities.ItemSource, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
