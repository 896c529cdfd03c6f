package bom

import (
	"context"
	"errors"
	"fmt"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/domain/repositories"
)

// ExpanderOptions configures recursive expansion
type ExpanderOptions struct {
	// MaxDepth caps nesting below a top-level entry; <= 0 selects DefaultMaxDepth
	MaxDepth int
	// CollectAllErrors keeps expanding sibling branches after a subtree fails
	CollectAllErrors bool
}

// Expansion is the expanded tree of one top-level entry
type Expansion struct {
	Root     *entities.BOMNode
	Warnings []error
}

// Expander builds quantity-resolved BOM trees from one catalog snapshot
type Expander struct {
	traverser *Traverser
}

// NewExpander creates an expander bound to catalog
func NewExpander(catalog repositories.CatalogRepository, opts ExpanderOptions) *Expander {
	return &Expander{
		traverser: NewTraverser(catalog, opts.MaxDepth, opts.CollectAllErrors),
	}
}

// Expand realizes id for quantity units. Every node's Quantity is quantity times the product of
// component quantities along its path. In collect-all mode the returned error joins every subtree
// failure and Expansion still carries the partial tree.
func (e *Expander) Expand(
	ctx context.Context,
	buildNumber string,
	id entities.PartNumber,
	quantity entities.Quantity,
	source entities.ItemSource,
) (*Expansion, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("build %s: quantity for %s must be positive, got %d", buildNumber, id, quantity)
	}

	result, err := e.traverser.Traverse(ctx, buildNumber, id, quantity, source, NewTreeVisitor())
	if err != nil {
		return nil, err
	}

	expansion := &Expansion{
		Root:     result.Root.(*entities.BOMNode),
		Warnings: result.Warnings,
	}
	if len(result.Errors) > 0 {
		return expansion, errors.Join(result.Errors...)
	}
	return expansion, nil
}
