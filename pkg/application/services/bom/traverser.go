package bom

import (
	"context"
	"errors"
	"fmt"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/domain/repositories"
)

// DefaultMaxDepth bounds expansion depth when no limit is configured
const DefaultMaxDepth = 32

// NodeContext provides context information during catalog traversal
type NodeContext struct {
	BuildNumber string
	ID          entities.PartNumber
	Item        entities.CatalogItem
	Quantity    entities.Quantity // total for the build
	QuantityPer entities.Quantity // per one unit of the parent
	Source      entities.ItemSource
	Level       int
	Path        []entities.PartNumber // ancestors on the current call chain, root first
}

// NodeVisitor defines the interface for processing nodes during traversal
type NodeVisitor interface {
	// VisitNode is called for each node before its components.
	// Returns data to be passed to ProcessChildren and whether to descend.
	VisitNode(ctx context.Context, nodeCtx NodeContext) (any, bool, error)

	// ProcessChildren is called after all components were traversed.
	// childResults holds one entry per successfully traversed component.
	ProcessChildren(ctx context.Context, nodeCtx NodeContext, nodeData any, childResults []any) (any, error)
}

// Traverser walks the assembly graph of one catalog
type Traverser struct {
	catalog          repositories.CatalogRepository
	maxDepth         int
	collectAllErrors bool
}

// NewTraverser creates a traverser. maxDepth <= 0 selects DefaultMaxDepth.
func NewTraverser(catalog repositories.CatalogRepository, maxDepth int, collectAllErrors bool) *Traverser {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Traverser{
		catalog:          catalog,
		maxDepth:         maxDepth,
		collectAllErrors: collectAllErrors,
	}
}

// TraversalResult is the outcome of one traversal
type TraversalResult struct {
	Root     any
	Warnings []error
	// Errors holds the subtree failures skipped in collect-all mode
	Errors []error
}

// Traverse walks id and everything below it with the visitor. Cycles are detected against the
// current call chain only, so an id may appear in several independent branches.
// In collect-all mode a failing component is skipped and recorded while its siblings continue;
// otherwise the first failure is returned. Context cancellation always aborts.
func (t *Traverser) Traverse(
	ctx context.Context,
	buildNumber string,
	id entities.PartNumber,
	quantity entities.Quantity,
	source entities.ItemSource,
	visitor NodeVisitor,
) (*TraversalResult, error) {
	w := &walk{
		traverser:   t,
		buildNumber: buildNumber,
		source:      source,
		visitor:     visitor,
		onPath:      make(map[entities.PartNumber]bool),
	}

	root, err := w.visit(ctx, id, quantity, 1, 0)
	if err != nil {
		return nil, err
	}
	return &TraversalResult{Root: root, Warnings: w.warnings, Errors: w.errs}, nil
}

type walk struct {
	traverser   *Traverser
	buildNumber string
	source      entities.ItemSource
	visitor     NodeVisitor
	onPath      map[entities.PartNumber]bool
	path        []entities.PartNumber
	warnings    []error
	errs        []error
}

func (w *walk) visit(
	ctx context.Context,
	id entities.PartNumber,
	quantityPer entities.Quantity,
	parentQuantity entities.Quantity,
	level int,
) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.onPath[id] {
		cycle := append(append([]entities.PartNumber(nil), w.path...), id)
		return nil, &entities.CycleDetectedError{BuildNumber: w.buildNumber, Path: cycle}
	}
	if level > w.traverser.maxDepth {
		return nil, &entities.DepthExceededError{
			BuildNumber: w.buildNumber,
			AssemblyID:  id,
			MaxDepth:    w.traverser.maxDepth,
		}
	}

	item, ok := w.traverser.catalog.Lookup(id)
	if !ok {
		return nil, &entities.UnknownCatalogReferenceError{
			BuildNumber: w.buildNumber,
			ParentID:    w.parent(),
			ChildID:     id,
		}
	}

	quantity, ok := parentQuantity.Mul(quantityPer)
	if !ok {
		return nil, &entities.QuantityOverflowError{BuildNumber: w.buildNumber, ItemID: id}
	}

	nodeCtx := NodeContext{
		BuildNumber: w.buildNumber,
		ID:          id,
		Item:        item,
		Quantity:    quantity,
		QuantityPer: quantityPer,
		Source:      w.source,
		Level:       level,
		Path:        append([]entities.PartNumber(nil), w.path...),
	}

	nodeData, descend, err := w.visitor.VisitNode(ctx, nodeCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to visit node %s: %w", id, err)
	}
	if !descend {
		return w.visitor.ProcessChildren(ctx, nodeCtx, nodeData, nil)
	}

	components, err := w.components(item)
	if err != nil {
		return nil, err
	}

	w.onPath[id] = true
	w.path = append(w.path, id)
	defer func() {
		delete(w.onPath, id)
		w.path = w.path[:len(w.path)-1]
	}()

	var childResults []any
	for _, ref := range components {
		childResult, err := w.visit(ctx, ref.ChildID, ref.Quantity, nodeCtx.Quantity, level+1)
		if err != nil {
			if w.traverser.collectAllErrors && collectable(err) {
				w.errs = append(w.errs, err)
				continue
			}
			return nil, err
		}
		childResults = append(childResults, childResult)
	}

	return w.visitor.ProcessChildren(ctx, nodeCtx, nodeData, childResults)
}

// components returns what item expands into. Parts and childless SIMPLE or SERVICE_PART
// assemblies are leaves; a KIT or COMPLEX assembly without components is a leaf with a warning.
func (w *walk) components(item entities.CatalogItem) ([]entities.ComponentRef, error) {
	switch it := item.(type) {
	case *entities.Part:
		return nil, nil
	case *entities.Assembly:
		switch it.Type {
		case entities.Simple, entities.ServicePart:
			return it.Components, nil
		case entities.Kit, entities.Complex:
			if len(it.Components) == 0 {
				w.warnings = append(w.warnings, &entities.CatalogIntegrityWarning{
					BuildNumber: w.buildNumber,
					AssemblyID:  it.ID,
					Reason:      fmt.Sprintf("%s assembly has no components; BOM branch is incomplete", it.Type),
				})
			}
			return it.Components, nil
		default:
			return nil, fmt.Errorf("assembly %s has unsupported type %d", it.ID, int(it.Type))
		}
	default:
		return nil, fmt.Errorf("unsupported catalog item %T", item)
	}
}

func (w *walk) parent() entities.PartNumber {
	if len(w.path) == 0 {
		return ""
	}
	return w.path[len(w.path)-1]
}

// collectable reports whether err fails only its own subtree
func collectable(err error) bool {
	var (
		unknown  *entities.UnknownCatalogReferenceError
		cycle    *entities.CycleDetectedError
		depth    *entities.DepthExceededError
		overflow *entities.QuantityOverflowError
	)
	return errors.As(err, &unknown) || errors.As(err, &cycle) || errors.As(err, &depth) ||
		errors.As(err, &overflow)
}
