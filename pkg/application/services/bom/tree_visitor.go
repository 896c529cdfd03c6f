package bom

import (
	"context"
	"fmt"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// TreeVisitor implements NodeVisitor by materializing BOMNode trees
type TreeVisitor struct{}

// NewTreeVisitor creates a new tree visitor
func NewTreeVisitor() *TreeVisitor {
	return &TreeVisitor{}
}

// VisitNode creates the node for this catalog item
func (v *TreeVisitor) VisitNode(ctx context.Context, nodeCtx NodeContext) (any, bool, error) {
	node := &entities.BOMNode{
		ID:          nodeCtx.ID,
		Name:        nodeCtx.Item.DisplayName(),
		Quantity:    nodeCtx.Quantity,
		QuantityPer: nodeCtx.QuantityPer,
		ItemType:    nodeCtx.Source,
		Category:    Classify(nodeCtx.Item),
		Level:       nodeCtx.Level,
	}
	switch nodeCtx.Item.(type) {
	case *entities.Part:
		node.Kind = entities.NodePart
	case *entities.Assembly:
		node.Kind = entities.NodeAssembly
	default:
		return nil, false, fmt.Errorf("unsupported catalog item %T", nodeCtx.Item)
	}

	return node, true, nil
}

// ProcessChildren attaches the component subtrees in catalog order
func (v *TreeVisitor) ProcessChildren(
	ctx context.Context,
	nodeCtx NodeContext,
	nodeData any,
	childResults []any,
) (any, error) {
	node := nodeData.(*entities.BOMNode)
	for _, childResult := range childResults {
		if child, ok := childResult.(*entities.BOMNode); ok && child != nil {
			node.Components = append(node.Components, child)
		}
	}
	return node, nil
}

// Classify returns the reporting category of a catalog item: the category code for assemblies,
// the part type for parts
func Classify(item entities.CatalogItem) string {
	switch it := item.(type) {
	case *entities.Assembly:
		if it.CategoryCode == "" {
			return entities.CategoryUncategorized
		}
		return it.CategoryCode
	case *entities.Part:
		return it.Type.String()
	default:
		return entities.CategoryUncategorized
	}
}
