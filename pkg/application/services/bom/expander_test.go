package bom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
	testhelpers "github.com/vsinha/sinkbom/pkg/infrastructure/testing"
)

func quantities(root *entities.BOMNode) map[entities.PartNumber]entities.Quantity {
	out := make(map[entities.PartNumber]entities.Quantity)
	root.Walk(func(n *entities.BOMNode) { out[n.ID] += n.Quantity })
	return out
}

func TestExpand_SystemKit(t *testing.T) {
	expander := NewExpander(testhelpers.SinkCatalog(), ExpanderOptions{})

	expansion, err := expander.Expand(context.Background(), "B-1", "T2-B1-SYS-KIT", 1, entities.SourceSystem)
	require.NoError(t, err)
	require.Empty(t, expansion.Warnings)

	root := expansion.Root
	assert.Equal(t, entities.PartNumber("T2-B1-SYS-KIT"), root.ID)
	assert.Equal(t, entities.NodeAssembly, root.Kind)
	assert.Equal(t, "SYSTEM", root.Category)
	assert.Equal(t, 0, root.Level)
	require.Len(t, root.Components, 2)

	frame := root.Components[0]
	assert.Equal(t, entities.PartNumber("T2-FRAME-B1"), frame.ID)
	assert.Equal(t, entities.NodePart, frame.Kind)
	assert.Equal(t, "COMPONENT", frame.Category)
	assert.True(t, frame.IsLeaf())

	fasteners := root.Components[1]
	assert.Equal(t, entities.Quantity(2), fasteners.Quantity)
	assert.Equal(t, entities.Quantity(2), fasteners.QuantityPer)
	require.Len(t, fasteners.Components, 2)
	assert.Equal(t, entities.Quantity(8), fasteners.Components[0].Quantity)
	assert.Equal(t, entities.Quantity(4), fasteners.Components[0].QuantityPer)
	assert.Equal(t, 2, fasteners.Components[0].Level)

	root.Walk(func(n *entities.BOMNode) {
		assert.Equal(t, entities.SourceSystem, n.ItemType, n.ID)
	})
	assert.Equal(t, 5, root.CountNodes())
}

func TestExpand_QuantityDistributes(t *testing.T) {
	expander := NewExpander(testhelpers.SinkCatalog(), ExpanderOptions{})
	ctx := context.Background()

	one, err := expander.Expand(ctx, "B-1", "T2-B3-SYS-KIT", 1, entities.SourceSystem)
	require.NoError(t, err)
	three, err := expander.Expand(ctx, "B-1", "T2-B3-SYS-KIT", 3, entities.SourceSystem)
	require.NoError(t, err)

	single := quantities(one.Root)
	for id, q := range quantities(three.Root) {
		assert.Equal(t, 3*single[id], q, id)
	}
	assert.Equal(t, entities.Quantity(48), quantities(three.Root)["HW-BOLT-M8"])
}

func TestExpand_SharedSubassemblyIsNotACycle(t *testing.T) {
	catalog := testhelpers.SinkCatalogBuilder().
		Assembly("DIAMOND", "Diamond", entities.Complex, "SYSTEM",
			"T2-SHELF-KIT", 1, "T2-DL27-KIT", 1, "T2-FASTENER-KIT", 2).
		Build()
	expander := NewExpander(catalog, ExpanderOptions{})

	expansion, err := expander.Expand(context.Background(), "B-1", "DIAMOND", 1, entities.SourceAccessory)
	require.NoError(t, err)

	var fastenerNodes int
	expansion.Root.Walk(func(n *entities.BOMNode) {
		if n.ID == "T2-FASTENER-KIT" {
			fastenerNodes++
		}
	})
	assert.Equal(t, 3, fastenerNodes)
	assert.Equal(t, entities.Quantity(16), quantities(expansion.Root)["HW-BOLT-M8"])
}

func TestExpand_CycleDetected(t *testing.T) {
	catalog := testhelpers.SinkCatalogBuilder().
		Assembly("LOOP-A", "Loop A", entities.Kit, "SYSTEM", "HW-BOLT-M8", 1, "LOOP-B", 1).
		Assembly("LOOP-B", "Loop B", entities.Kit, "SYSTEM", "LOOP-A", 2).
		Build()
	expander := NewExpander(catalog, ExpanderOptions{})

	_, err := expander.Expand(context.Background(), "B-7", "LOOP-A", 1, entities.SourceAccessory)
	var cycle *entities.CycleDetectedError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, "B-7", cycle.BuildNumber)
	assert.Equal(t, []entities.PartNumber{"LOOP-A", "LOOP-B", "LOOP-A"}, cycle.Path)
}

func TestExpand_SelfReference(t *testing.T) {
	catalog := testhelpers.SinkCatalogBuilder().
		RawAssembly(&entities.Assembly{
			ID:         "SELF",
			Name:       "Self referencing kit",
			Type:       entities.Kit,
			Components: []entities.ComponentRef{{ChildID: "SELF", Quantity: 1}},
		}).
		Build()
	expander := NewExpander(catalog, ExpanderOptions{})

	_, err := expander.Expand(context.Background(), "B-1", "SELF", 1, entities.SourceAccessory)
	var cycle *entities.CycleDetectedError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []entities.PartNumber{"SELF", "SELF"}, cycle.Path)
}

func TestExpand_DepthLimit(t *testing.T) {
	b := testhelpers.SinkCatalogBuilder().
		Assembly("D0", "Level 0", entities.Complex, "SYSTEM", "D1", 1).
		Assembly("D1", "Level 1", entities.Complex, "SYSTEM", "D2", 1).
		Assembly("D2", "Level 2", entities.Complex, "SYSTEM", "D3", 1).
		Assembly("D3", "Level 3", entities.Complex, "SYSTEM", "HW-NUT-M8", 1)
	catalog := b.Build()

	_, err := NewExpander(catalog, ExpanderOptions{MaxDepth: 4}).
		Expand(context.Background(), "B-1", "D0", 1, entities.SourceSystem)
	require.NoError(t, err)

	_, err = NewExpander(catalog, ExpanderOptions{MaxDepth: 3}).
		Expand(context.Background(), "B-1", "D0", 1, entities.SourceSystem)
	var depth *entities.DepthExceededError
	require.ErrorAs(t, err, &depth)
	assert.Equal(t, entities.PartNumber("HW-NUT-M8"), depth.AssemblyID)
	assert.Equal(t, 3, depth.MaxDepth)
}

func TestExpand_UnknownComponent(t *testing.T) {
	catalog := testhelpers.SinkCatalogBuilder().
		Assembly("BROKEN", "Broken kit", entities.Kit, "ACCESSORY", "T2-SHELF-PART", 1, "GHOST", 2, "HW-NUT-M8", 1).
		Build()

	_, err := NewExpander(catalog, ExpanderOptions{}).
		Expand(context.Background(), "B-1", "BROKEN", 1, entities.SourceAccessory)
	var unknown *entities.UnknownCatalogReferenceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, entities.PartNumber("BROKEN"), unknown.ParentID)
	assert.Equal(t, entities.PartNumber("GHOST"), unknown.ChildID)
}

func TestExpand_CollectAllErrors(t *testing.T) {
	catalog := testhelpers.SinkCatalogBuilder().
		Assembly("BROKEN", "Broken kit", entities.Kit, "ACCESSORY",
			"T2-SHELF-PART", 1, "GHOST", 2, "LOOP-A", 1, "HW-NUT-M8", 1).
		Assembly("LOOP-A", "Loop A", entities.Kit, "SYSTEM", "LOOP-B", 1).
		Assembly("LOOP-B", "Loop B", entities.Kit, "SYSTEM", "LOOP-A", 1).
		Build()

	expansion, err := NewExpander(catalog, ExpanderOptions{CollectAllErrors: true}).
		Expand(context.Background(), "B-1", "BROKEN", 1, entities.SourceAccessory)
	require.Error(t, err)
	require.NotNil(t, expansion)

	var (
		unknown *entities.UnknownCatalogReferenceError
		cycle   *entities.CycleDetectedError
	)
	assert.True(t, errors.As(err, &unknown))
	assert.True(t, errors.As(err, &cycle))
	assert.Len(t, entities.IssuesFromError(err), 2)

	ids := make([]entities.PartNumber, 0)
	for _, child := range expansion.Root.Components {
		ids = append(ids, child.ID)
	}
	assert.Equal(t, []entities.PartNumber{"T2-SHELF-PART", "LOOP-A", "HW-NUT-M8"}, ids)
}

func TestExpand_EmptyKitWarns(t *testing.T) {
	catalog := testhelpers.SinkCatalogBuilder().
		Assembly("T2-EMPTY-KIT", "Empty kit", entities.Kit, "ACCESSORY").
		Build()
	expander := NewExpander(catalog, ExpanderOptions{})

	expansion, err := expander.Expand(context.Background(), "B-1", "T2-EMPTY-KIT", 2, entities.SourceAccessory)
	require.NoError(t, err)
	assert.True(t, expansion.Root.IsLeaf())
	assert.Equal(t, entities.Quantity(2), expansion.Root.Quantity)
	require.Len(t, expansion.Warnings, 1)

	var warning *entities.CatalogIntegrityWarning
	require.ErrorAs(t, expansion.Warnings[0], &warning)
	assert.Equal(t, entities.PartNumber("T2-EMPTY-KIT"), warning.AssemblyID)
	assert.False(t, entities.NewIssue(warning).IsFatal())

	expansion, err = expander.Expand(context.Background(), "B-1", "T2-BIN-RAIL", 1, entities.SourceAccessory)
	require.NoError(t, err)
	assert.Empty(t, expansion.Warnings, "childless SIMPLE assemblies are plain leaves")
}

func TestExpand_RejectsNonPositiveQuantity(t *testing.T) {
	expander := NewExpander(testhelpers.SinkCatalog(), ExpanderOptions{})

	_, err := expander.Expand(context.Background(), "B-1", "T2-FASTENER-KIT", 0, entities.SourceSystem)
	assert.Error(t, err)
}

func TestExpand_QuantityOverflow(t *testing.T) {
	expander := NewExpander(testhelpers.SinkCatalog(), ExpanderOptions{})

	_, err := expander.Expand(context.Background(), "B-1", "T2-FASTENER-KIT", 1<<62, entities.SourceSystem)
	var overflow *entities.QuantityOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, "B-1", overflow.BuildNumber)
	assert.Equal(t, entities.KindQuantityOverflow, entities.NewIssue(err).Kind)
	assert.True(t, entities.NewIssue(err).IsFatal())
}

func TestExpand_Canceled(t *testing.T) {
	expander := NewExpander(testhelpers.SinkCatalog(), ExpanderOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := expander.Expand(ctx, "B-1", "T2-B1-SYS-KIT", 1, entities.SourceSystem)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	catalog := testhelpers.SinkCatalogBuilder().
		Assembly("LOOSE", "Uncategorized kit", entities.Kit, "", "HW-NUT-M8", 1).
		Build()

	item, _ := catalog.Lookup("LOOSE")
	assert.Equal(t, entities.CategoryUncategorized, Classify(item))
	item, _ = catalog.Lookup("T2-FAUCET-STD")
	assert.Equal(t, "FAUCET", Classify(item))
	item, _ = catalog.Lookup("HW-BOLT-M8")
	assert.Equal(t, "HARDWARE", Classify(item))
}
