package bom

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/sinkbom/pkg/application/dto"
	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/domain/services"
	"github.com/vsinha/sinkbom/pkg/infrastructure/events"
	"github.com/vsinha/sinkbom/pkg/infrastructure/metrics"
	testhelpers "github.com/vsinha/sinkbom/pkg/infrastructure/testing"
)

// sampleOrder is a single-basin B1 build and a two-drain B2 build with pegboard and accessories
func sampleOrder() *dto.GenerateBOMRequest {
	return &dto.GenerateBOMRequest{
		Customer:     dto.Customer{Name: "Acme Labs", PONumber: "PO-7781"},
		BuildNumbers: []string{"A", "B"},
		Configurations: map[string]entities.RawConfiguration{
			"A": {
				"sinkModel":  "T2-B1",
				"sinkLength": 48,
				"basins":     []any{map[string]any{"type": "E_SINK", "sizeCode": "24X20X8"}},
				"faucets":    []any{map[string]any{"assemblyId": "T2-FAUCET-STD"}},
			},
			"B": {
				"sinkModel":  "T2-B2",
				"sinkLength": 72,
				"basins": []any{
					map[string]any{"type": "E_DRAIN", "sizeCode": "24X20X8"},
					map[string]any{"type": "E_DRAIN", "sizeCode": "24X20X8"},
				},
				"pegboard":       true,
				"pegboardLength": 50,
				"pegboardColor":  "BLUE",
			},
		},
		Accessories: map[string][]entities.AccessoryLine{
			"B": {
				{AssemblyID: "T2-SHELF-KIT", Quantity: 1},
				{AssemblyID: "T2-BIN-RAIL", Quantity: 2},
			},
		},
	}
}

func withUnmappedBuild(req *dto.GenerateBOMRequest) *dto.GenerateBOMRequest {
	req.BuildNumbers = append(req.BuildNumbers, "C")
	req.Configurations["C"] = entities.RawConfiguration{
		"sinkModel": "T2-B1",
		"basins":    []any{map[string]any{"type": "E_SINK_DI", "sizeCode": "24X20X8"}},
	}
	return req
}

func flattenedByID(result *dto.GenerateBOMResult) map[entities.PartNumber]entities.FlattenedItem {
	out := make(map[entities.PartNumber]entities.FlattenedItem, len(result.Flattened))
	for _, item := range result.Flattened {
		out[item.PartNumber] = item
	}
	return out
}

func TestGenerateBOM_SampleOrder(t *testing.T) {
	g := NewGenerator(Options{})
	g.newID = func() string { return "gen-1" }

	result, err := g.GenerateBOM(context.Background(), testhelpers.SinkCatalog(), sampleOrder())
	require.NoError(t, err)

	assert.Equal(t, "gen-1", result.GenerationID)
	assert.Equal(t, "test", result.CatalogVersion)
	assert.Equal(t, "Acme Labs", result.Customer.Name)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)

	assert.Equal(t, 25, result.TotalItems)
	assert.Equal(t, int64(106), result.TotalQuantity)

	a := result.PerBuildSummary["A"]
	assert.Equal(t, dto.BuildSucceeded, a.Status)
	assert.Equal(t, entities.ModelB1, a.SinkModel)
	assert.Equal(t, 5, a.TopLevelItems)
	assert.Equal(t, int64(33), a.TotalQuantity)

	b := result.PerBuildSummary["B"]
	assert.Equal(t, dto.BuildSucceeded, b.Status)
	assert.Equal(t, 8, b.TopLevelItems)
	assert.Equal(t, int64(73), b.TotalQuantity)

	roots := result.Hierarchical["B"]
	require.Len(t, roots, 8)
	assert.Equal(t, entities.PartNumber("T2-B2-SYS-KIT"), roots[0].ID)
	assert.Equal(t, entities.PartNumber("T2-ADW-PB-4836-BLUE-PERF-KIT"), roots[3].ID)
	assert.Equal(t, entities.PartNumber("T2-CTRL-EDR2"), roots[4].ID)
	assert.Equal(t, entities.PartNumber("T2-BIN-RAIL"), roots[7].ID)
	assert.Equal(t, entities.Quantity(2), roots[7].Quantity)

	items := flattenedByID(result)
	assert.Equal(t, entities.Quantity(32), items["HW-BOLT-M8"].Quantity)
	assert.Equal(t, entities.Quantity(34), items["HW-NUT-M8"].Quantity)
	assert.Equal(t, entities.Quantity(7), items["T2-FASTENER-KIT"].Quantity)
	assert.Equal(t, entities.Quantity(2), items["T2-OM-EN"].Quantity)
	assert.Equal(t, entities.Quantity(3), items["T2-DRAIN-ASSY"].Quantity)
	assert.Equal(t, entities.Quantity(2), items["T2-CTRL-PCB"].Quantity)
	assert.Equal(t, []string{"A", "B"}, items["HW-BOLT-M8"].BuildNumbers)
	assert.Equal(t, []string{"B"}, items["T2-SHELF-KIT"].BuildNumbers)
	assert.Contains(t, items["HW-NUT-M8"].Sources, entities.SourceBasin)
}

func TestGenerateBOM_Deterministic(t *testing.T) {
	catalog := testhelpers.SinkCatalog()
	serial := NewGenerator(Options{Workers: 1})
	parallel := NewGenerator(Options{Workers: 8})

	first, err := serial.GenerateBOM(context.Background(), catalog, sampleOrder())
	require.NoError(t, err)
	second, err := parallel.GenerateBOM(context.Background(), catalog, sampleOrder())
	require.NoError(t, err)

	assert.NotEqual(t, first.GenerationID, second.GenerationID)
	assert.Equal(t, first.Flattened, second.Flattened)
	assert.Equal(t, first.Hierarchical, second.Hierarchical)
}

func TestGenerateBOM_FailedBuildAbortsByDefault(t *testing.T) {
	g := NewGenerator(Options{})

	result, err := g.GenerateBOM(context.Background(), testhelpers.SinkCatalog(), withUnmappedBuild(sampleOrder()))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrBuildsFailed)

	var genErr *dto.GenerationError
	require.ErrorAs(t, err, &genErr)
	require.Len(t, genErr.Issues, 1)
	assert.Equal(t, entities.KindAmbiguousSelection, genErr.Issues[0].Kind)
	assert.Equal(t, "C", genErr.Issues[0].BuildNumber)
	assert.Equal(t, "E_SINK_DI:1", genErr.Issues[0].Subject)
}

func TestGenerateBOM_PartialSuccess(t *testing.T) {
	g := NewGenerator(Options{PartialSuccess: true})
	req := withUnmappedBuild(sampleOrder())

	result, err := g.GenerateBOM(context.Background(), testhelpers.SinkCatalog(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"C"}, result.FailedBuilds(req.BuildNumbers))
	assert.NotContains(t, result.Hierarchical, "C")
	assert.Equal(t, 25, result.TotalItems)
	assert.Equal(t, int64(106), result.TotalQuantity)

	c := result.PerBuildSummary["C"]
	assert.Equal(t, dto.BuildFailed, c.Status)
	assert.Equal(t, 1, c.Errors)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, entities.KindAmbiguousSelection, result.Errors[0].Kind)

	for _, item := range result.Flattened {
		assert.NotContains(t, item.BuildNumbers, "C")
	}
}

func TestGenerateBOM_PreflightAbortsOrder(t *testing.T) {
	g := NewGenerator(Options{PartialSuccess: true})
	req := sampleOrder()
	req.Configurations["B"] = entities.RawConfiguration{"sinkLength": 60}

	_, err := g.GenerateBOM(context.Background(), testhelpers.SinkCatalog(), req)
	assert.ErrorIs(t, err, ErrPreflightFailed)

	var genErr *dto.GenerationError
	require.ErrorAs(t, err, &genErr)
	require.Len(t, genErr.Issues, 2)
	for _, issue := range genErr.Issues {
		assert.Equal(t, entities.KindConfigurationIncomplete, issue.Kind)
		assert.Equal(t, "B", issue.BuildNumber)
	}
}

func TestGenerateBOM_OrderLevelErrors(t *testing.T) {
	g := NewGenerator(Options{})
	catalog := testhelpers.SinkCatalog()

	_, err := g.GenerateBOM(context.Background(), catalog, &dto.GenerateBOMRequest{})
	assert.ErrorIs(t, err, services.ErrNoBuildNumbers)

	_, err = g.GenerateBOM(context.Background(), catalog, &dto.GenerateBOMRequest{BuildNumbers: []string{"A"}})
	assert.ErrorIs(t, err, services.ErrNoConfigurations)

	req := sampleOrder()
	req.BuildNumbers = []string{"A", "A"}
	_, err = g.GenerateBOM(context.Background(), catalog, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate build number: A")

	_, err = g.GenerateBOM(context.Background(), nil, sampleOrder())
	assert.Error(t, err)
}

func TestGenerateBOM_CustomBasin(t *testing.T) {
	g := NewGenerator(Options{})
	req := &dto.GenerateBOMRequest{
		BuildNumbers: []string{"X"},
		Configurations: map[string]entities.RawConfiguration{
			"X": {
				"sinkModel": "T2-B1",
				"basins": []any{map[string]any{
					"type": "E_SINK", "customWidth": 30, "customLength": 20, "customDepth": 10,
				}},
			},
		},
	}

	result, err := g.GenerateBOM(context.Background(), testhelpers.SinkCatalog(), req)
	require.NoError(t, err)

	items := flattenedByID(result)
	custom, ok := items["CUSTOM-BASIN-30X20X10"]
	require.True(t, ok)
	assert.True(t, custom.IsCustom)
	assert.Equal(t, entities.CategoryCustom, custom.Category)
	assert.Equal(t, entities.NodeCustom, custom.Kind)
	assert.Equal(t, entities.Quantity(1), custom.Quantity)

	_, ok = items["T2-BSN-ESK-KIT"]
	assert.True(t, ok, "custom basins still get their hardware kit")
	assert.Equal(t, entities.Quantity(1), items["T2-DRAIN-ASSY"].Quantity)
}

func TestGenerateBOM_EmptyKitIsAWarning(t *testing.T) {
	catalog := testhelpers.SinkCatalogBuilder().
		Assembly("T2-EMPTY-KIT", "Empty kit", entities.Kit, "ACCESSORY").
		Build()
	g := NewGenerator(Options{})
	req := sampleOrder()
	req.Accessories["A"] = []entities.AccessoryLine{{AssemblyID: "T2-EMPTY-KIT", Quantity: 1}}

	result, err := g.GenerateBOM(context.Background(), catalog, req)
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, entities.KindIntegrityWarning, result.Warnings[0].Kind)
	assert.Equal(t, "A", result.Warnings[0].BuildNumber)
	assert.Equal(t, 1, result.PerBuildSummary["A"].Warnings)
	assert.Equal(t, dto.BuildSucceeded, result.PerBuildSummary["A"].Status)
	assert.Equal(t, entities.Quantity(1), flattenedByID(result)["T2-EMPTY-KIT"].Quantity)
}

func TestGenerateBOM_Canceled(t *testing.T) {
	g := NewGenerator(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.GenerateBOM(ctx, testhelpers.SinkCatalog(), sampleOrder())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateBOM_PublishesEvents(t *testing.T) {
	store := events.NewInMemoryEventStore(zap.NewNop())
	g := NewGenerator(Options{PartialSuccess: true}, WithEventStore(store), WithLogger(zap.NewNop()))
	g.newID = func() string { return "gen-events" }

	_, err := g.GenerateBOM(context.Background(), testhelpers.SinkCatalog(), withUnmappedBuild(sampleOrder()))
	require.NoError(t, err)

	stream, err := store.ReadEvents("gen-events", 0)
	require.NoError(t, err)

	types := make([]string, len(stream))
	for i, e := range stream {
		types[i] = e.Type()
	}
	assert.Equal(t, []string{
		events.GenerationStartedEvent,
		events.BuildExpandedEvent,
		events.BuildExpandedEvent,
		events.BuildFailedEvent,
		events.GenerationCompletedEvent,
	}, types)

	completed, ok := stream[len(stream)-1].Data().(events.GenerationCompleted)
	require.True(t, ok)
	assert.Equal(t, 2, completed.SucceededBuilds)
	assert.Equal(t, 1, completed.FailedBuilds)
	assert.Equal(t, int64(106), completed.TotalQuantity)
}

func TestGenerateBOM_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	g := NewGenerator(Options{PartialSuccess: true}, WithMetrics(recorder))

	_, err := g.GenerateBOM(context.Background(), testhelpers.SinkCatalog(), withUnmappedBuild(sampleOrder()))
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(recorder.GenerationsTotal.WithLabelValues("partial")))
	assert.Equal(t, float64(2), testutil.ToFloat64(recorder.BuildsTotal.WithLabelValues("succeeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(recorder.BuildsTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		recorder.BuildIssuesTotal.WithLabelValues(string(entities.KindAmbiguousSelection), entities.SeverityFatal.String())))

	_, err = g.GenerateBOM(context.Background(), testhelpers.SinkCatalog(), &dto.GenerateBOMRequest{})
	require.True(t, errors.Is(err, services.ErrNoBuildNumbers))
	assert.Equal(t, float64(1), testutil.ToFloat64(recorder.GenerationsTotal.WithLabelValues("rejected")))
}
