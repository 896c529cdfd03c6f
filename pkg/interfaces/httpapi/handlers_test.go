package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/sinkbom/pkg/application/services/bom"
	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/infrastructure/catalogstore"
	"github.com/vsinha/sinkbom/pkg/infrastructure/events"
	"github.com/vsinha/sinkbom/pkg/infrastructure/metrics"
	testhelpers "github.com/vsinha/sinkbom/pkg/infrastructure/testing"
)

const sampleOrder = `{
  "customer": {"name": "Acme Labs", "poNumber": "PO-7781"},
  "buildNumbers": ["A", "B"],
  "configurations": {
    "A": {
      "sinkModel": "T2-B1",
      "sinkLength": 48,
      "basins": [{"type": "E_SINK", "sizeCode": "24X20X8"}],
      "faucets": [{"assemblyId": "T2-FAUCET-STD"}]
    },
    "B": {
      "sinkModel": "T2-B2",
      "sinkLength": 72,
      "basins": [{"type": "E_DRAIN", "sizeCode": "24X20X8"}, {"type": "E_DRAIN", "sizeCode": "24X20X8"}],
      "pegboard": true,
      "pegboardLength": 50,
      "pegboardColor": "BLUE"
    }
  },
  "accessories": {
    "B": [{"assemblyId": "T2-SHELF-KIT", "quantity": 1}, {"assemblyId": "T2-BIN-RAIL", "quantity": 2}]
  }
}`

const unmappedOrder = `{
  "buildNumbers": ["C"],
  "configurations": {
    "C": {"sinkModel": "T2-B1", "basins": [{"type": "E_SINK_DI", "sizeCode": "24X20X8"}]}
  }
}`

type testServer struct {
	handler http.Handler
	store   *catalogstore.Store
	events  *events.InMemoryEventStore
}

func newTestServer(t *testing.T, catalogDir string) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	store := catalogstore.New(testhelpers.SinkCatalog(), nil)
	eventStore := events.NewInMemoryEventStore(nil)

	return &testServer{
		handler: NewRouter(Deps{
			Store:      store,
			Generator:  bom.NewGenerator(bom.Options{}, bom.WithMetrics(recorder), bom.WithEventStore(eventStore)),
			Events:     eventStore,
			Metrics:    recorder,
			Gatherer:   reg,
			CatalogDir: catalogDir,
		}),
		store:  store,
		events: eventStore,
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type bomResponse struct {
	GenerationID    string                     `json:"generationId"`
	CatalogVersion  string                     `json:"catalogVersion"`
	TotalItems      int                        `json:"totalItems"`
	TotalQuantity   int64                      `json:"totalQuantity"`
	PerBuildSummary map[string]json.RawMessage `json:"perBuildSummary"`
}

func TestGenerateBOM_SampleOrder(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodPost, "/v1/bom", sampleOrder)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[bomResponse](t, rec)
	assert.NotEmpty(t, resp.GenerationID)
	assert.Equal(t, "test", resp.CatalogVersion)
	assert.Equal(t, 25, resp.TotalItems)
	assert.Equal(t, int64(106), resp.TotalQuantity)
	assert.Len(t, resp.PerBuildSummary, 2)
}

func TestGenerateBOM_PublishesEvents(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodPost, "/v1/bom", sampleOrder)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[bomResponse](t, rec)

	rec = s.do(http.MethodGet, "/v1/generations/"+resp.GenerationID+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	type eventsResponse struct {
		GenerationID string            `json:"generationId"`
		Status       string            `json:"status"`
		Builds       map[string]string `json:"builds"`
		Events       []events.Record   `json:"events"`
	}
	stream := decode[eventsResponse](t, rec)
	assert.Equal(t, resp.GenerationID, stream.GenerationID)
	assert.Equal(t, "succeeded", stream.Status)
	assert.Len(t, stream.Builds, 2)
	for bn, status := range stream.Builds {
		assert.Equal(t, "expanded", status, bn)
	}
	require.Len(t, stream.Events, 4)
	assert.Equal(t, events.GenerationStartedEvent, stream.Events[0].EventType)
	assert.Equal(t, events.GenerationCompletedEvent, stream.Events[3].EventType)

	build := stream.Events[1].Build
	require.NotEmpty(t, build)
	rec = s.do(http.MethodGet, "/v1/generations/"+resp.GenerationID+"/events?build="+build, "")
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decode[eventsResponse](t, rec)
	require.Len(t, filtered.Events, 1)
	assert.Equal(t, build, filtered.Events[0].Build)

	rec = s.do(http.MethodGet, "/v1/generations/unknown/events", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummarizeEvents_Status(t *testing.T) {
	started := events.NewGenerationStartedEvent("gen-1", []string{"A", "B"}, "v1")
	expanded := events.NewBuildExpandedEvent("gen-1", events.BuildExpanded{BuildNumber: "A"})
	failed := events.NewBuildFailedEvent("gen-1", "B", nil)

	tests := []struct {
		name   string
		stream []events.Event
		status string
		builds map[string]string
	}{
		{
			name:   "running",
			stream: []events.Event{started, expanded},
			status: "running",
			builds: map[string]string{"A": "expanded", "B": "pending"},
		},
		{
			name:   "aborted on failed build",
			stream: []events.Event{started, expanded, failed},
			status: "failed",
			builds: map[string]string{"A": "expanded", "B": "failed"},
		},
		{
			name: "partial",
			stream: []events.Event{started, expanded, failed, events.NewGenerationCompletedEvent(events.GenerationCompleted{
				GenerationID: "gen-1", SucceededBuilds: 1, FailedBuilds: 1,
			})},
			status: "partial",
			builds: map[string]string{"A": "expanded", "B": "failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := summarizeEvents("gen-1", tt.stream)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.builds, resp.Builds)
			assert.Len(t, resp.Events, len(tt.stream))
		})
	}
}

func TestGenerateBOM_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		wantKind entities.IssueKind
	}{
		{"malformed json", `{"buildNumbers": [`, http.StatusBadRequest, ""},
		{"no build numbers", `{"buildNumbers": [], "configurations": {"A": {}}}`, http.StatusBadRequest, ""},
		{"missing basins", `{"buildNumbers": ["A"], "configurations": {"A": {"sinkModel": "T2-B1"}}}`,
			http.StatusUnprocessableEntity, entities.KindConfigurationIncomplete},
		{"unmapped control box", unmappedOrder, http.StatusUnprocessableEntity, entities.KindAmbiguousSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, "")

			rec := s.do(http.MethodPost, "/v1/bom", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			resp := decode[errorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			if tt.wantKind != "" {
				require.NotEmpty(t, resp.Issues)
				assert.Equal(t, tt.wantKind, resp.Issues[0].Kind)
			}
		})
	}
}

func TestGenerateBOM_NoCatalog(t *testing.T) {
	h := NewRouter(Deps{
		Store:     catalogstore.New(nil, nil),
		Generator: bom.NewGenerator(bom.Options{}),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/bom", strings.NewReader(sampleOrder)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no catalog")
}

func TestCatalogQueries(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodGet, "/v1/catalog/items/T2-SHELF-KIT", "")
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[itemView](t, rec)
	assert.Equal(t, "ASSEMBLY", item.Kind)
	assert.Equal(t, "KIT", item.Type)
	require.Len(t, item.Components, 2)
	assert.Equal(t, entities.PartNumber("T2-SHELF-PART"), item.Components[0].ChildID)
	assert.Equal(t, "PART", item.Components[0].ChildKind)

	rec = s.do(http.MethodGet, "/v1/catalog/items/T2-SHELF-PART/where-used", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "T2-SHELF-KIT")

	rec = s.do(http.MethodGet, "/v1/catalog/items?q=shelf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]itemView](t, rec)
	assert.Len(t, found, 2)

	rec = s.do(http.MethodGet, "/v1/catalog/items/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodGet, "/v1/catalog/items/NOPE/where-used", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReloadCatalog(t *testing.T) {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "..", "examples", "catalog")

	s := newTestServer(t, dir)

	rec := s.do(http.MethodGet, "/v1/catalog/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", decode[catalogResponse](t, rec).Version)

	rec = s.do(http.MethodPost, "/v1/catalog/reload", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info := decode[catalogResponse](t, rec)
	assert.NotEqual(t, "test", info.Version)
	assert.Equal(t, 23, info.Parts)
	assert.Equal(t, 29, info.Assemblies)
	assert.Equal(t, info.Version, s.store.Snapshot().Version())

	rec = s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sinkbom_catalog_integrity_issues")
}

func TestReloadCatalog_NotConfigured(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(http.MethodPost, "/v1/catalog/reload", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/bom", sampleOrder).Code)

	rec := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sinkbom_generations_total{status="success"} 1`)
}
