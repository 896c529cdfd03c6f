package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vsinha/sinkbom/pkg/application/dto"
	"github.com/vsinha/sinkbom/pkg/application/services/bom"
	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/domain/services"
	"github.com/vsinha/sinkbom/pkg/infrastructure/events"
	"github.com/vsinha/sinkbom/pkg/infrastructure/repositories/memory"
)

type errorResponse struct {
	Error        string           `json:"error"`
	GenerationID string           `json:"generationId,omitempty"`
	Issues       []entities.Issue `json:"issues,omitempty"`
}

type catalogResponse struct {
	Version           string `json:"version"`
	Parts             int    `json:"parts"`
	Assemblies        int    `json:"assemblies"`
	Categories        int    `json:"categories"`
	IntegrityWarnings int    `json:"integrityWarnings"`
	IntegrityErrors   int    `json:"integrityErrors"`
}

type componentView struct {
	ChildID   entities.PartNumber `json:"childId"`
	ChildKind string              `json:"childKind"`
	Quantity  entities.Quantity   `json:"quantity"`
	Notes     string              `json:"notes,omitempty"`
}

type itemView struct {
	ID                     entities.PartNumber `json:"id"`
	Name                   string              `json:"name"`
	Kind                   string              `json:"kind"`
	Type                   string              `json:"type"`
	ManufacturerPartNumber string              `json:"manufacturerPartNumber,omitempty"`
	Status                 string              `json:"status,omitempty"`
	CategoryCode           string              `json:"categoryCode,omitempty"`
	SubcategoryCode        string              `json:"subcategoryCode,omitempty"`
	CanOrder               bool                `json:"canOrder,omitempty"`
	Components             []componentView     `json:"components,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.store == nil || h.store.Snapshot() == nil {
		status = "no catalog"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) generateBOM(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalog(w)
	if !ok {
		return
	}

	req, err := dto.DecodeGenerateBOMRequest(http.MaxBytesReader(w, r.Body, maxOrderBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.generator.GenerateBOM(r.Context(), catalog, req)
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeGenerationError(w http.ResponseWriter, err error) {
	var genErr *dto.GenerationError
	if !errors.As(err, &genErr) {
		h.logger.Error("generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	resp := errorResponse{
		Error:        genErr.Reason.Error(),
		GenerationID: genErr.GenerationID,
		Issues:       genErr.Issues,
	}
	switch {
	case errors.Is(err, bom.ErrPreflightFailed), errors.Is(err, bom.ErrBuildsFailed),
		errors.Is(err, bom.ErrQuantityOverflow):
		writeError(w, http.StatusUnprocessableEntity, resp)
	default:
		writeError(w, http.StatusBadRequest, resp)
	}
}

func (h *Handler) generationEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeError(w, http.StatusNotFound, errorResponse{Error: "event log is disabled"})
		return
	}
	generationID := chi.URLParam(r, "generationID")
	stream, err := h.events.ReadEvents(generationID, 1)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if len(stream) == 0 {
		writeError(w, http.StatusNotFound, errorResponse{Error: "unknown generation " + generationID})
		return
	}

	resp := summarizeEvents(generationID, stream)
	if build := r.URL.Query().Get("build"); build != "" {
		filtered := make([]events.Event, 0, len(resp.Events))
		for _, e := range resp.Events {
			if e.BuildNumber() == build {
				filtered = append(filtered, e)
			}
		}
		resp.Events = filtered
	}
	writeJSON(w, http.StatusOK, resp)
}

type generationEventsResponse struct {
	GenerationID string            `json:"generationId"`
	Status       string            `json:"status"`
	Builds       map[string]string `json:"builds"`
	Events       []events.Event    `json:"events"`
}

// summarizeEvents derives the generation status from its stream. A generation aborted under
// the all-or-nothing policy never completes, so failed builds without a completion mean failed.
func summarizeEvents(generationID string, stream []events.Event) generationEventsResponse {
	resp := generationEventsResponse{
		GenerationID: generationID,
		Status:       "running",
		Builds:       make(map[string]string),
		Events:       stream,
	}
	failed := false
	for _, e := range stream {
		if started, ok := events.PayloadAs[events.GenerationStarted](e); ok {
			for _, bn := range started.BuildNumbers {
				resp.Builds[bn] = "pending"
			}
		}
		if expanded, ok := events.PayloadAs[events.BuildExpanded](e); ok {
			resp.Builds[expanded.BuildNumber] = "expanded"
		}
		if bf, ok := events.PayloadAs[events.BuildFailed](e); ok {
			resp.Builds[bf.BuildNumber] = "failed"
			failed = true
		}
		if completed, ok := events.PayloadAs[events.GenerationCompleted](e); ok {
			switch {
			case completed.FailedBuilds == 0:
				resp.Status = "succeeded"
			case completed.SucceededBuilds == 0:
				resp.Status = "failed"
			default:
				resp.Status = "partial"
			}
			return resp
		}
	}
	if failed {
		resp.Status = "failed"
	}
	return resp
}

func (h *Handler) catalogInfo(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalog(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, describeCatalog(catalog, catalog.IntegrityReport()))
}

func (h *Handler) reloadCatalog(w http.ResponseWriter, r *http.Request) {
	if h.catalogDir == "" || h.store == nil {
		writeError(w, http.StatusConflict, errorResponse{Error: "catalog reload is not configured"})
		return
	}
	report, err := h.store.ReloadDir(h.catalogDir)
	if err != nil {
		h.logger.Warn("catalog reload failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	h.metrics.SetCatalogIssues(len(report.Warnings), len(report.Errors))
	writeJSON(w, http.StatusOK, describeCatalog(h.store.Snapshot(), report))
}

func (h *Handler) searchItems(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalog(w)
	if !ok {
		return
	}
	items := catalog.Search(r.URL.Query().Get("q"))
	views := make([]itemView, len(items))
	for i, item := range items {
		views[i] = viewOf(item)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalog(w)
	if !ok {
		return
	}
	id := entities.PartNumber(chi.URLParam(r, "itemID"))
	item, found := catalog.Lookup(id)
	if !found {
		writeError(w, http.StatusNotFound, errorResponse{Error: "unknown catalog item " + string(id)})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(item))
}

func (h *Handler) whereUsed(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalog(w)
	if !ok {
		return
	}
	id := entities.PartNumber(chi.URLParam(r, "itemID"))
	if _, found := catalog.Lookup(id); !found {
		writeError(w, http.StatusNotFound, errorResponse{Error: "unknown catalog item " + string(id)})
		return
	}
	parents := catalog.WhereUsed(id)
	if parents == nil {
		parents = []entities.PartNumber{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "usedBy": parents})
}

// catalog returns the active snapshot or writes 503
func (h *Handler) catalog(w http.ResponseWriter) (*memory.Catalog, bool) {
	if h.store != nil {
		if catalog := h.store.Snapshot(); catalog != nil {
			return catalog, true
		}
	}
	writeError(w, http.StatusServiceUnavailable, errorResponse{Error: "no catalog loaded"})
	return nil, false
}

func describeCatalog(catalog *memory.Catalog, report *services.IntegrityReport) catalogResponse {
	parts, assemblies, categories := catalog.Stats()
	return catalogResponse{
		Version:           catalog.Version(),
		Parts:             parts,
		Assemblies:        assemblies,
		Categories:        categories,
		IntegrityWarnings: len(report.Warnings),
		IntegrityErrors:   len(report.Errors),
	}
}

func viewOf(item entities.CatalogItem) itemView {
	switch it := item.(type) {
	case *entities.Part:
		return itemView{
			ID:                     it.ID,
			Name:                   it.Name,
			Kind:                   "PART",
			Type:                   it.Type.String(),
			ManufacturerPartNumber: it.ManufacturerPartNumber,
			Status:                 it.Status.String(),
		}
	case *entities.Assembly:
		view := itemView{
			ID:              it.ID,
			Name:            it.Name,
			Kind:            "ASSEMBLY",
			Type:            it.Type.String(),
			CategoryCode:    it.CategoryCode,
			SubcategoryCode: it.SubcategoryCode,
			CanOrder:        it.CanOrder,
		}
		for _, c := range it.Components {
			view.Components = append(view.Components, componentView{
				ChildID:   c.ChildID,
				ChildKind: c.ChildKind.String(),
				Quantity:  c.Quantity,
				Notes:     c.Notes,
			})
		}
		return view
	default:
		return itemView{ID: item.ItemID(), Name: item.DisplayName()}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	writeJSON(w, status, resp)
}
