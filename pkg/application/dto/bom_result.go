package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// Customer identifies who the order is for. It is carried through untouched.
type Customer struct {
	Name      string `json:"name,omitempty"`
	PONumber  string `json:"poNumber,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
}

// GenerateBOMRequest is the input of one generation call
type GenerateBOMRequest struct {
	Customer       Customer                             `json:"customer"`
	BuildNumbers   []string                             `json:"buildNumbers"`
	Configurations map[string]entities.RawConfiguration `json:"configurations"`
	Accessories    map[string][]entities.AccessoryLine  `json:"accessories,omitempty"`
}

// BuildStatus is the outcome of one build
type BuildStatus string

const (
	BuildSucceeded BuildStatus = "SUCCEEDED"
	BuildFailed    BuildStatus = "FAILED"
)

// BuildSummary reports one build of the order
type BuildSummary struct {
	BuildNumber   string             `json:"buildNumber"`
	Status        BuildStatus        `json:"status"`
	SinkModel     entities.SinkModel `json:"sinkModel,omitempty"`
	TopLevelItems int                `json:"topLevelItems"`
	NodeCount     int                `json:"nodeCount"`
	TotalQuantity int64              `json:"totalQuantity"`
	Warnings      int                `json:"warnings"`
	Errors        int                `json:"errors"`
}

// GenerateBOMResult is the output of one generation call. Failed builds appear only in
// PerBuildSummary and Errors.
type GenerateBOMResult struct {
	GenerationID    string                         `json:"generationId"`
	CatalogVersion  string                         `json:"catalogVersion"`
	Customer        Customer                       `json:"customer"`
	Hierarchical    map[string][]*entities.BOMNode `json:"hierarchical"`
	Flattened       []entities.FlattenedItem       `json:"flattened"`
	TotalItems      int                            `json:"totalItems"`
	TotalQuantity   int64                          `json:"totalQuantity"`
	PerBuildSummary map[string]BuildSummary        `json:"perBuildSummary"`
	Warnings        []entities.Issue               `json:"warnings"`
	Errors          []entities.Issue               `json:"errors"`
}

// FailedBuilds returns the build numbers whose summary is FAILED, in request order
func (r *GenerateBOMResult) FailedBuilds(buildNumbers []string) []string {
	var failed []string
	for _, bn := range buildNumbers {
		if s, ok := r.PerBuildSummary[bn]; ok && s.Status == BuildFailed {
			failed = append(failed, bn)
		}
	}
	return failed
}

// GenerationError aborts a whole generation call. Issues holds the per-build detail when
// builds failed under the all-or-nothing policy.
type GenerationError struct {
	GenerationID string
	Reason       error
	Issues       []entities.Issue
}

func (e *GenerationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("generation %s aborted: %v", e.GenerationID, e.Reason)
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return fmt.Sprintf("generation %s aborted: %v: %s", e.GenerationID, e.Reason, strings.Join(msgs, "; "))
}

func (e *GenerationError) Unwrap() error {
	return e.Reason
}

// DecodeGenerateBOMRequest reads a JSON order. Numbers are kept as json.Number so fractional
// dimensions reach the normalizer without float rounding.
func DecodeGenerateBOMRequest(r io.Reader) (*GenerateBOMRequest, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var req GenerateBOMRequest
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return &req, nil
}
