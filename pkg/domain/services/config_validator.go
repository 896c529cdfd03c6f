package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// Order-level prerequisites; either aborts the whole request
var (
	ErrNoBuildNumbers   = errors.New("order has no build numbers")
	ErrNoConfigurations = errors.New("order has no build configurations")
)

// ConfigValidator runs the pre-flight checks on raw configurations and sorts
// post-expansion issues by severity
type ConfigValidator struct{}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateOrder checks the order-level prerequisites
func (v *ConfigValidator) ValidateOrder(
	buildNumbers []string,
	configurations map[string]entities.RawConfiguration,
) error {
	if len(buildNumbers) == 0 {
		return ErrNoBuildNumbers
	}
	if len(configurations) == 0 {
		return ErrNoConfigurations
	}

	seen := make(map[string]bool, len(buildNumbers))
	for _, bn := range buildNumbers {
		if strings.TrimSpace(bn) == "" {
			return fmt.Errorf("order contains an empty build number")
		}
		if seen[bn] {
			return fmt.Errorf("duplicate build number: %s", bn)
		}
		seen[bn] = true
	}
	return nil
}

// Preflight checks that raw carries the structurally required fields: a sink model and
// at least one basin, with no more basins than the model body accepts
func (v *ConfigValidator) Preflight(buildNumber string, raw entities.RawConfiguration) []entities.Issue {
	if raw == nil {
		return []entities.Issue{incomplete(buildNumber, "configuration", "no configuration submitted for build")}
	}

	var issues []entities.Issue

	model := stringField(raw, "sinkModel", "sinkModelId")
	if model == "" {
		issues = append(issues, incomplete(buildNumber, "sinkModel", "sink model is required"))
	}

	basins := sliceLen(raw["basins"])
	switch {
	case basins == 0:
		issues = append(issues, incomplete(buildNumber, "basins", "at least one basin is required"))
	case model != "":
		limit := entities.SinkModel(strings.ToUpper(model)).MaxBasins()
		if limit > 0 && basins > limit {
			issues = append(issues, incomplete(buildNumber, "basins",
				fmt.Sprintf("model %s accepts at most %d basins, got %d", strings.ToUpper(model), limit, basins)))
		}
	}

	return issues
}

// Partition splits issues into fatal errors and warnings, preserving order
func (v *ConfigValidator) Partition(issues []entities.Issue) (fatal, warnings []entities.Issue) {
	for _, issue := range issues {
		if issue.IsFatal() {
			fatal = append(fatal, issue)
		} else {
			warnings = append(warnings, issue)
		}
	}
	return fatal, warnings
}

func incomplete(buildNumber, field, reason string) entities.Issue {
	return entities.NewIssue(&entities.ConfigurationIncompleteError{
		BuildNumber: buildNumber,
		Field:       field,
		Reason:      reason,
	})
}

func stringField(raw entities.RawConfiguration, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func sliceLen(v any) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0
	}
	return rv.Len()
}
