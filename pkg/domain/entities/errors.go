package entities

import (
	"fmt"
	"strings"
)

// Severity separates issues that fail a build from those that only reduce completeness
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityFatal
)

// String method for Severity enum
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the severity by name
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "WARNING":
		*s = SeverityWarning
	case "FATAL":
		*s = SeverityFatal
	default:
		return fmt.Errorf("invalid severity: %s", text)
	}
	return nil
}

// IssueKind names an entry of the generation error taxonomy
type IssueKind string

const (
	KindConfigurationIncomplete IssueKind = "CONFIGURATION_INCOMPLETE"
	KindUnknownReference        IssueKind = "UNKNOWN_CATALOG_REFERENCE"
	KindAmbiguousSelection      IssueKind = "AMBIGUOUS_SELECTION"
	KindMissingKit              IssueKind = "MISSING_KIT"
	KindIntegrityWarning        IssueKind = "CATALOG_INTEGRITY_WARNING"
	KindCycleDetected           IssueKind = "CYCLE_DETECTED"
	KindDepthExceeded           IssueKind = "DEPTH_EXCEEDED"
	KindQuantityOverflow        IssueKind = "QUANTITY_OVERFLOW"
)

// BOMError is implemented by every error of the generation taxonomy
type BOMError interface {
	error
	Kind() IssueKind
	Severity() Severity
	Build() string
	Subject() string
	Hint() string
}

// ConfigurationIncompleteError reports a missing or invalid configuration field
type ConfigurationIncompleteError struct {
	BuildNumber string
	Field       string
	Reason      string
}

func (e *ConfigurationIncompleteError) Error() string {
	return fmt.Sprintf("build %s: configuration incomplete: %s: %s", e.BuildNumber, e.Field, e.Reason)
}

func (e *ConfigurationIncompleteError) Kind() IssueKind    { return KindConfigurationIncomplete }
func (e *ConfigurationIncompleteError) Severity() Severity { return SeverityFatal }
func (e *ConfigurationIncompleteError) Build() string      { return e.BuildNumber }
func (e *ConfigurationIncompleteError) Subject() string    { return e.Field }
func (e *ConfigurationIncompleteError) Hint() string {
	return fmt.Sprintf("set %q on build %s and resubmit", e.Field, e.BuildNumber)
}

// ValidationErrors collects field-level configuration errors for one build
type ValidationErrors []*ConfigurationIncompleteError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// UnknownCatalogReferenceError reports an id that is not in the catalog.
// ParentID is empty when the id came from a selection rule or the configuration.
type UnknownCatalogReferenceError struct {
	BuildNumber string
	ParentID    PartNumber
	ChildID     PartNumber
}

func (e *UnknownCatalogReferenceError) Error() string {
	if e.ParentID == "" {
		return fmt.Sprintf("build %s: unknown catalog reference %s", e.BuildNumber, e.ChildID)
	}
	return fmt.Sprintf("build %s: assembly %s references unknown item %s", e.BuildNumber, e.ParentID, e.ChildID)
}

func (e *UnknownCatalogReferenceError) Kind() IssueKind    { return KindUnknownReference }
func (e *UnknownCatalogReferenceError) Severity() Severity { return SeverityFatal }
func (e *UnknownCatalogReferenceError) Build() string      { return e.BuildNumber }
func (e *UnknownCatalogReferenceError) Subject() string {
	if e.ParentID != "" {
		return string(e.ParentID)
	}
	return string(e.ChildID)
}
func (e *UnknownCatalogReferenceError) Hint() string {
	if e.ParentID == "" {
		return fmt.Sprintf("choose an existing catalog item instead of %s", e.ChildID)
	}
	return fmt.Sprintf("add %s to the catalog or fix the component list of %s", e.ChildID, e.ParentID)
}

// AmbiguousSelectionError reports a configuration combination no selection rule covers
type AmbiguousSelectionError struct {
	BuildNumber string
	Rule        string
	Key         string
}

func (e *AmbiguousSelectionError) Error() string {
	return fmt.Sprintf("build %s: no %s rule matches %s", e.BuildNumber, e.Rule, e.Key)
}

func (e *AmbiguousSelectionError) Kind() IssueKind    { return KindAmbiguousSelection }
func (e *AmbiguousSelectionError) Severity() Severity { return SeverityFatal }
func (e *AmbiguousSelectionError) Build() string      { return e.BuildNumber }
func (e *AmbiguousSelectionError) Subject() string    { return e.Key }
func (e *AmbiguousSelectionError) Hint() string {
	return fmt.Sprintf("add a %s rule for %s to the catalog or set an explicit override", e.Rule, e.Key)
}

// MissingKitError reports a kit id derived by a selection rule that the catalog does not carry
type MissingKitError struct {
	BuildNumber string
	Rule        string
	KitID       PartNumber
}

func (e *MissingKitError) Error() string {
	return fmt.Sprintf("build %s: %s kit %s is not in the catalog", e.BuildNumber, e.Rule, e.KitID)
}

func (e *MissingKitError) Kind() IssueKind    { return KindMissingKit }
func (e *MissingKitError) Severity() Severity { return SeverityFatal }
func (e *MissingKitError) Build() string      { return e.BuildNumber }
func (e *MissingKitError) Subject() string    { return string(e.KitID) }
func (e *MissingKitError) Hint() string {
	return fmt.Sprintf("add assembly %s to the catalog or change the %s options", e.KitID, e.Rule)
}

// CatalogIntegrityWarning reports catalog data that reduces BOM completeness without failing a build
type CatalogIntegrityWarning struct {
	BuildNumber string
	AssemblyID  PartNumber
	Reason      string
}

func (e *CatalogIntegrityWarning) Error() string {
	if e.BuildNumber == "" {
		return fmt.Sprintf("catalog integrity: assembly %s: %s", e.AssemblyID, e.Reason)
	}
	return fmt.Sprintf("build %s: catalog integrity: assembly %s: %s", e.BuildNumber, e.AssemblyID, e.Reason)
}

func (e *CatalogIntegrityWarning) Kind() IssueKind    { return KindIntegrityWarning }
func (e *CatalogIntegrityWarning) Severity() Severity { return SeverityWarning }
func (e *CatalogIntegrityWarning) Build() string      { return e.BuildNumber }
func (e *CatalogIntegrityWarning) Subject() string    { return string(e.AssemblyID) }
func (e *CatalogIntegrityWarning) Hint() string {
	return fmt.Sprintf("review the component list of %s in the catalog", e.AssemblyID)
}

// CycleDetectedError reports an assembly that contains itself on one expansion path.
// It is a catalog defect, never a user input error.
type CycleDetectedError struct {
	BuildNumber string
	Path        []PartNumber
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("build %s: catalog cycle detected: %s", e.BuildNumber, joinPath(e.Path))
}

func (e *CycleDetectedError) Kind() IssueKind    { return KindCycleDetected }
func (e *CycleDetectedError) Severity() Severity { return SeverityFatal }
func (e *CycleDetectedError) Build() string      { return e.BuildNumber }
func (e *CycleDetectedError) Subject() string {
	if len(e.Path) == 0 {
		return ""
	}
	return string(e.Path[len(e.Path)-1])
}
func (e *CycleDetectedError) Hint() string {
	return "catalog defect: remove the circular component reference and reload the catalog"
}

// DepthExceededError reports expansion deeper than the configured cap
type DepthExceededError struct {
	BuildNumber string
	AssemblyID  PartNumber
	MaxDepth    int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("build %s: expansion of %s exceeded max depth %d", e.BuildNumber, e.AssemblyID, e.MaxDepth)
}

func (e *DepthExceededError) Kind() IssueKind    { return KindDepthExceeded }
func (e *DepthExceededError) Severity() Severity { return SeverityFatal }
func (e *DepthExceededError) Build() string      { return e.BuildNumber }
func (e *DepthExceededError) Subject() string    { return string(e.AssemblyID) }
func (e *DepthExceededError) Hint() string {
	return "catalog defect: assembly nesting is deeper than allowed; check for malformed component data"
}

// QuantityOverflowError reports a quantity that no longer fits the integer range once
// multiplied down an expansion path or summed across builds
type QuantityOverflowError struct {
	BuildNumber string
	ItemID      PartNumber
}

func (e *QuantityOverflowError) Error() string {
	if e.BuildNumber == "" {
		return fmt.Sprintf("total quantity of %s overflows", e.ItemID)
	}
	return fmt.Sprintf("build %s: quantity of %s overflows", e.BuildNumber, e.ItemID)
}

func (e *QuantityOverflowError) Kind() IssueKind    { return KindQuantityOverflow }
func (e *QuantityOverflowError) Severity() Severity { return SeverityFatal }
func (e *QuantityOverflowError) Build() string      { return e.BuildNumber }
func (e *QuantityOverflowError) Subject() string    { return string(e.ItemID) }
func (e *QuantityOverflowError) Hint() string {
	return fmt.Sprintf("reduce the ordered quantity or check the component quantities under %s", e.ItemID)
}

func joinPath(path []PartNumber) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = string(p)
	}
	return strings.Join(parts, " -> ")
}
