package entities

import "errors"

// Issue is the reportable form of a BOMError
type Issue struct {
	Kind        IssueKind `json:"kind"`
	Severity    Severity  `json:"severity"`
	BuildNumber string    `json:"buildNumber,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Message     string    `json:"message"`
	Hint        string    `json:"hint,omitempty"`
}

// IsFatal reports whether the issue fails its build
func (i Issue) IsFatal() bool {
	return i.Severity == SeverityFatal
}

// NewIssue converts an error into an Issue. Errors outside the taxonomy are fatal.
func NewIssue(err error) Issue {
	var bomErr BOMError
	if errors.As(err, &bomErr) {
		return Issue{
			Kind:        bomErr.Kind(),
			Severity:    bomErr.Severity(),
			BuildNumber: bomErr.Build(),
			Subject:     bomErr.Subject(),
			Message:     bomErr.Error(),
			Hint:        bomErr.Hint(),
		}
	}
	return Issue{
		Kind:     "INTERNAL",
		Severity: SeverityFatal,
		Message:  err.Error(),
	}
}

// IssuesFromError flattens joined errors and ValidationErrors into issues
func IssuesFromError(err error) []Issue {
	if err == nil {
		return nil
	}

	if validation, ok := err.(ValidationErrors); ok {
		issues := make([]Issue, 0, len(validation))
		for _, v := range validation {
			issues = append(issues, NewIssue(v))
		}
		return issues
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var issues []Issue
		for _, inner := range joined.Unwrap() {
			issues = append(issues, IssuesFromError(inner)...)
		}
		return issues
	}

	return []Issue{NewIssue(err)}
}
