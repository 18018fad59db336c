package domain

import (
	"fmt"
	"strings"
)

// Severity classifies a rule finding.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Finding is a single validation outcome attributable to a rule.
type Finding struct {
	RuleCode string   `json:"rule_code"`
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject,omitempty"`
	Message  string   `json:"message"`
}

// ValidationError signals that input violated a mandatory rule or a missing
// prerequisite. The operation is aborted before any write.
type ValidationError struct {
	Op       string
	Blocking []Finding
	Warnings []Finding
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Blocking))
	for _, f := range e.Blocking {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("%s: validation failed: %s", e.Op, strings.Join(msgs, "; "))
}

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

// ConflictError signals an illegal state transition.
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

// DataAbsentError signals that a computation depends on data not yet
// ingested. Callers surface a structured "no data" response and tag the
// affected days instead of failing the whole operation.
type DataAbsentError struct {
	What string
	Days []string
}

func (e *DataAbsentError) Error() string {
	if len(e.Days) == 0 {
		return fmt.Sprintf("no data: %s", e.What)
	}
	return fmt.Sprintf("no data: %s (days: %s)", e.What, strings.Join(e.Days, ", "))
}

// IntegrityError signals a post-write invariant violation; the surrounding
// transaction must be rolled back.
type IntegrityError struct {
	Invariant string
	Detail    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation (%s): %s", e.Invariant, e.Detail)
}
