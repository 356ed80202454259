// Package sync implements the Synchronizer: the orchestration layer
// that drives a target model through the Risk Analyzer and the
// migration planner against a live connection.
package sync

import "fmt"

// IntrospectionErrorKind enumerates the ways reading the current state
// of a live database can fail.
type IntrospectionErrorKind string

const (
	ErrExecutorFailed    IntrospectionErrorKind = "ExecutorFailed"
	ErrMalformedMetadata IntrospectionErrorKind = "MalformedMetadata"
)

// IntrospectionError reports a failure reading the current schema off
// a live connection.
type IntrospectionError struct {
	Kind   IntrospectionErrorKind
	Detail string
	Cause  error
}

func (e *IntrospectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("introspection (%s): %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("introspection (%s): %s", e.Kind, e.Detail)
}

func (e *IntrospectionError) Unwrap() error { return e.Cause }

// SafetyErrorKind enumerates the ways a run can be refused before any
// statement is executed.
type SafetyErrorKind string

const (
	ErrBlockedByRisk SafetyErrorKind = "BlockedByRisk"
)

// SafetyError reports that a run was refused because the Risk Analyzer
// found changes requiring confirmation and the caller did not force it.
type SafetyError struct {
	Kind   SafetyErrorKind
	Detail string
}

func (e *SafetyError) Error() string { return fmt.Sprintf("safety (%s): %s", e.Kind, e.Detail) }

// ExecutionErrorKind enumerates the ways applying an already-generated
// statement list against a live connection can fail.
type ExecutionErrorKind string

const (
	ErrStatementFailed ExecutionErrorKind = "StatementFailed"
)

// ExecutionError reports that a generated statement failed to apply.
// Statement is its 1-based position in the flattened plan; statements
// before it already committed and are not rolled back by the
// Synchronizer itself (the caller runs inside its own transaction on
// dialects that support transactional DDL).
type ExecutionError struct {
	Kind      ExecutionErrorKind
	Statement int
	SQL       string
	Cause     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution (%s): statement %d failed: %v", e.Kind, e.Statement, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }
