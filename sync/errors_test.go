package sync

import (
	"errors"
	"strings"
	"testing"
)

func TestIntrospectionError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := &IntrospectionError{Kind: ErrExecutorFailed, Detail: "listing tables", Cause: cause}

	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
	if !strings.Contains(err.Error(), "listing tables") {
		t.Fatalf("expected detail in error message, got %q", err.Error())
	}
}

func TestSafetyError_MessageNamesTheKind(t *testing.T) {
	err := &SafetyError{Kind: ErrBlockedByRisk, Detail: "2 medium, 1 high risk warnings"}
	if !strings.Contains(err.Error(), string(ErrBlockedByRisk)) {
		t.Fatalf("expected kind in error message, got %q", err.Error())
	}
}

func TestExecutionError_ReportsStatementPosition(t *testing.T) {
	cause := errors.New("syntax error")
	err := &ExecutionError{Kind: ErrStatementFailed, Statement: 3, SQL: "ALTER TABLE Users ...", Cause: cause}

	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
	if !strings.Contains(err.Error(), "statement 3") {
		t.Fatalf("expected statement position in error message, got %q", err.Error())
	}
}
