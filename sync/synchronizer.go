package sync

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/bowtie-db/bowtie/analyzer"
	"github.com/bowtie-db/bowtie/planner"
	"github.com/bowtie-db/bowtie/risk"
	"github.com/bowtie-db/bowtie/schema"
)

// Options configures a Run.
type Options struct {
	// DefaultSchema is passed to the Introspector when listing the
	// current state; dialects with no schema concept ignore it.
	DefaultSchema string
	// DryRun skips introspection and the risk gate entirely, producing
	// a fresh-install script against an empty current state.
	DryRun bool
	// Force proceeds past the risk gate even when it requires
	// confirmation.
	Force bool
	// OutputSink, if set, receives the generated script before
	// execution, each statement followed by a semicolon and a newline.
	OutputSink io.Writer
	// Log receives progress and risk findings. A nil Log discards
	// everything.
	Log LogSink
}

func (o Options) logSink() LogSink {
	if o.Log == nil {
		return NoopLogSink{}
	}
	return o.Log
}

// Result is the outcome of a completed Run.
type Result struct {
	// RunID identifies this Run in logs, generated fresh each call so a
	// host can correlate the statements it executed with the warnings
	// and progress lines a LogSink received for the same run.
	RunID        string
	Statements   []string
	Risk         risk.Report
	TargetHash   string
	StepsApplied int
}

// Synchronizer drives a TargetSource through introspection, the risk
// gate, and the migration planner against a single live connection.
type Synchronizer struct {
	Driver schema.Driver
	Exec   schema.Executor
}

// New builds a Synchronizer bound to driver (for SQL generation and
// introspection) and exec (the live connection the driver reads from
// and writes to).
func New(driver schema.Driver, exec schema.Executor) *Synchronizer {
	return &Synchronizer{Driver: driver, Exec: exec}
}

// Run executes the eight-step synchronization algorithm: resolve the
// target, introspect the current state (unless dry-run), gate on data
// loss risk, generate and optionally sink the migration script, then
// apply it statement by statement.
func (s *Synchronizer) Run(ctx context.Context, source TargetSource, opts Options) (*Result, error) {
	log := opts.logSink()
	runID := uuid.New().String()

	target, err := source.Resolve()
	if err != nil {
		return nil, err
	}
	if capability, ok := schema.CapabilityFor(s.Driver.Provider()); ok && !capability.SupportsSchemas {
		for _, t := range target {
			if t.Schema != "" {
				return nil, &schema.ValidationError{Kind: schema.ErrSchemaRequiredButUnsupported, Detail: fmt.Sprintf("table %q: schema %q set but dialect %s does not support schemas", t.Name, t.Schema, s.Driver.Provider())}
			}
		}
	}
	targetHash := analyzer.ComputeModelHash(target)

	if opts.DryRun {
		statements, err := planner.BuildMigrationScript(planner.Diff(nil, target), s.Driver)
		if err != nil {
			return nil, err
		}
		if opts.OutputSink != nil {
			if err := writeScript(opts.OutputSink, statements); err != nil {
				return nil, err
			}
		}
		return &Result{RunID: runID, Statements: statements, TargetHash: targetHash}, nil
	}

	current, err := s.introspectAll(ctx, opts.DefaultSchema)
	if err != nil {
		return nil, err
	}

	report := risk.Analyze(current, target)
	for _, w := range report.Warnings {
		log.Warn(w)
	}
	if report.RequiresConfirmation && !opts.Force {
		return nil, &SafetyError{
			Kind:   ErrBlockedByRisk,
			Detail: fmt.Sprintf("%d warning(s) require confirmation; re-run with force to proceed", countConfirming(report)),
		}
	}

	diff := planner.Diff(current, target)
	statements, err := planner.BuildMigrationScript(diff, s.Driver)
	if err != nil {
		return nil, err
	}

	if opts.OutputSink != nil {
		if err := writeScript(opts.OutputSink, statements); err != nil {
			return nil, err
		}
	}

	result := &Result{RunID: runID, Statements: statements, Risk: report, TargetHash: targetHash}
	if len(statements) == 0 {
		log.Info("no changes detected")
		return result, nil
	}

	log.Info(fmt.Sprintf("run %s: applying %d statement(s)", runID, len(statements)))
	if err := s.apply(ctx, statements, log); err != nil {
		return nil, err
	}
	result.StepsApplied = len(statements)
	return result, nil
}

// introspectAll lists every table in schemaName and loads its full
// shape (columns, indexes, constraints) through the bound driver.
func (s *Synchronizer) introspectAll(ctx context.Context, schemaName string) ([]schema.Table, error) {
	tables, err := s.Driver.GetTables(ctx, s.Exec, schemaName)
	if err != nil {
		return nil, &IntrospectionError{Kind: ErrExecutorFailed, Detail: "listing current tables", Cause: err}
	}
	return tables, nil
}

// apply executes statements in order inside the caller's ambient
// transaction, stopping at the first failure; statements already
// applied are not rolled back here since the Executor this engine is
// handed may or may not wrap a transaction.
func (s *Synchronizer) apply(ctx context.Context, statements []string, log LogSink) error {
	for i, stmt := range statements {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		log.Info(stepHeader(i+1, len(statements), sqlPreview(trimmed)))

		if _, err := s.Exec.ExecuteNonQuery(ctx, trimmed); err != nil {
			return &ExecutionError{Kind: ErrStatementFailed, Statement: i + 1, SQL: trimmed, Cause: err}
		}
	}
	return nil
}

func writeScript(out io.Writer, statements []string) error {
	for _, stmt := range statements {
		if _, err := fmt.Fprintf(out, "%s;\n", strings.TrimRight(strings.TrimSpace(stmt), ";")); err != nil {
			return fmt.Errorf("writing migration script: %w", err)
		}
	}
	return nil
}

func countConfirming(report risk.Report) int {
	n := 0
	for _, w := range report.Warnings {
		if w.Severity == risk.High || w.Severity == risk.Medium {
			n++
		}
	}
	return n
}
