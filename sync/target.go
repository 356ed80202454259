package sync

import (
	"github.com/bowtie-db/bowtie/analyzer"
	"github.com/bowtie-db/bowtie/schema"
)

// TargetSource resolves the desired end-state of a Run: either an
// already-analyzed table list or a descriptor set the Synchronizer
// runs through the Model Analyzer itself.
type TargetSource interface {
	Resolve() ([]schema.Table, error)
}

type tableSource struct {
	tables []schema.Table
}

func (s tableSource) Resolve() ([]schema.Table, error) { return s.tables, nil }

// Tables wraps an already-analyzed table list as a TargetSource.
func Tables(tables []schema.Table) TargetSource { return tableSource{tables: tables} }

type descriptorSource struct {
	descriptors []analyzer.Descriptor
	opts        analyzer.Options
}

func (s descriptorSource) Resolve() ([]schema.Table, error) {
	return analyzer.Analyze(s.descriptors, s.opts)
}

// Descriptors wraps a descriptor set as a TargetSource, running it
// through the Model Analyzer when Resolve is called.
func Descriptors(descriptors []analyzer.Descriptor, opts analyzer.Options) TargetSource {
	return descriptorSource{descriptors: descriptors, opts: opts}
}
