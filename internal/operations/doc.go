// Package operations runs the panel report as an ordered sequence of steps.
//
// A Manager executes the registered steps one after another against a shared
// OperationState: ingest reads the data file, transform cleans it, model fits
// the fixed-effects regression, visualize writes the charts and export writes
// the optional report files. Execution stops at the first failing step and
// the remaining steps are marked skipped. Steps that report themselves as
// disabled are skipped without running.
//
// Each step runs inside an OpenTelemetry span created by OperationTracer,
// which also records step counters, durations and row counts.
package operations
