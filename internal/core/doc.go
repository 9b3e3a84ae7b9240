// Package core provides the record-transformation pipeline that turns a
// wide-format MCAS export into the long-format canonical schema.
//
// This package is the heart of the converter, containing all domain logic
// independent of any file, network, or database layer. It can be used by the
// CLI, the HTTP service, batch jobs, or tests without modification.
//
// # Architecture
//
// The pipeline is organized around a handful of small, pure stages:
//
//   - Subject Catalog: The closed set of tested subjects ([Subject]) and
//     their display metadata ([SubjectDefinition]).
//   - Expansion: One [InputRecord] becomes one [CanonicalRecord] per subject.
//   - Blank Filtering: Records with no scores at all are dropped.
//   - Remapping: Raw performance-level codes become labeled display values.
//   - Projection: Records are reshaped into the fixed output column order.
//
// Data flows one direction:
//
//	raw rows -> expanded -> filtered -> remapped -> projected
//
// # Configuration
//
// A [Config] is built once with [NewConfig] or [DefaultConfig] and is never
// mutated afterwards. It is threaded through [NewPipeline]:
//
//	cfg, err := core.NewConfig([]string{"ela", "math"}, core.DefaultColumns(), core.PolicyFail)
//	if err != nil {
//	    return err
//	}
//	p, err := core.NewPipeline(cfg)
//	rows, err := p.Run(records)
//
// # Ordering
//
// Output is grouped by subject in configured order; within a subject group
// the original input row order is preserved.
//
// # Error Handling
//
// Stage failures are typed ([UnknownSubjectError], [MissingColumnError],
// [UnknownPerformanceLevelError]) and abort the whole file. [MapError] turns
// any error into a coded, user-facing message:
//
//   - SUBJ001: Unknown subject key
//   - COL001-COL002: Missing input column, unknown output column
//   - PERF001: Unrecognized performance level code
//   - FILE001-FILE004: File errors (size, format, header, empty)
//   - CTX001-CTX002: Cancellation and timeouts
package core
