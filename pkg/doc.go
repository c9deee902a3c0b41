// Package pkg provides the core libraries for Drawrev drawing revision control.
//
// # Overview
//
// Drawrev compares versions of engineering drawings and repairs common
// drafting defects. The pkg directory is organized into these areas:
//
//  1. [model] - The in-memory drawing document (layers, records, attributes)
//  2. [compare] - Content-based version comparison and change classification
//  3. [fix] - The corrective rule catalog, planning, and transactional apply
//  4. [standards] - Drawing-standard policies and compliance checks
//  5. [pipeline] - Orchestration (load → compare/plan → apply) with caching
//
// # Architecture
//
// The typical data flow through Drawrev:
//
//	JSON interchange file
//	         ↓
//	    [docio] package (decode + validate)
//	         ↓
//	    [compare] package (match records, classify changes)
//	      or
//	    [fix] package (plan corrective actions, apply transactionally)
//	         ↓
//	    [report] package (markdown, JSON, DOT/SVG output)
//
// # Quick Start
//
// Compare two drawing versions:
//
//	import (
//	    "context"
//	    "github.com/drawrev/drawrev/pkg/compare"
//	    "github.com/drawrev/drawrev/pkg/docio"
//	)
//
//	docA, _ := docio.ReadFile("rev_a.json")
//	docB, _ := docio.ReadFile("rev_b.json")
//	result, _ := compare.Compare(context.Background(), docA, docB, compare.DefaultOptions())
//	fmt.Println(result.Level) // none, minor, moderate, or major
//
// Plan and apply fixes:
//
//	policy, _ := standards.Get("iso")
//	plan, _ := fix.Build(doc, fix.DefaultRuleset(), policy)
//	res, _ := fix.Apply(doc, plan)
//	docio.WriteFile(res.Document, "fixed.json")
//
// # Main Packages
//
// ## Core Domain Logic
//
// [model] - The document model: layers, records, geometry, attributes.
// Unknown record kinds and attributes are carried through untouched so the
// core never destroys data it does not understand.
//
// [fingerprint] - Structural fingerprints (quantized SHA-256) and weighted
// similarity scores. Both comparison matching and duplicate detection build
// on this package.
//
// [compare] - Content-based record matching (exact by fingerprint, then
// greedy by similarity), layer and kind diffs, and the change-level
// classification.
//
// [fix] - The corrective rule catalog (duplicate removal, layer
// normalization, attribute standardization, and the rest), inert plans
// with per-action audit snapshots, and the all-or-nothing apply.
//
// [standards] - Target drawing standards: builtin ISO and TOML-loaded
// custom policies, plus the compliance checks the fix rules act on.
//
// ## Infrastructure
//
// [docio] - The JSON interchange format: loading, validation, and
// round-trip-faithful saving.
//
// [cache] - Content-keyed result caching with TTL expiration. FileCache
// for the CLI, NullCache for tests and cache-off runs.
//
// [pipeline] - The shared orchestration layer used by the CLI: loads
// documents, consults the cache, runs comparisons and fix plans, and
// reports cache info alongside results.
//
// [observability] - No-op instrumentation hooks for pipeline and cache
// events. Consumers register implementations; the core stays free of
// observability framework imports.
//
// [errors] - The error taxonomy: stable machine-readable codes, typed
// budget and rule-validation errors, and shared input validators.
//
// ## Output
//
// [report] - Renders comparison and fix results as markdown, JSON, and
// Graphviz node-link diagrams (DOT and SVG).
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/compare/...    # Specific package
//
// [model]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/model
// [fingerprint]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/fingerprint
// [compare]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/compare
// [fix]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/fix
// [standards]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/standards
// [docio]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/docio
// [cache]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/pipeline
// [observability]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/observability
// [errors]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/errors
// [report]: https://pkg.go.dev/github.com/drawrev/drawrev/pkg/report
package pkg
