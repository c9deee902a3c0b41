// Package fix evaluates a drawing against a corrective rule catalog and
// applies the resulting rewrite plan transactionally.
//
// # Overview
//
// The engine splits corrective rewriting into two explicit steps:
//
//  1. [Build] evaluates the enabled rules against the document and produces
//     a [Plan] - an ordered list of [Action] values, each carrying a
//     before-snapshot (for reversibility) and an after-snapshot (the
//     post-condition).
//  2. [Apply] executes a plan against a working copy, validating every
//     action's post-condition. A single failure rejects the whole apply
//     and returns the original document untouched.
//
// Build never applies and Apply never plans, so callers can inspect,
// filter, or persist a plan before committing to it.
//
// # Rule Catalog
//
// Exact-duplicate removal, near-duplicate consolidation, layer
// normalization (including pruning of empty non-standard layers),
// standard-layer synthesis, attribute standardization (text heights),
// text-layer organization, and zero-size record removal. Each rule is
// independently toggleable through [Ruleset]; the target standard comes
// from the standards package.
//
// # Guarantees
//
//   - The input document is never mutated; results are new documents.
//   - A [Backup] is taken before any mutation and is returned even when
//     the apply is rejected.
//   - Apply is all-or-nothing; there is no partial-success mode.
//   - Planning is idempotent: a plan built from a fixed document is empty.
package fix
