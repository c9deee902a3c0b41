// Package compare matches records between two drawing versions and
// classifies every record as added, removed, modified, or unchanged.
//
// # Overview
//
// Handles from the source format are not stable across revisions, so the
// comparator never keys on them. Instead it works in three passes per
// (kind, layer) partition:
//
//  1. Exact matching: records with identical fingerprints pair off with
//     multiset semantics - duplicate identical records pair count-for-count.
//  2. Similarity matching: leftover records are paired greedily, highest
//     similarity first, above a configurable threshold. Pairs become
//     modified entries carrying the changed attribute set and a
//     geometry-delta flag.
//  3. Classification: remaining records on the old side are removed, on the
//     new side added.
//
// Layer membership is part of the partition key on purpose: a record moved
// to another layer reports as remove+add, not as a modification.
//
// # Change Level
//
// The entry counts aggregate into an ordinal severity ([ChangeLevel]):
// none, minor, moderate, or major, controlled by the thresholds in
// [Options]. Comparing any document against an empty one is always major.
//
// # Determinism
//
// Output order and pairing decisions are fully deterministic: partitions
// are visited in sorted order and similarity ties break by original
// document order. Symmetry holds up to swapping added and removed:
// Compare(A, B) mirrors Compare(B, A).
package compare
