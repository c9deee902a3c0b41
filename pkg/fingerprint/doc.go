// Package fingerprint derives stable structural keys and similarity
// signatures for drawing records.
//
// # Overview
//
// Source-file handles are not reliable identities across file revisions, so
// cross-document matching has to be content-based. This package provides the
// two primitives that matching is built on:
//
//   - [Fingerprinter.Fingerprint]: a deterministic SHA-256 digest of a
//     record's kind, quantized geometry, and non-volatile attributes.
//     Identical fingerprints mean structurally identical records.
//   - [Fingerprinter.Similarity]: a continuous [0,1] score for near-match
//     detection when exact fingerprints diverge, computed as a weighted
//     Jaccard overlap over a decomposed feature set.
//
// # Quantization
//
// Geometry values are snapped onto a tolerance grid (default 1e-6 drawing
// units) before hashing, so floating-point noise introduced by load/save
// round-trips does not break equality. The tolerance is part of [Config],
// not a hidden constant, and is validated at construction time.
package fingerprint
