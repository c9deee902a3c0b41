// Package cache provides caching for expensive pipeline stages.
//
// Comparison and planning results are cached keyed by document content
// hashes plus the options that shaped them, so re-running the same
// comparison against unchanged files is a pure cache hit.
package cache

import (
	"context"
	"time"
)

// TTLs per cached stage. Diff results are cheap to recompute relative to
// large documents, but stale entries are harmless since keys embed content
// hashes; the TTL only bounds disk growth.
const (
	TTLDiff = 7 * 24 * time.Hour
	TTLPlan = 24 * time.Hour
)

// Cache is the storage interface for cached pipeline results.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was found; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// DiffKeyOpts are the comparison options that participate in cache keys.
// Two comparisons with different options must never share a cache entry.
type DiffKeyOpts struct {
	Tolerance           float64 `json:"tolerance"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	MinorLimit          int     `json:"minor_limit"`
	ModerateFraction    float64 `json:"moderate_fraction"`
}

// PlanKeyOpts are the planning inputs that participate in cache keys.
// PolicyHash covers the resolved policy content, not just its name, so a
// plan built under an edited policy file never shadows one built under the
// builtin policy of the same name.
type PlanKeyOpts struct {
	Standard               string   `json:"standard"`
	PolicyHash             string   `json:"policy_hash"`
	Rules                  []string `json:"rules"`
	Tolerance              float64  `json:"tolerance"`
	NearDuplicateThreshold float64  `json:"near_duplicate_threshold"`
}

// Keyer generates deterministic cache keys for pipeline stages.
type Keyer interface {
	// DiffKey generates a key for a comparison of two documents,
	// identified by their content hashes.
	DiffKey(hashA, hashB string, opts DiffKeyOpts) string

	// PlanKey generates a key for a fix plan built against a document.
	PlanKey(docHash string, opts PlanKeyOpts) string
}

// DefaultKeyer is the standard key generator.
// Keys are prefixed by stage and derived from a SHA-256 hash of the inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DiffKey generates a key for a comparison result.
func (k *DefaultKeyer) DiffKey(hashA, hashB string, opts DiffKeyOpts) string {
	return hashKey("diff", hashA, hashB, opts)
}

// PlanKey generates a key for a fix plan.
func (k *DefaultKeyer) PlanKey(docHash string, opts PlanKeyOpts) string {
	return hashKey("plan", docHash, opts)
}
