package compare

import (
	"github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/fingerprint"
)

// Default comparison thresholds. These are tunable configuration values,
// not normative constants; callers override them through [Options].
const (
	// DefaultSimilarityThreshold is the minimum similarity for two records
	// to be paired as a modification instead of a remove+add.
	DefaultSimilarityThreshold = 0.6

	// DefaultMinorLimit is the maximum number of structural changes still
	// classified as a minor revision.
	DefaultMinorLimit = 3

	// DefaultModerateFraction is the maximum share of structural changes
	// (relative to the larger document's record count) still classified as
	// a moderate revision.
	DefaultModerateFraction = 0.10
)

// Options configures a comparison. All thresholds are passed explicitly;
// nothing is read from ambient global state.
type Options struct {
	// Fingerprint configures quantization for fingerprints and similarity.
	Fingerprint fingerprint.Config

	// SimilarityThreshold is the minimum score for pairing leftover records
	// as modified. Must be in [0, 1].
	SimilarityThreshold float64

	// MinorLimit is the maximum structural change count for a minor
	// classification. Must be >= 0.
	MinorLimit int

	// ModerateFraction is the maximum structural-change fraction for a
	// moderate classification. Must be in [0, 1].
	ModerateFraction float64

	// MaxRecords caps the combined record count of both documents.
	// 0 means unlimited. Exceeding the cap fails with BUDGET_EXCEEDED
	// before any matching work is done.
	MaxRecords int
}

// DefaultOptions returns the default comparison options.
func DefaultOptions() Options {
	return Options{
		Fingerprint:         fingerprint.DefaultConfig(),
		SimilarityThreshold: DefaultSimilarityThreshold,
		MinorLimit:          DefaultMinorLimit,
		ModerateFraction:    DefaultModerateFraction,
	}
}

// Validate checks all thresholds, returning an INVALID_CONFIG error for the
// first out-of-range value. Invalid options are never silently clamped.
func (o Options) Validate() error {
	if err := o.Fingerprint.Validate(); err != nil {
		return err
	}
	if err := errors.ValidateUnitInterval("similarity threshold", o.SimilarityThreshold); err != nil {
		return err
	}
	if o.MinorLimit < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "minor limit must be >= 0, got %d", o.MinorLimit)
	}
	if err := errors.ValidateUnitInterval("moderate fraction", o.ModerateFraction); err != nil {
		return err
	}
	if o.MaxRecords < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max records must be >= 0, got %d", o.MaxRecords)
	}
	return nil
}
