package errors

import (
	"strings"
	"unicode"
)

// ValidateTolerance validates a geometric quantization tolerance.
// Tolerances must be strictly positive; a zero or negative tolerance is a
// configuration error and is never silently clamped.
func ValidateTolerance(tol float64) error {
	if tol <= 0 {
		return New(ErrCodeInvalidConfig, "tolerance must be positive, got %v", tol)
	}
	return nil
}

// ValidateUnitInterval validates that a threshold lies in [0, 1].
// Used for similarity and consolidation thresholds.
func ValidateUnitInterval(name string, v float64) error {
	if v < 0 || v > 1 {
		return New(ErrCodeInvalidConfig, "%s must be in [0,1], got %v", name, v)
	}
	return nil
}

// ValidateLayerName validates a layer name for structural safety.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
//
// Standard-specific naming policy is enforced separately by the standards
// package.
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "layer name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "layer name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "layer name contains invalid control characters")
		}
	}

	return nil
}

// ValidatePolicyFilename validates a policy filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidatePolicyFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPolicy, "policy filename cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPolicy, "policy filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidPolicy, "policy filename cannot be a hidden file")
	}

	return nil
}
