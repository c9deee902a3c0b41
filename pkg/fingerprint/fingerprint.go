package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/model"
)

// DefaultTolerance is the default quantization tolerance in drawing units.
// Geometry values are snapped to this grid before hashing so floating-point
// noise from re-serialization does not break equality.
const DefaultTolerance = 1e-6

// defaultVolatileAttrs are attribute names excluded from fingerprints in
// addition to keys carrying the model.VolatilePrefix. They hold values that
// change between saves without the record itself changing.
var defaultVolatileAttrs = []string{"created", "modified", "timestamp", "owner"}

// Config controls fingerprint computation. The zero value is not usable;
// use DefaultConfig and adjust as needed.
type Config struct {
	// Tolerance is the quantization grid for geometry values. Must be > 0.
	Tolerance float64

	// VolatileAttrs lists attribute names excluded from fingerprints,
	// in addition to the built-in volatile set.
	VolatileAttrs []string
}

// DefaultConfig returns the default fingerprint configuration.
func DefaultConfig() Config {
	return Config{Tolerance: DefaultTolerance}
}

// Validate checks the configuration, returning an INVALID_CONFIG error for
// out-of-range values. Invalid configurations are never silently clamped.
func (c Config) Validate() error {
	return errors.ValidateTolerance(c.Tolerance)
}

// Value is a fingerprint: a 64-character hex SHA-256 digest of a record's
// canonical serialization. Two records with equal values are considered
// structurally identical.
type Value string

// Fingerprinter computes fingerprints and similarity scores for records.
// It is stateless apart from its configuration and safe for concurrent use.
type Fingerprinter struct {
	cfg      Config
	volatile map[string]bool
}

// New creates a Fingerprinter from the configuration.
// Returns an INVALID_CONFIG error if the configuration is invalid.
func New(cfg Config) (*Fingerprinter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	volatile := make(map[string]bool, len(defaultVolatileAttrs)+len(cfg.VolatileAttrs))
	for _, k := range defaultVolatileAttrs {
		volatile[k] = true
	}
	for _, k := range cfg.VolatileAttrs {
		volatile[k] = true
	}
	return &Fingerprinter{cfg: cfg, volatile: volatile}, nil
}

// Tolerance returns the configured quantization tolerance.
func (f *Fingerprinter) Tolerance() float64 { return f.cfg.Tolerance }

// Fingerprint computes the record's structural fingerprint: a SHA-256 hash
// over the canonical serialization of kind, quantized geometry, and the
// non-volatile attribute subset. The layer is deliberately excluded - layer
// membership is a partition key for matching, not part of record content.
//
// The function is pure and deterministic: equal records always produce
// equal values regardless of attribute map iteration order.
func (f *Fingerprinter) Fingerprint(r *model.Record) Value {
	var b strings.Builder
	f.writeCanonical(&b, r)
	sum := sha256.Sum256([]byte(b.String()))
	return Value(hex.EncodeToString(sum[:]))
}

// GeometryEqual reports whether two records' geometry is identical under the
// configured quantization tolerance. Used by near-duplicate consolidation,
// where attributes may differ but geometry must coincide.
func (f *Fingerprinter) GeometryEqual(a, b *model.Record) bool {
	var ba, bb strings.Builder
	f.writeGeometry(&ba, a.Geom)
	f.writeGeometry(&bb, b.Geom)
	return ba.String() == bb.String()
}

// quantize snaps v onto the tolerance grid, returning the bucket index.
// Records whose values differ by less than the tolerance land in the same
// bucket and hash identically.
func (f *Fingerprinter) quantize(v float64) int64 {
	return int64(math.Round(v / f.cfg.Tolerance))
}

func (f *Fingerprinter) writeCanonical(b *strings.Builder, r *model.Record) {
	b.WriteString(r.Kind)
	b.WriteByte('\n')
	f.writeGeometry(b, r.Geom)
	f.writeAttrs(b, r.Attrs)
}

func (f *Fingerprinter) writeGeometry(b *strings.Builder, g model.Geometry) {
	b.WriteString("g|")
	for _, p := range g.Points {
		fmt.Fprintf(b, "p%d,%d,%d;", f.quantize(p.X), f.quantize(p.Y), f.quantize(p.Z))
	}
	if g.Radius != 0 {
		fmt.Fprintf(b, "r%d;", f.quantize(g.Radius))
	}
	if g.StartAngle != 0 || g.EndAngle != 0 {
		fmt.Fprintf(b, "a%d,%d;", f.quantize(g.StartAngle), f.quantize(g.EndAngle))
	}
	for _, e := range g.Extents {
		fmt.Fprintf(b, "e%d;", f.quantize(e))
	}
	b.WriteByte('\n')
}

func (f *Fingerprinter) writeAttrs(b *strings.Builder, attrs model.Attributes) {
	b.WriteString("a|")
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		if f.isVolatile(k) {
			continue
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(canonicalValue(attrs[k], f))
		b.WriteByte(';')
	}
	b.WriteByte('\n')
}

// isVolatile reports whether an attribute key is excluded from fingerprints.
func (f *Fingerprinter) isVolatile(key string) bool {
	return f.volatile[key] || strings.HasPrefix(key, model.VolatilePrefix)
}

// canonicalValue renders an attribute value deterministically. Numeric
// values are quantized like geometry so JSON round-trips (which may turn
// ints into floats) do not change fingerprints.
func canonicalValue(v any, f *Fingerprinter) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatInt(f.quantize(x), 10)
	case float32:
		return strconv.FormatInt(f.quantize(float64(x)), 10)
	case int:
		return strconv.FormatInt(f.quantize(float64(x)), 10)
	case int64:
		return strconv.FormatInt(f.quantize(float64(x)), 10)
	default:
		return fmt.Sprintf("%v", x)
	}
}
