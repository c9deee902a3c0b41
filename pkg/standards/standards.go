// Package standards defines drawing-standard policies: canonical layer
// definitions, text height bounds, and the compliance checks that the fix
// package's normalization rules act on.
//
// A [Policy] can come from the builtin catalog (currently ISO) or from a
// TOML file, the same way manifest data is parsed elsewhere in the corpus.
// Policies are plain data; checking them never mutates a document.
package standards

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/model"
)

// LayerRule defines the canonical form of one layer role. A layer matches
// the rule when its lowercase name contains any of the Match substrings, or
// when it already carries the canonical name.
type LayerRule struct {
	Canonical string   `toml:"canonical"` // canonical layer name, e.g. "DIMENSION"
	Match     []string `toml:"match"`     // lowercase name fragments identifying the role
	Color     int      `toml:"color"`     // required color code
	Linetype  string   `toml:"linetype"`  // required linetype
}

// Matches reports whether the layer name belongs to this rule's role.
func (r LayerRule) Matches(name string) bool {
	if name == r.Canonical {
		return true
	}
	lower := strings.ToLower(name)
	for _, frag := range r.Match {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Policy is a target drawing standard: which layers exist, what color and
// linetype they carry, and what text heights are acceptable.
type Policy struct {
	Name          string      `toml:"name"`
	Layers        []LayerRule `toml:"layers"`
	MinTextHeight float64     `toml:"min_text_height"` // 0 disables the lower bound
	MaxTextHeight float64     `toml:"max_text_height"` // 0 disables the upper bound
	TextHeights   []float64   `toml:"text_heights"`    // preferred standard heights
	TextLayer     string      `toml:"text_layer"`      // canonical text layer, "" disables organization
}

// ISO returns the builtin ISO 128 style policy used by the original
// corrective catalog: dimension lines yellow, center lines red, hidden
// lines green, text cyan, hatches grey, minimum text height 2.5 units.
func ISO() Policy {
	return Policy{
		Name: "ISO",
		Layers: []LayerRule{
			{Canonical: "DIMENSION", Match: []string{"dim"}, Color: 2, Linetype: "CONTINUOUS"},
			{Canonical: "CENTER", Match: []string{"center", "centre"}, Color: 1, Linetype: "CENTER"},
			{Canonical: "HIDDEN", Match: []string{"hidden"}, Color: 3, Linetype: "HIDDEN"},
			{Canonical: "TEXT", Match: []string{"text", "note"}, Color: 4, Linetype: "CONTINUOUS"},
			{Canonical: "HATCH", Match: []string{"hatch"}, Color: 254, Linetype: "CONTINUOUS"},
		},
		MinTextHeight: 2.5,
		TextHeights:   []float64{2.5, 3.5, 5.0, 7.0},
		TextLayer:     "TEXT",
	}
}

// Get returns a builtin policy by name (case-insensitive).
// Returns an INVALID_POLICY error for unknown names.
func Get(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "iso", "":
		return ISO(), nil
	default:
		return Policy{}, errors.New(errors.ErrCodeInvalidPolicy, "unknown standard %q", name)
	}
}

// Load reads a policy from a TOML file.
// Returns FILE_NOT_FOUND if the file does not exist, INVALID_POLICY for
// malformed or inconsistent content.
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Policy{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "policy file %s", path)
	}
	if err != nil {
		return Policy{}, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "read policy %s", path)
	}

	var p Policy
	if err := toml.Unmarshal(data, &p); err != nil {
		return Policy{}, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "parse policy %s", path)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the policy for internal consistency.
func (p Policy) Validate() error {
	if p.Name == "" {
		return errors.New(errors.ErrCodeInvalidPolicy, "policy name must not be empty")
	}
	seen := make(map[string]bool, len(p.Layers))
	for _, r := range p.Layers {
		if r.Canonical == "" {
			return errors.New(errors.ErrCodeInvalidPolicy, "layer rule without canonical name")
		}
		if seen[r.Canonical] {
			return errors.New(errors.ErrCodeInvalidPolicy, "duplicate layer rule %q", r.Canonical)
		}
		seen[r.Canonical] = true
	}
	if p.MinTextHeight < 0 || p.MaxTextHeight < 0 {
		return errors.New(errors.ErrCodeInvalidPolicy, "text height bounds must not be negative")
	}
	if p.MaxTextHeight > 0 && p.MinTextHeight > p.MaxTextHeight {
		return errors.New(errors.ErrCodeInvalidPolicy, "min text height %v exceeds max %v", p.MinTextHeight, p.MaxTextHeight)
	}
	for _, h := range p.TextHeights {
		if h <= 0 {
			return errors.New(errors.ErrCodeInvalidPolicy, "standard text height must be positive, got %v", h)
		}
	}
	return nil
}

// MatchLayer returns the rule governing the given layer name, if any.
func (p Policy) MatchLayer(name string) (LayerRule, bool) {
	for _, r := range p.Layers {
		if r.Matches(name) {
			return r, true
		}
	}
	return LayerRule{}, false
}

// ClampHeight maps a text height into the policy's acceptable range.
// Heights inside the bounds are returned unchanged; heights outside are
// replaced with the nearest standard height that satisfies the bounds, or
// with the violated bound itself when no standard height qualifies.
func (p Policy) ClampHeight(h float64) float64 {
	if p.HeightOK(h) {
		return h
	}
	bound := p.MinTextHeight
	if p.MaxTextHeight > 0 && h > p.MaxTextHeight {
		bound = p.MaxTextHeight
	}
	best := bound
	for _, std := range p.TextHeights {
		if p.HeightOK(std) && closer(std, h, best) {
			best = std
		}
	}
	return best
}

// HeightOK reports whether a text height satisfies the policy bounds.
func (p Policy) HeightOK(h float64) bool {
	if p.MinTextHeight > 0 && h < p.MinTextHeight {
		return false
	}
	if p.MaxTextHeight > 0 && h > p.MaxTextHeight {
		return false
	}
	return true
}

func closer(candidate, target, current float64) bool {
	dc := candidate - target
	if dc < 0 {
		dc = -dc
	}
	dcur := current - target
	if dcur < 0 {
		dcur = -dcur
	}
	return dc < dcur
}

// Violation describes one departure from the policy.
type Violation struct {
	Type     string // "layer_color", "layer_linetype", "text_height"
	Layer    string // offending layer name, if layer-scoped
	Handle   string // offending record handle, if record-scoped
	Detail   string
	Expected any
	Actual   any
}

// Check evaluates a document against the policy and returns all violations
// in a deterministic order (layers first, then records in document order).
// The fix package's layer-normalization and attribute rules consume these.
func (p Policy) Check(doc *model.Document) []Violation {
	var out []Violation

	for _, l := range doc.Layers() {
		rule, ok := p.MatchLayer(l.Name)
		if !ok {
			continue
		}
		if l.Color != rule.Color {
			out = append(out, Violation{
				Type:     "layer_color",
				Layer:    l.Name,
				Detail:   fmt.Sprintf("layer %q color %d, standard requires %d", l.Name, l.Color, rule.Color),
				Expected: rule.Color,
				Actual:   l.Color,
			})
		}
		if rule.Linetype != "" && l.Linetype != rule.Linetype {
			out = append(out, Violation{
				Type:     "layer_linetype",
				Layer:    l.Name,
				Detail:   fmt.Sprintf("layer %q linetype %q, standard requires %q", l.Name, l.Linetype, rule.Linetype),
				Expected: rule.Linetype,
				Actual:   l.Linetype,
			})
		}
	}

	for _, r := range doc.Records() {
		if !model.IsTextKind(r.Kind) {
			continue
		}
		if h, ok := r.Height(); ok && !p.HeightOK(h) {
			out = append(out, Violation{
				Type:     "text_height",
				Layer:    r.Layer,
				Handle:   r.Handle,
				Detail:   fmt.Sprintf("text %q height %v outside policy bounds", r.Handle, h),
				Expected: p.ClampHeight(h),
				Actual:   h,
			})
		}
	}

	return out
}

// StandardHeights returns the policy's preferred text heights in ascending
// order without mutating the policy.
func (p Policy) StandardHeights() []float64 {
	out := slices.Clone(p.TextHeights)
	slices.Sort(out)
	return out
}
