package fix

import (
	"time"

	"github.com/drawrev/drawrev/pkg/fingerprint"
	"github.com/drawrev/drawrev/pkg/model"
)

// Rule identifiers for the corrective catalog. Each rule is independently
// toggleable through [Ruleset].
const (
	RuleExactDuplicates = "exact-duplicate-removal"
	RuleNearDuplicates  = "near-duplicate-consolidation"
	RuleLayerNorm       = "layer-normalization"
	RuleStandardLayers  = "standard-layer-synthesis"
	RuleAttrStandard    = "attribute-standardization"
	RuleTextLayer       = "text-layer-organization"
	RuleZeroSize        = "zero-size-removal"
)

// DefaultNearDuplicateThreshold is the minimum similarity for two records
// to be consolidated as near-duplicates. Deliberately strict: consolidation
// destroys information, so only records whose geometry coincides under the
// quantization tolerance qualify.
const DefaultNearDuplicateThreshold = 0.95

// Ruleset selects which corrective rules a plan evaluates and carries their
// configuration. All fields are explicit; nothing comes from global state.
type Ruleset struct {
	ExactDuplicates bool
	NearDuplicates  bool
	LayerNorm       bool
	StandardLayers  bool
	AttrStandard    bool
	TextLayer       bool
	ZeroSize        bool

	// NearDuplicateThreshold is the similarity floor for consolidation.
	// Must be in [0, 1].
	NearDuplicateThreshold float64

	// Fingerprint configures quantization for duplicate detection.
	Fingerprint fingerprint.Config
}

// DefaultRuleset returns a ruleset with every rule enabled and default
// thresholds.
func DefaultRuleset() Ruleset {
	return Ruleset{
		ExactDuplicates:        true,
		NearDuplicates:         true,
		LayerNorm:              true,
		StandardLayers:         true,
		AttrStandard:           true,
		TextLayer:              true,
		ZeroSize:               true,
		NearDuplicateThreshold: DefaultNearDuplicateThreshold,
		Fingerprint:            fingerprint.DefaultConfig(),
	}
}

// Enabled returns the ids of enabled rules in catalog order.
func (rs Ruleset) Enabled() []string {
	var out []string
	for _, r := range []struct {
		id string
		on bool
	}{
		{RuleStandardLayers, rs.StandardLayers},
		{RuleLayerNorm, rs.LayerNorm},
		{RuleZeroSize, rs.ZeroSize},
		{RuleExactDuplicates, rs.ExactDuplicates},
		{RuleNearDuplicates, rs.NearDuplicates},
		{RuleAttrStandard, rs.AttrStandard},
		{RuleTextLayer, rs.TextLayer},
	} {
		if r.on {
			out = append(out, r.id)
		}
	}
	return out
}

// ActionKind identifies the mutation an action performs.
type ActionKind string

// Action kinds.
const (
	ActionRemoveRecord   ActionKind = "remove-record"
	ActionMergeRecords   ActionKind = "merge-records"
	ActionSetLayerStyle  ActionKind = "set-layer-style"
	ActionRenameLayer    ActionKind = "rename-layer"
	ActionAddLayer       ActionKind = "add-layer"
	ActionPruneLayer     ActionKind = "prune-layer"
	ActionSetRecordLayer ActionKind = "set-record-layer"
	ActionSetAttr        ActionKind = "set-attribute"
)

// Snapshot captures the state of the action's target before or after the
// mutation. Exactly one field is set, matching the action's target type.
type Snapshot struct {
	Record *model.Record `json:"record,omitempty"`
	Layer  *model.Layer  `json:"layer,omitempty"`
}

// Action is one planned corrective mutation with its audit trail. The
// Before snapshot makes every action independently reversible; the After
// snapshot is the post-condition that apply validates.
type Action struct {
	Rule        string     `json:"rule"`
	Kind        ActionKind `json:"kind"`
	Description string     `json:"description"`

	// RecordHandle targets a record; LayerName targets a layer. Merge
	// actions additionally name the surviving record.
	RecordHandle   string `json:"record_handle,omitempty"`
	SurvivorHandle string `json:"survivor_handle,omitempty"`
	LayerName      string `json:"layer_name,omitempty"`

	Before *Snapshot `json:"before,omitempty"`
	After  *Snapshot `json:"after,omitempty"`
}

// Plan is an ordered list of corrective actions produced by [Build]. A plan
// is inert data: nothing is mutated until it is passed to [Apply], so a
// caller can inspect or filter it first.
type Plan struct {
	ID        string    `json:"id"`
	Standard  string    `json:"standard"`
	CreatedAt time.Time `json:"created_at"`
	Actions   []Action  `json:"actions"`
}

// Empty reports whether the plan contains no actions. Planning against an
// already-compliant document yields an empty plan.
func (p *Plan) Empty() bool { return len(p.Actions) == 0 }

// Rules returns the distinct rule ids present in the plan, in first-use order.
func (p *Plan) Rules() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range p.Actions {
		if !seen[a.Rule] {
			seen[a.Rule] = true
			out = append(out, a.Rule)
		}
	}
	return out
}

// Backup is the pre-mutation snapshot of a document. It is taken before any
// action is applied and survives even when the apply itself is rejected, so
// callers can hand it to their persistence layer for audit or rollback.
type Backup struct {
	ID       string          `json:"id"`
	TakenAt  time.Time       `json:"taken_at"`
	Document *model.Document `json:"-"`
}

// Result is the outcome of a successful apply: the fixed document (a new
// document; the input is never mutated), the actions that were applied, and
// the pre-mutation backup. Results are immutable after construction.
type Result struct {
	Document *model.Document `json:"-"`
	Applied  []Action        `json:"applied"`
	Backup   *Backup         `json:"backup"`
	PlanID   string          `json:"plan_id"`
}
