// Package pipeline provides the core document workflows for drawrev.
//
// This package implements the complete load → compare → report and
// load → plan → apply flows that can be used by CLI and automation
// components. By centralizing this logic, we ensure consistent behavior
// across all entry points and avoid code duplication.
//
// # Architecture
//
// Two workflows share the same runner:
//
//  1. Diff: load two document revisions and compare them
//  2. Fix: load a document, build a corrective plan, and apply it
//
// Each stage can be run independently or as part of the complete workflow.
//
// # Usage
//
// Create a Runner and execute a workflow:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Standard: "iso"}
//	result, err := runner.CompareFiles(ctx, "rev_a.json", "rev_b.json", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Diff.Level)
//
// Run individual stages:
//
//	// Compare documents already in memory
//	diff, err := runner.Diff(ctx, docA, docB, opts)
//
//	// Build a plan without applying it
//	plan, err := runner.BuildPlan(ctx, doc, opts)
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drawrev/drawrev/pkg/cache"
	"github.com/drawrev/drawrev/pkg/compare"
	drawerrors "github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/fingerprint"
	"github.com/drawrev/drawrev/pkg/fix"
	"github.com/drawrev/drawrev/pkg/model"
	"github.com/drawrev/drawrev/pkg/standards"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Automation
// =============================================================================

const (
	// DefaultStandard is the drafting standard applied when none is named.
	DefaultStandard = "iso"

	// DefaultMaxRecords caps the combined record count of a comparison.
	// This is intentionally conservative to provide predictable runtimes
	// for CLI users; automation can override it explicitly.
	DefaultMaxRecords = 200000
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the document pipeline.
// This struct supports JSON serialization for automation requests.
type Options struct {
	// Compare options. MinorLimit and ModerateFraction are pointers because
	// zero is a meaningful setting for both (no structural change is minor,
	// no fraction is moderate); nil means "use the default".
	Tolerance           float64  `json:"tolerance,omitempty"`
	SimilarityThreshold float64  `json:"similarity_threshold,omitempty"`
	MinorLimit          *int     `json:"minor_limit,omitempty"`
	ModerateFraction    *float64 `json:"moderate_fraction,omitempty"`
	MaxRecords          int      `json:"max_records,omitempty"`

	// Fix options
	Standard   string   `json:"standard,omitempty"`
	PolicyFile string   `json:"policy_file,omitempty"` // TOML policy overriding Standard
	Disable    []string `json:"disable,omitempty"`     // rule ids to switch off
	DryRun     bool     `json:"dry_run,omitempty"`     // build the plan but never apply it

	// Refresh bypasses the cache and recomputes results.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DocA and DocB are the loaded documents. Fix workflows only set DocA.
	DocA *model.Document
	DocB *model.Document

	// Diff is the comparison result (diff workflow only).
	Diff *compare.Result

	// Plan is the corrective plan (fix workflow only).
	Plan *fix.Plan

	// Fix is the apply outcome, nil for dry runs.
	Fix *fix.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordsA    int
	RecordsB    int
	LoadTime    time.Duration
	CompareTime time.Duration
	PlanTime    time.Duration
	ApplyTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DiffHit bool // Whether the comparison result came from cache
	PlanHit bool // Whether the plan came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the pipeline.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.setDefaults()

	if err := o.CompareOptions().Validate(); err != nil {
		return err
	}
	if _, err := o.Ruleset(); err != nil {
		return err
	}
	if o.PolicyFile == "" {
		if _, err := standards.Get(o.Standard); err != nil {
			return err
		}
	}

	o.validated = true
	return nil
}

func (o *Options) setDefaults() {
	if o.Tolerance == 0 {
		o.Tolerance = fingerprint.DefaultTolerance
	}
	if o.SimilarityThreshold == 0 {
		o.SimilarityThreshold = compare.DefaultSimilarityThreshold
	}
	if o.MinorLimit == nil {
		limit := compare.DefaultMinorLimit
		o.MinorLimit = &limit
	}
	if o.ModerateFraction == nil {
		fraction := compare.DefaultModerateFraction
		o.ModerateFraction = &fraction
	}
	if o.MaxRecords == 0 {
		o.MaxRecords = DefaultMaxRecords
	}
	if o.Standard == "" {
		o.Standard = DefaultStandard
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// CompareOptions builds the comparison options from pipeline configuration.
func (o *Options) CompareOptions() compare.Options {
	opts := compare.DefaultOptions()
	opts.Fingerprint.Tolerance = o.Tolerance
	opts.SimilarityThreshold = o.SimilarityThreshold
	if o.MinorLimit != nil {
		opts.MinorLimit = *o.MinorLimit
	}
	if o.ModerateFraction != nil {
		opts.ModerateFraction = *o.ModerateFraction
	}
	opts.MaxRecords = o.MaxRecords
	return opts
}

// Ruleset builds the fix ruleset from pipeline configuration.
// Rules named in Disable are switched off; unknown ids are rejected.
func (o *Options) Ruleset() (fix.Ruleset, error) {
	rs := fix.DefaultRuleset()
	rs.Fingerprint.Tolerance = o.Tolerance
	for _, id := range o.Disable {
		switch id {
		case fix.RuleExactDuplicates:
			rs.ExactDuplicates = false
		case fix.RuleNearDuplicates:
			rs.NearDuplicates = false
		case fix.RuleLayerNorm:
			rs.LayerNorm = false
		case fix.RuleStandardLayers:
			rs.StandardLayers = false
		case fix.RuleAttrStandard:
			rs.AttrStandard = false
		case fix.RuleTextLayer:
			rs.TextLayer = false
		case fix.RuleZeroSize:
			rs.ZeroSize = false
		default:
			return fix.Ruleset{}, drawerrors.New(drawerrors.ErrCodeInvalidRule, "unknown rule: %s", id)
		}
	}
	return rs, nil
}

// Policy resolves the drafting policy from PolicyFile or Standard.
func (o *Options) Policy() (standards.Policy, error) {
	if o.PolicyFile != "" {
		return standards.Load(o.PolicyFile)
	}
	return standards.Get(o.Standard)
}

// DiffKeyOpts returns cache key options for comparison caching.
func (o *Options) DiffKeyOpts() cache.DiffKeyOpts {
	co := o.CompareOptions()
	return cache.DiffKeyOpts{
		Tolerance:           co.Fingerprint.Tolerance,
		SimilarityThreshold: co.SimilarityThreshold,
		MinorLimit:          co.MinorLimit,
		ModerateFraction:    co.ModerateFraction,
	}
}

// PlanKeyOpts returns cache key options for plan caching. Every input that
// shapes the plan participates: the resolved policy content, the enabled
// rules, and the numeric thresholds. Re-planning under a different
// tolerance must miss the cache, never serve a plan computed under the old
// one.
func (o *Options) PlanKeyOpts(rs fix.Ruleset, policy standards.Policy) cache.PlanKeyOpts {
	data, _ := json.Marshal(policy)
	return cache.PlanKeyOpts{
		Standard:               policy.Name,
		PolicyHash:             cache.Hash(data),
		Rules:                  rs.Enabled(),
		Tolerance:              rs.Fingerprint.Tolerance,
		NearDuplicateThreshold: rs.NearDuplicateThreshold,
	}
}
