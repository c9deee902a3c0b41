package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drawrev/drawrev/pkg/cache"
	"github.com/drawrev/drawrev/pkg/compare"
	"github.com/drawrev/drawrev/pkg/docio"
	drawerrors "github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/fix"
	"github.com/drawrev/drawrev/pkg/model"
	"github.com/drawrev/drawrev/pkg/observability"
	"github.com/drawrev/drawrev/pkg/standards"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and automation can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// CompareFiles runs the complete load → compare workflow with caching.
func (r *Runner) CompareFiles(ctx context.Context, pathA, pathB string, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	loadStart := time.Now()
	docA, err := r.Load(ctx, pathA)
	if err != nil {
		return nil, err
	}
	docB, err := r.Load(ctx, pathB)
	if err != nil {
		return nil, err
	}
	result.DocA = docA
	result.DocB = docB
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.RecordsA = docA.RecordCount()
	result.Stats.RecordsB = docB.RecordCount()

	compareStart := time.Now()
	diff, diffHit, err := r.DiffWithCacheInfo(ctx, docA, docB, opts)
	if err != nil {
		return nil, err
	}
	result.Diff = diff
	result.Stats.CompareTime = time.Since(compareStart)
	result.CacheInfo.DiffHit = diffHit

	r.Logger.Info("compared revisions",
		"records_a", result.Stats.RecordsA,
		"records_b", result.Stats.RecordsB,
		"level", diff.Level.String(),
		"cached", diffHit,
		"duration", result.Stats.CompareTime)

	return result, nil
}

// FixFile runs the complete load → plan → apply workflow.
// With opts.DryRun the plan is built but never applied.
func (r *Runner) FixFile(ctx context.Context, path string, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	loadStart := time.Now()
	doc, err := r.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	result.DocA = doc
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.RecordsA = doc.RecordCount()

	planStart := time.Now()
	plan, planHit, err := r.BuildPlanWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Plan = plan
	result.Stats.PlanTime = time.Since(planStart)
	result.CacheInfo.PlanHit = planHit

	r.Logger.Info("built plan",
		"actions", len(plan.Actions),
		"rules", plan.Rules(),
		"cached", planHit,
		"duration", result.Stats.PlanTime)

	if opts.DryRun || plan.Empty() {
		return result, nil
	}

	applyStart := time.Now()
	observability.Pipeline().OnApplyStart(ctx, plan.ID, len(plan.Actions))
	applied, err := fix.Apply(doc, plan)
	result.Stats.ApplyTime = time.Since(applyStart)
	observability.Pipeline().OnApplyComplete(ctx, plan.ID, result.Stats.ApplyTime, err)
	if err != nil {
		return nil, err
	}
	result.Fix = applied

	r.Logger.Info("applied plan",
		"plan", plan.ID,
		"actions", len(applied.Applied),
		"duration", result.Stats.ApplyTime)

	return result, nil
}

// Load reads a document from disk, emitting load events.
func (r *Runner) Load(ctx context.Context, path string) (*model.Document, error) {
	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, path)
	doc, err := docio.ReadFile(path)
	count := 0
	if doc != nil {
		count = doc.RecordCount()
	}
	observability.Pipeline().OnLoadComplete(ctx, path, count, time.Since(start), err)
	return doc, err
}

// DiffWithCacheInfo compares two documents with caching and returns cache
// hit info. Results are keyed by both documents' content hashes plus the
// comparison options, so unchanged inputs are pure cache hits.
func (r *Runner) DiffWithCacheInfo(ctx context.Context, docA, docB *model.Document, opts Options) (*compare.Result, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey, keyOK := r.diffKey(docA, docB, opts)

	// Try cache first (unless refresh requested)
	if keyOK && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached compare.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "diff")
				return &cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "diff")
	}

	start := time.Now()
	observability.Pipeline().OnCompareStart(ctx, docA.RecordCount(), docB.RecordCount())
	diff, err := compare.Compare(ctx, docA, docB, opts.CompareOptions())
	changes := 0
	if diff != nil {
		changes = diff.StructuralChanges()
	}
	observability.Pipeline().OnCompareComplete(ctx, changes, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if keyOK {
		if data, err := json.Marshal(diff); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLDiff)
			observability.Cache().OnCacheSet(ctx, "diff", len(data))
		}
	}

	return diff, false, nil
}

// Diff is a convenience wrapper that calls DiffWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Diff(ctx context.Context, docA, docB *model.Document, opts Options) (*compare.Result, error) {
	diff, _, err := r.DiffWithCacheInfo(ctx, docA, docB, opts)
	return diff, err
}

// BuildPlanWithCacheInfo builds a corrective plan with caching and returns
// cache hit info.
func (r *Runner) BuildPlanWithCacheInfo(ctx context.Context, doc *model.Document, opts Options) (*fix.Plan, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	rs, err := opts.Ruleset()
	if err != nil {
		return nil, false, err
	}
	policy, err := opts.Policy()
	if err != nil {
		return nil, false, err
	}

	cacheKey, keyOK := r.planKey(doc, opts, rs, policy)

	if keyOK && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached fix.Plan
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "plan")
				return &cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "plan")
	}

	start := time.Now()
	observability.Pipeline().OnPlanStart(ctx, policy.Name, doc.RecordCount())
	plan, err := fix.Build(doc, rs, policy)
	actions := 0
	if plan != nil {
		actions = len(plan.Actions)
	}
	observability.Pipeline().OnPlanComplete(ctx, actions, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if keyOK {
		if data, err := json.Marshal(plan); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLPlan)
			observability.Cache().OnCacheSet(ctx, "plan", len(data))
		}
	}

	return plan, false, nil
}

// BuildPlan is a convenience wrapper that calls BuildPlanWithCacheInfo and
// discards the cache hit info.
func (r *Runner) BuildPlan(ctx context.Context, doc *model.Document, opts Options) (*fix.Plan, error) {
	plan, _, err := r.BuildPlanWithCacheInfo(ctx, doc, opts)
	return plan, err
}

// Apply executes a plan against a document. Thin wrapper kept on the runner
// so callers can stay on one API for the whole workflow.
func (r *Runner) Apply(ctx context.Context, doc *model.Document, plan *fix.Plan) (*fix.Result, error) {
	if plan == nil {
		return nil, drawerrors.New(drawerrors.ErrCodeInvalidInput, "plan is required")
	}
	start := time.Now()
	observability.Pipeline().OnApplyStart(ctx, plan.ID, len(plan.Actions))
	result, err := fix.Apply(doc, plan)
	observability.Pipeline().OnApplyComplete(ctx, plan.ID, time.Since(start), err)
	return result, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// diffKey computes the comparison cache key from both documents' content
// hashes. Returns false when a document cannot be serialized; callers then
// skip caching instead of failing the comparison.
func (r *Runner) diffKey(docA, docB *model.Document, opts Options) (string, bool) {
	dataA, errA := docio.Marshal(docA)
	dataB, errB := docio.Marshal(docB)
	if errA != nil || errB != nil {
		return "", false
	}
	return r.Keyer.DiffKey(cache.Hash(dataA), cache.Hash(dataB), opts.DiffKeyOpts()), true
}

func (r *Runner) planKey(doc *model.Document, opts Options, rs fix.Ruleset, policy standards.Policy) (string, bool) {
	data, err := docio.Marshal(doc)
	if err != nil {
		return "", false
	}
	return r.Keyer.PlanKey(cache.Hash(data), opts.PlanKeyOpts(rs, policy)), true
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
