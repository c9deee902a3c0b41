package compare

import (
	"context"
	"maps"
	"math"
	"slices"
	"sort"

	"github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/fingerprint"
	"github.com/drawrev/drawrev/pkg/model"
)

// partitionKey groups records that may be matched against each other.
// Records of different kinds or on different layers are never paired, so a
// record moved across layers shows up as a remove+add, not a modification.
type partitionKey struct {
	kind  string
	layer string
}

// indexed pairs a record with its position in document order. Positions
// drive deterministic tie-breaking and duplicate retention.
type indexed struct {
	rec *model.Record
	idx int
}

// Compare computes the structural difference between two documents.
//
// Matching is content-based, never handle-based: records are partitioned by
// (kind, layer), paired exactly by fingerprint with multiset semantics, and
// leftover records are paired greedily by similarity above the configured
// threshold. Remaining unmatched records become removed (docA side) or
// added (docB side) entries.
//
// Both documents are read-only inputs; the returned Result is immutable.
// Compare honors the context deadline and the MaxRecords budget, failing
// with a BUDGET_EXCEEDED error rather than returning a partial result.
func Compare(ctx context.Context, docA, docB *model.Document, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := docA.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "first document")
	}
	if err := docB.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "second document")
	}
	if opts.MaxRecords > 0 {
		if total := docA.RecordCount() + docB.RecordCount(); total > opts.MaxRecords {
			return nil, errors.Wrap(errors.ErrCodeBudgetExceeded,
				&errors.BudgetError{Limit: opts.MaxRecords, Reason: "records"},
				"comparison aborted at %d records", total)
		}
	}

	fp, err := fingerprint.New(opts.Fingerprint)
	if err != nil {
		return nil, err
	}

	partsA := partition(docA)
	partsB := partition(docB)

	result := &Result{}
	for _, key := range partitionKeys(partsA, partsB) {
		if err := checkDeadline(ctx); err != nil {
			return nil, err
		}
		matchPartition(fp, partsA[key], partsB[key], opts, result)
	}

	result.LayerChanges = diffLayers(docA, docB)
	result.KindChanges = diffKinds(docA, docB)
	result.Level = changeLevel(result, docA.RecordCount(), docB.RecordCount(), opts)
	return result, nil
}

// checkDeadline converts context cancellation into the typed budget error
// the error taxonomy promises. No partial DiffResult ever escapes.
func checkDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCodeBudgetExceeded,
			&errors.BudgetError{Reason: "deadline"}, "comparison aborted")
	default:
		return nil
	}
}

func partition(doc *model.Document) map[partitionKey][]indexed {
	parts := make(map[partitionKey][]indexed)
	for i, r := range doc.Records() {
		key := partitionKey{kind: r.Kind, layer: r.Layer}
		parts[key] = append(parts[key], indexed{rec: r, idx: i})
	}
	return parts
}

// partitionKeys returns the union of both documents' partition keys in a
// deterministic order (kind, then layer).
func partitionKeys(a, b map[partitionKey][]indexed) []partitionKey {
	seen := make(map[partitionKey]bool, len(a)+len(b))
	var keys []partitionKey
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(x, y partitionKey) int {
		if x.kind != y.kind {
			if x.kind < y.kind {
				return -1
			}
			return 1
		}
		if x.layer < y.layer {
			return -1
		}
		if x.layer > y.layer {
			return 1
		}
		return 0
	})
	return keys
}

// matchPartition classifies the records of one (kind, layer) partition and
// appends the resulting entries to the result. Entry order within a
// partition is unchanged, modified, removed, added, each in document order.
func matchPartition(fp *fingerprint.Fingerprinter, recsA, recsB []indexed, opts Options, result *Result) {
	restA, restB, unchanged := matchExact(fp, recsA, recsB)
	modified, restA, restB := matchSimilar(fp, restA, restB, opts.SimilarityThreshold)

	result.Entries = append(result.Entries, unchanged...)
	result.Unchanged += len(unchanged)
	result.Entries = append(result.Entries, modified...)
	result.Modified += len(modified)

	for _, ia := range restA {
		result.Entries = append(result.Entries, Entry{Status: StatusRemoved, Before: ia.rec})
		result.Removed++
	}
	for _, ib := range restB {
		result.Entries = append(result.Entries, Entry{Status: StatusAdded, After: ib.rec})
		result.Added++
	}
}

// matchExact pairs records with identical fingerprints using multiset
// semantics: duplicate identical records pair off count-for-count in
// document order. Returns the unmatched remainders and the unchanged
// entries for the paired records.
func matchExact(fp *fingerprint.Fingerprinter, recsA, recsB []indexed) (restA, restB []indexed, unchanged []Entry) {
	byFP := make(map[fingerprint.Value][]indexed)
	for _, ib := range recsB {
		v := fp.Fingerprint(ib.rec)
		byFP[v] = append(byFP[v], ib)
	}

	usedB := make(map[int]bool)
	for _, ia := range recsA {
		v := fp.Fingerprint(ia.rec)
		pool := byFP[v]
		matched := false
		for _, ib := range pool {
			if !usedB[ib.idx] {
				usedB[ib.idx] = true
				unchanged = append(unchanged, Entry{Status: StatusUnchanged, Before: ia.rec, After: ib.rec})
				matched = true
				break
			}
		}
		if !matched {
			restA = append(restA, ia)
		}
	}
	for _, ib := range recsB {
		if !usedB[ib.idx] {
			restB = append(restB, ib)
		}
	}
	return restA, restB, unchanged
}

// candidate is one scored pairing of leftover records.
type candidate struct {
	ai, bi int // positions within restA/restB (document order)
	score  float64
}

// matchSimilar solves a greedy best-first matching over the leftover
// records: repeatedly take the highest-similarity unmatched pair above the
// threshold and emit it as a modification. Ties are broken by original
// document order, so parallel fingerprinting upstream cannot change output.
func matchSimilar(fp *fingerprint.Fingerprinter, restA, restB []indexed, threshold float64) (modified []Entry, remA, remB []indexed) {
	if len(restA) == 0 || len(restB) == 0 {
		return nil, restA, restB
	}

	var cands []candidate
	for ai, ia := range restA {
		for bi, ib := range restB {
			if score := fp.Similarity(ia.rec, ib.rec); score >= threshold {
				cands = append(cands, candidate{ai: ai, bi: bi, score: score})
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		if cands[i].ai != cands[j].ai {
			return cands[i].ai < cands[j].ai
		}
		return cands[i].bi < cands[j].bi
	})

	usedA := make(map[int]bool)
	usedB := make(map[int]bool)
	for _, c := range cands {
		if usedA[c.ai] || usedB[c.bi] {
			continue
		}
		usedA[c.ai] = true
		usedB[c.bi] = true
		before, after := restA[c.ai].rec, restB[c.bi].rec
		modified = append(modified, Entry{
			Status:          StatusModified,
			Before:          before,
			After:           after,
			ChangedAttrs:    changedAttrs(before, after),
			GeometryChanged: !fp.GeometryEqual(before, after),
		})
	}

	for ai, ia := range restA {
		if !usedA[ai] {
			remA = append(remA, ia)
		}
	}
	for bi, ib := range restB {
		if !usedB[bi] {
			remB = append(remB, ib)
		}
	}
	return modified, remA, remB
}

// changedAttrs returns the sorted names of attributes whose values differ
// between the two records, covering keys present on either side.
func changedAttrs(a, b *model.Record) []string {
	var changed []string
	seen := make(map[string]bool, len(a.Attrs))
	for k, va := range a.Attrs {
		seen[k] = true
		if vb, ok := b.Attrs[k]; !ok || !attrEqual(va, vb) {
			changed = append(changed, k)
		}
	}
	for k := range b.Attrs {
		if !seen[k] {
			changed = append(changed, k)
		}
	}
	slices.Sort(changed)
	return changed
}

// attrEqual compares attribute values, treating numeric types uniformly so
// a JSON round-trip (int → float64) does not register as a change.
func attrEqual(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// diffLayers computes layer-level changes: layers present in only one
// document and layers whose color or linetype changed.
func diffLayers(docA, docB *model.Document) []LayerChange {
	var changes []LayerChange
	seen := make(map[string]bool)

	for _, la := range docA.Layers() {
		seen[la.Name] = true
		lb, ok := docB.Layer(la.Name)
		if !ok {
			changes = append(changes, LayerChange{Name: la.Name, Status: StatusRemoved})
			continue
		}
		var props []PropertyChange
		if la.Color != lb.Color {
			props = append(props, PropertyChange{Property: "color", Old: la.Color, New: lb.Color})
		}
		if la.Linetype != lb.Linetype {
			props = append(props, PropertyChange{Property: "linetype", Old: la.Linetype, New: lb.Linetype})
		}
		if len(props) > 0 {
			changes = append(changes, LayerChange{Name: la.Name, Status: StatusModified, Changes: props})
		}
	}
	for _, lb := range docB.Layers() {
		if !seen[lb.Name] {
			changes = append(changes, LayerChange{Name: lb.Name, Status: StatusAdded})
		}
	}
	return changes
}

// diffKinds computes the per-kind record count deltas, sorted by kind.
func diffKinds(docA, docB *model.Document) []KindChange {
	countsA := docA.KindCounts()
	countsB := docB.KindCounts()

	kinds := make(map[string]bool, len(countsA)+len(countsB))
	for k := range countsA {
		kinds[k] = true
	}
	for k := range countsB {
		kinds[k] = true
	}

	var out []KindChange
	for _, kind := range slices.Sorted(maps.Keys(kinds)) {
		if countsA[kind] != countsB[kind] {
			out = append(out, KindChange{Kind: kind, OldCount: countsA[kind], NewCount: countsB[kind]})
		}
	}
	return out
}

// changeLevel derives the ordinal severity from the classified entries.
//
// None means no additions, removals, or modifications. A comparison against
// an empty document is always major. Otherwise the level follows the
// configured thresholds: minor up to MinorLimit structural changes
// (attribute-only modifications never push past minor on their own),
// moderate while structural changes stay within ModerateFraction of the
// larger document, major beyond that.
func changeLevel(r *Result, countA, countB int, opts Options) ChangeLevel {
	if !r.HasChanges() {
		return LevelNone
	}
	if (countA == 0) != (countB == 0) {
		return LevelMajor
	}

	structural := r.StructuralChanges()
	if structural <= opts.MinorLimit {
		return LevelMinor
	}

	larger := math.Max(float64(countA), float64(countB))
	if float64(structural) <= opts.ModerateFraction*larger {
		return LevelModerate
	}
	return LevelMajor
}
