package compare

import (
	"context"
	"fmt"
	"testing"

	"github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/model"
)

// buildDoc assembles a document from layers and records, failing the test
// on any inconsistency.
func buildDoc(t *testing.T, layers []model.Layer, records []model.Record) *model.Document {
	t.Helper()
	doc := model.New()
	for _, l := range layers {
		if err := doc.AddLayer(l); err != nil {
			t.Fatalf("AddLayer(%s): %v", l.Name, err)
		}
	}
	for _, r := range records {
		if err := doc.AddRecord(r); err != nil {
			t.Fatalf("AddRecord(%s): %v", r.Handle, err)
		}
	}
	return doc
}

func layer0() []model.Layer {
	return []model.Layer{{Name: "0", Color: 7, Linetype: "CONTINUOUS", Visible: true}}
}

func lineRec(handle string, x1, y1, x2, y2 float64) model.Record {
	return model.Record{Handle: handle, Kind: model.KindLine, Layer: "0", Geom: model.Geometry{
		Points: []model.Point{{X: x1, Y: y1}, {X: x2, Y: y2}},
	}}
}

func circleRec(handle string, x, y, r float64) model.Record {
	return model.Record{Handle: handle, Kind: model.KindCircle, Layer: "0", Geom: model.Geometry{
		Points: []model.Point{{X: x, Y: y}},
		Radius: r,
	}}
}

func TestCompareIdenticalDocuments(t *testing.T) {
	recs := []model.Record{lineRec("A1", 0, 0, 100, 0), circleRec("A2", 50, 50, 10)}
	docA := buildDoc(t, layer0(), recs)
	docB := buildDoc(t, layer0(), recs)

	r, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	if r.HasChanges() {
		t.Errorf("identical documents: added=%d removed=%d modified=%d",
			r.Added, r.Removed, r.Modified)
	}
	if r.Unchanged != 2 {
		t.Errorf("Unchanged = %d, want 2", r.Unchanged)
	}
	if r.Level != LevelNone {
		t.Errorf("Level = %v, want none", r.Level)
	}
}

func TestCompareSelf(t *testing.T) {
	doc := buildDoc(t, layer0(), []model.Record{lineRec("A1", 0, 0, 10, 0)})

	r, err := Compare(context.Background(), doc, doc, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}
	if r.Level != LevelNone || r.HasChanges() {
		t.Error("a document compared against itself must report no changes")
	}
}

func TestCompareIgnoresHandles(t *testing.T) {
	// Same content, completely different handles
	docA := buildDoc(t, layer0(), []model.Record{lineRec("A1", 0, 0, 100, 0)})
	docB := buildDoc(t, layer0(), []model.Record{lineRec("ZZ42", 0, 0, 100, 0)})

	r, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}
	if r.Unchanged != 1 || r.HasChanges() {
		t.Error("matching must be content-based, not handle-based")
	}
}

func TestCompareAddedAndLevel(t *testing.T) {
	docA := buildDoc(t, layer0(), []model.Record{lineRec("A1", 0, 0, 100, 0)})

	layers := append(layer0(), model.Layer{Name: "DIMENSION", Color: 2, Linetype: "CONTINUOUS", Visible: true})
	docB := buildDoc(t, layers, []model.Record{
		lineRec("B1", 0, 0, 100, 0),
		{Handle: "B2", Kind: model.KindCircle, Layer: "DIMENSION", Geom: model.Geometry{
			Points: []model.Point{{X: 5, Y: 5}},
			Radius: 2,
		}},
	})

	r, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	if r.Added != 1 || r.Removed != 0 || r.Modified != 0 || r.Unchanged != 1 {
		t.Errorf("counts = added %d removed %d modified %d unchanged %d",
			r.Added, r.Removed, r.Modified, r.Unchanged)
	}
	if r.Level != LevelMinor {
		t.Errorf("Level = %v, want minor", r.Level)
	}

	// The new layer shows up as a layer-level addition
	foundLayer := false
	for _, lc := range r.LayerChanges {
		if lc.Name == "DIMENSION" && lc.Status == StatusAdded {
			foundLayer = true
		}
	}
	if !foundLayer {
		t.Error("added layer should appear in LayerChanges")
	}
}

func TestCompareModifiedViaSimilarity(t *testing.T) {
	// A polyline with one vertex moved: no exact fingerprint match, but
	// enough shared vertices to cross the similarity threshold and pair as
	// a modification.
	poly := func(handle string, lastY float64) model.Record {
		return model.Record{Handle: handle, Kind: model.KindPolyline, Layer: "0", Geom: model.Geometry{
			Points: []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: lastY}},
		}}
	}
	docA := buildDoc(t, layer0(), []model.Record{poly("A1", 5)})
	docB := buildDoc(t, layer0(), []model.Record{poly("B1", 7)})

	r, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	if r.Modified != 1 {
		t.Fatalf("Modified = %d, want 1 (added %d, removed %d)", r.Modified, r.Added, r.Removed)
	}
	var entry Entry
	for _, e := range r.Entries {
		if e.Status == StatusModified {
			entry = e
		}
	}
	if !entry.GeometryChanged {
		t.Error("moved endpoint should set GeometryChanged")
	}
	if entry.Before.Handle != "A1" || entry.After.Handle != "B1" {
		t.Errorf("pairing = %s→%s", entry.Before.Handle, entry.After.Handle)
	}
}

func TestCompareAttributeOnlyModification(t *testing.T) {
	mk := func(handle string, height float64) model.Record {
		return model.Record{Handle: handle, Kind: model.KindText, Layer: "0",
			Geom:  model.Geometry{Points: []model.Point{{X: 10, Y: 10}}},
			Attrs: model.Attributes{model.AttrText: "REV A", model.AttrHeight: height},
		}
	}
	docA := buildDoc(t, layer0(), []model.Record{mk("A1", 2.5)})
	docB := buildDoc(t, layer0(), []model.Record{mk("B1", 3.5)})

	r, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	if r.Modified != 1 {
		t.Fatalf("Modified = %d, want 1", r.Modified)
	}
	e := r.Entries[0]
	if e.GeometryChanged {
		t.Error("height change should not set GeometryChanged")
	}
	if len(e.ChangedAttrs) != 1 || e.ChangedAttrs[0] != model.AttrHeight {
		t.Errorf("ChangedAttrs = %v, want [height]", e.ChangedAttrs)
	}

	// Attribute-only modifications are not structural: level stays minor
	// even though the modification count is nonzero.
	if e.Structural() {
		t.Error("attribute-only modification must not be structural")
	}
}

func TestCompareLayerMoveIsRemoveAdd(t *testing.T) {
	layers := append(layer0(), model.Layer{Name: "HIDDEN", Color: 3, Linetype: "HIDDEN", Visible: true})
	docA := buildDoc(t, layers, []model.Record{lineRec("A1", 0, 0, 100, 0)})

	moved := lineRec("B1", 0, 0, 100, 0)
	moved.Layer = "HIDDEN"
	docB := buildDoc(t, layers, []model.Record{moved})

	r, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	// Partitioning by layer means a cross-layer move never pairs
	if r.Removed != 1 || r.Added != 1 || r.Modified != 0 {
		t.Errorf("counts = added %d removed %d modified %d; want 1/1/0",
			r.Added, r.Removed, r.Modified)
	}
}

func TestCompareDuplicateMultiset(t *testing.T) {
	// Three identical lines against two: exactly one removal, no phantom
	// modifications.
	var recsA, recsB []model.Record
	for i := 0; i < 3; i++ {
		recsA = append(recsA, lineRec(fmt.Sprintf("A%d", i), 0, 0, 10, 0))
	}
	for i := 0; i < 2; i++ {
		recsB = append(recsB, lineRec(fmt.Sprintf("B%d", i), 0, 0, 10, 0))
	}
	docA := buildDoc(t, layer0(), recsA)
	docB := buildDoc(t, layer0(), recsB)

	r, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	if r.Unchanged != 2 || r.Removed != 1 || r.Added != 0 || r.Modified != 0 {
		t.Errorf("counts = added %d removed %d modified %d unchanged %d; want 0/1/0/2",
			r.Added, r.Removed, r.Modified, r.Unchanged)
	}
}

func TestCompareSymmetry(t *testing.T) {
	recsA := []model.Record{
		lineRec("A1", 0, 0, 100, 0),
		circleRec("A2", 50, 50, 10),
		lineRec("A3", 200, 200, 300, 300),
	}
	recsB := []model.Record{
		lineRec("B1", 0, 0, 100, 0),
		circleRec("B2", 50, 50, 12),
	}
	docA := buildDoc(t, layer0(), recsA)
	docB := buildDoc(t, layer0(), recsB)

	fwd, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}
	rev, err := Compare(context.Background(), docB, docA, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	if fwd.Added != rev.Removed || fwd.Removed != rev.Added {
		t.Errorf("adds/removes should mirror: fwd %d/%d, rev %d/%d",
			fwd.Added, fwd.Removed, rev.Added, rev.Removed)
	}
	if fwd.Modified != rev.Modified || fwd.Unchanged != rev.Unchanged {
		t.Errorf("modified/unchanged should match: fwd %d/%d, rev %d/%d",
			fwd.Modified, fwd.Unchanged, rev.Modified, rev.Unchanged)
	}
	if fwd.Level != rev.Level {
		t.Errorf("levels should match: %v vs %v", fwd.Level, rev.Level)
	}
}

func TestCompareEmptyVersusNonEmpty(t *testing.T) {
	empty := buildDoc(t, layer0(), nil)
	full := buildDoc(t, layer0(), []model.Record{lineRec("A1", 0, 0, 10, 0)})

	r, err := Compare(context.Background(), empty, full, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	// One addition would normally be minor, but a comparison against an
	// empty document is always major.
	if r.Level != LevelMajor {
		t.Errorf("Level = %v, want major", r.Level)
	}
}

func TestCompareBothEmpty(t *testing.T) {
	r, err := Compare(context.Background(), buildDoc(t, layer0(), nil), buildDoc(t, layer0(), nil), DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}
	if r.Level != LevelNone {
		t.Errorf("Level = %v, want none", r.Level)
	}
}

func TestCompareChangeLevels(t *testing.T) {
	// 100 records; replace k of them with far-away lines to force k
	// removals + k additions (2k structural changes).
	mkDoc := func(n, moved int) *model.Document {
		var recs []model.Record
		for i := 0; i < n; i++ {
			x := float64(i * 10)
			if i < moved {
				x += 100000 // far enough that similarity is zero
			}
			recs = append(recs, lineRec(fmt.Sprintf("H%d", i), x, 0, x+5, 5))
		}
		return buildDoc(t, layer0(), recs)
	}

	base := mkDoc(100, 0)

	tests := []struct {
		moved int
		want  ChangeLevel
	}{
		{0, LevelNone},
		{1, LevelMinor},    // 2 structural changes <= 3
		{4, LevelModerate}, // 8 structural changes <= 10% of 100
		{20, LevelMajor},   // 40 structural changes > 10% of 100
	}

	for _, tt := range tests {
		r, err := Compare(context.Background(), base, mkDoc(100, tt.moved), DefaultOptions())
		if err != nil {
			t.Fatalf("Compare error: %v", err)
		}
		if r.Level != tt.want {
			t.Errorf("moved=%d: Level = %v, want %v (structural %d)",
				tt.moved, r.Level, tt.want, r.StructuralChanges())
		}
	}
}

func TestCompareKindChanges(t *testing.T) {
	docA := buildDoc(t, layer0(), []model.Record{lineRec("A1", 0, 0, 10, 0)})
	docB := buildDoc(t, layer0(), []model.Record{circleRec("B1", 5, 5, 2)})

	r, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	if len(r.KindChanges) != 2 {
		t.Fatalf("KindChanges = %v, want circle and line deltas", r.KindChanges)
	}
	// Sorted by kind: circle first
	if r.KindChanges[0].Kind != model.KindCircle || r.KindChanges[0].NewCount != 1 {
		t.Errorf("KindChanges[0] = %+v", r.KindChanges[0])
	}
	if r.KindChanges[1].Kind != model.KindLine || r.KindChanges[1].OldCount != 1 {
		t.Errorf("KindChanges[1] = %+v", r.KindChanges[1])
	}
}

func TestCompareLayerStyleChange(t *testing.T) {
	docA := buildDoc(t, []model.Layer{{Name: "CENTER", Color: 1, Linetype: "CENTER", Visible: true}}, nil)
	docB := buildDoc(t, []model.Layer{{Name: "CENTER", Color: 3, Linetype: "CENTER", Visible: true}}, nil)

	r, err := Compare(context.Background(), docA, docB, DefaultOptions())
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	if len(r.LayerChanges) != 1 {
		t.Fatalf("LayerChanges = %v", r.LayerChanges)
	}
	lc := r.LayerChanges[0]
	if lc.Status != StatusModified || len(lc.Changes) != 1 || lc.Changes[0].Property != "color" {
		t.Errorf("LayerChange = %+v", lc)
	}
}

func TestCompareRecordBudget(t *testing.T) {
	docA := buildDoc(t, layer0(), []model.Record{lineRec("A1", 0, 0, 10, 0), lineRec("A2", 1, 1, 2, 2)})
	docB := buildDoc(t, layer0(), []model.Record{lineRec("B1", 0, 0, 10, 0)})

	opts := DefaultOptions()
	opts.MaxRecords = 2

	_, err := Compare(context.Background(), docA, docB, opts)
	if err == nil {
		t.Fatal("exceeding MaxRecords should fail")
	}
	if errors.GetCode(err) != errors.ErrCodeBudgetExceeded {
		t.Errorf("code = %s, want BUDGET_EXCEEDED", errors.GetCode(err))
	}
}

func TestCompareCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docA := buildDoc(t, layer0(), []model.Record{lineRec("A1", 0, 0, 10, 0)})
	docB := buildDoc(t, layer0(), []model.Record{lineRec("B1", 0, 0, 10, 0)})

	_, err := Compare(ctx, docA, docB, DefaultOptions())
	if err == nil {
		t.Fatal("cancelled context should fail")
	}
	if errors.GetCode(err) != errors.ErrCodeBudgetExceeded {
		t.Errorf("code = %s, want BUDGET_EXCEEDED", errors.GetCode(err))
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		wantOK bool
	}{
		{"defaults", func(o *Options) {}, true},
		{"zero tolerance", func(o *Options) { o.Fingerprint.Tolerance = 0 }, false},
		{"negative threshold", func(o *Options) { o.SimilarityThreshold = -0.1 }, false},
		{"threshold above one", func(o *Options) { o.SimilarityThreshold = 1.5 }, false},
		{"negative minor limit", func(o *Options) { o.MinorLimit = -1 }, false},
		{"fraction above one", func(o *Options) { o.ModerateFraction = 2 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err == nil) != tt.wantOK {
				t.Errorf("Validate error = %v, wantOK %v", err, tt.wantOK)
			}
		})
	}
}
