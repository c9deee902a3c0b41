package fix

import (
	stderrors "errors"
	"testing"

	"github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/model"
	"github.com/drawrev/drawrev/pkg/standards"
)

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

// isoLayers is the full conforming ISO layer set plus the default layer.
// Documents built on it never trigger standard-layer synthesis.
func isoLayers() []model.Layer {
	return []model.Layer{
		{Name: "0", Color: 7, Linetype: "CONTINUOUS", Visible: true},
		{Name: "DIMENSION", Color: 2, Linetype: "CONTINUOUS", Visible: true},
		{Name: "CENTER", Color: 1, Linetype: "CENTER", Visible: true},
		{Name: "HIDDEN", Color: 3, Linetype: "HIDDEN", Visible: true},
		{Name: "TEXT", Color: 4, Linetype: "CONTINUOUS", Visible: true},
		{Name: "HATCH", Color: 254, Linetype: "CONTINUOUS", Visible: true},
	}
}

func lineOn(handle, layer string, x1, y1, x2, y2 float64) model.Record {
	return model.Record{Handle: handle, Kind: model.KindLine, Layer: layer, Geom: model.Geometry{
		Points: []model.Point{{X: x1, Y: y1}, {X: x2, Y: y2}},
	}}
}

func textOn(handle, layer, content string, height float64) model.Record {
	return model.Record{Handle: handle, Kind: model.KindText, Layer: layer,
		Geom:  model.Geometry{Points: []model.Point{{X: 10, Y: 10}}},
		Attrs: model.Attributes{model.AttrText: content, model.AttrHeight: height},
	}
}

func TestRulesetValidate(t *testing.T) {
	rs := DefaultRuleset()
	if err := rs.Validate(); err != nil {
		t.Fatalf("default ruleset must validate: %v", err)
	}

	rs.NearDuplicateThreshold = 1.5
	if err := rs.Validate(); err == nil {
		t.Error("threshold above 1 must fail")
	}

	rs = DefaultRuleset()
	rs.Fingerprint.Tolerance = 0
	if err := rs.Validate(); err == nil {
		t.Error("zero tolerance must fail")
	}
}

func TestRulesetEnabled(t *testing.T) {
	all := DefaultRuleset().Enabled()
	if len(all) != 7 {
		t.Fatalf("Enabled() = %v", all)
	}
	if all[0] != RuleStandardLayers || all[6] != RuleTextLayer {
		t.Errorf("catalog order broken: %v", all)
	}

	rs := DefaultRuleset()
	rs.ExactDuplicates = false
	rs.TextLayer = false
	got := rs.Enabled()
	if len(got) != 5 {
		t.Fatalf("Enabled() = %v", got)
	}
	for _, id := range got {
		if id == RuleExactDuplicates || id == RuleTextLayer {
			t.Errorf("disabled rule %s reported enabled", id)
		}
	}
}

func TestBuildCompliantDocument(t *testing.T) {
	doc := buildDoc(t, isoLayers(), []model.Record{
		lineOn("L1", "0", 0, 0, 100, 0),
		textOn("T1", "TEXT", "note", 3.5),
	})

	plan, err := Build(doc, DefaultRuleset(), standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !plan.Empty() {
		t.Errorf("compliant document produced %d actions: %+v", len(plan.Actions), plan.Actions)
	}
	if plan.ID == "" || plan.Standard != "ISO" {
		t.Errorf("plan metadata = %q / %q", plan.ID, plan.Standard)
	}
}

func TestExactDuplicateRemoval(t *testing.T) {
	doc := buildDoc(t, isoLayers(), []model.Record{
		lineOn("L1", "0", 0, 0, 100, 0),
		lineOn("L2", "0", 0, 0, 100, 0),
		lineOn("L3", "0", 0, 0, 100, 0),
		lineOn("L4", "0", 50, 50, 60, 60), // distinct, retained
	})

	plan, err := Build(doc, DefaultRuleset(), standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var removals []Action
	for _, a := range plan.Actions {
		if a.Rule == RuleExactDuplicates {
			removals = append(removals, a)
		}
	}
	if len(removals) != 2 {
		t.Fatalf("duplicate removals = %d, want 2", len(removals))
	}
	for _, a := range removals {
		if a.Kind != ActionRemoveRecord || a.SurvivorHandle != "L1" {
			t.Errorf("action = %+v, want removal surviving L1", a)
		}
		if a.Before == nil || a.Before.Record == nil {
			t.Error("removal must carry a before snapshot")
		}
	}
}

func TestExactDuplicatesAcrossLayersKept(t *testing.T) {
	// Same content on different layers is not a duplicate
	doc := buildDoc(t, isoLayers(), []model.Record{
		lineOn("L1", "0", 0, 0, 100, 0),
		lineOn("L2", "HIDDEN", 0, 0, 100, 0),
	})

	plan, err := Build(doc, DefaultRuleset(), standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !plan.Empty() {
		t.Errorf("cross-layer twins flagged: %+v", plan.Actions)
	}
}

func TestNearDuplicateConsolidation(t *testing.T) {
	withColor := lineOn("L2", "0", 0, 0, 100, 0)
	withColor.Attrs = model.Attributes{model.AttrColor: 1}
	doc := buildDoc(t, isoLayers(), []model.Record{
		lineOn("L1", "0", 0, 0, 100, 0),
		withColor,
	})

	// The attribute difference keeps the fingerprints apart, so only the
	// near-duplicate rule can consolidate. Loosen its threshold to admit
	// the pair.
	rs := Ruleset{
		NearDuplicates:         true,
		NearDuplicateThreshold: 0.7,
		Fingerprint:            DefaultRuleset().Fingerprint,
	}

	plan, err := Build(doc, rs, standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.Actions) != 1 {
		t.Fatalf("actions = %+v, want one merge", plan.Actions)
	}
	a := plan.Actions[0]
	if a.Kind != ActionMergeRecords || a.RecordHandle != "L2" || a.SurvivorHandle != "L1" {
		t.Fatalf("merge = %+v", a)
	}
	// The survivor inherits the duplicate's attribute
	if a.After == nil || a.After.Record == nil || a.After.Record.Attrs[model.AttrColor] != 1 {
		t.Errorf("merge target missing inherited attribute: %+v", a.After)
	}

	res, err := Apply(doc, plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Document.RecordCount() != 1 {
		t.Errorf("record count = %d, want 1", res.Document.RecordCount())
	}
	survivor := res.Document.Records()[0]
	if survivor.Handle != "L1" || survivor.Attrs[model.AttrColor] != 1 {
		t.Errorf("survivor = %+v", survivor)
	}
}

func TestNearDuplicateGeometryMustCoincide(t *testing.T) {
	shifted := lineOn("L2", "0", 0, 0, 100, 0.001)
	doc := buildDoc(t, isoLayers(), []model.Record{
		lineOn("L1", "0", 0, 0, 100, 0),
		shifted,
	})

	rs := Ruleset{
		NearDuplicates:         true,
		NearDuplicateThreshold: 0.1,
		Fingerprint:            DefaultRuleset().Fingerprint,
	}

	plan, err := Build(doc, rs, standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !plan.Empty() {
		t.Errorf("consolidation across distinct geometry: %+v", plan.Actions)
	}
}

func TestZeroSizeRemoval(t *testing.T) {
	doc := buildDoc(t, isoLayers(), []model.Record{
		lineOn("Z1", "0", 5, 5, 5, 5), // degenerate line
		{Handle: "Z2", Kind: model.KindCircle, Layer: "0", Geom: model.Geometry{
			Points: []model.Point{{X: 10, Y: 10}},
		}}, // zero radius
		lineOn("L1", "0", 0, 0, 100, 0),
		{Handle: "C1", Kind: model.KindCircle, Layer: "0", Geom: model.Geometry{
			Points: []model.Point{{X: 20, Y: 20}},
			Radius: 5,
		}},
	})

	plan, err := Build(doc, DefaultRuleset(), standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	removed := make(map[string]bool)
	for _, a := range plan.Actions {
		if a.Rule != RuleZeroSize {
			t.Errorf("unexpected action %+v", a)
			continue
		}
		removed[a.RecordHandle] = true
	}
	if !removed["Z1"] || !removed["Z2"] || len(removed) != 2 {
		t.Errorf("zero-size removals = %v, want Z1 and Z2", removed)
	}
}

func TestLayerNormalization(t *testing.T) {
	layers := []model.Layer{
		{Name: "0", Color: 7, Linetype: "CONTINUOUS", Visible: true},
		{Name: "Dim_Lines", Color: 5, Linetype: "DASHED", Visible: true},   // alias, wrong style
		{Name: "HIDDEN", Color: 9, Linetype: "HIDDEN", Visible: true},      // canonical name, wrong color
		{Name: "SCRATCH", Color: 9, Linetype: "CONTINUOUS", Visible: true}, // empty, no role
		{Name: "CENTER", Color: 1, Linetype: "CENTER", Visible: true},      // empty but canonical
	}
	doc := buildDoc(t, layers, []model.Record{
		lineOn("D1", "Dim_Lines", 0, 0, 10, 0),
		lineOn("H1", "HIDDEN", 0, 5, 10, 5),
	})

	rs := Ruleset{LayerNorm: true, Fingerprint: DefaultRuleset().Fingerprint}
	plan, err := Build(doc, rs, standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var rename, style, prune []Action
	for _, a := range plan.Actions {
		switch a.Kind {
		case ActionRenameLayer:
			rename = append(rename, a)
		case ActionSetLayerStyle:
			style = append(style, a)
		case ActionPruneLayer:
			prune = append(prune, a)
		default:
			t.Errorf("unexpected action %+v", a)
		}
	}

	// Recognized aliases are renamed to the canonical layer and restyled in one action
	if len(rename) != 1 || rename[0].LayerName != "Dim_Lines" {
		t.Fatalf("rename actions = %+v", rename)
	}
	renamed := rename[0].After.Layer
	if renamed.Name != "DIMENSION" || renamed.Color != 2 || renamed.Linetype != "CONTINUOUS" {
		t.Errorf("rename target = %+v", renamed)
	}

	// Layers already on their canonical name get a style correction only
	if len(style) != 1 || style[0].LayerName != "HIDDEN" {
		t.Fatalf("style actions = %+v", style)
	}
	if after := style[0].After.Layer; after.Color != 3 || after.Linetype != "HIDDEN" {
		t.Errorf("normalized style = %+v", after)
	}

	if len(prune) != 1 || prune[0].LayerName != "SCRATCH" {
		t.Errorf("prune actions = %+v (canonical and default layers must survive)", prune)
	}

	res, err := Apply(doc, plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := res.Document.Layer("SCRATCH"); ok {
		t.Error("SCRATCH still present after apply")
	}
	if _, ok := res.Document.Layer("Dim_Lines"); ok {
		t.Error("Dim_Lines still present after rename")
	}
	dim, ok := res.Document.Layer("DIMENSION")
	if !ok || dim.Color != 2 {
		t.Errorf("DIMENSION after apply = %+v", dim)
	}
	d1, ok := findRecord(res.Document, "D1")
	if !ok || d1.Layer != "DIMENSION" {
		t.Errorf("D1 after apply = %+v (records must follow the rename)", d1)
	}

	// The normalized document needs no further normalization
	again, err := Build(res.Document, rs, standards.ISO())
	if err != nil {
		t.Fatalf("Build on normalized document: %v", err)
	}
	if !again.Empty() {
		t.Errorf("second plan not empty: %+v", again.Actions)
	}
}

func TestLayerNormalizationKeepsAliasWhenCanonicalExists(t *testing.T) {
	layers := []model.Layer{
		{Name: "0", Color: 7, Linetype: "CONTINUOUS", Visible: true},
		{Name: "DIMENSION", Color: 2, Linetype: "CONTINUOUS", Visible: true},
		{Name: "Dim_Lines", Color: 5, Linetype: "DASHED", Visible: true},
	}
	doc := buildDoc(t, layers, []model.Record{lineOn("D1", "Dim_Lines", 0, 0, 10, 0)})

	rs := Ruleset{LayerNorm: true, Fingerprint: DefaultRuleset().Fingerprint}
	plan, err := Build(doc, rs, standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// The canonical name is taken, so the alias keeps its name and only the
	// style is corrected.
	if len(plan.Actions) != 1 {
		t.Fatalf("actions = %+v", plan.Actions)
	}
	a := plan.Actions[0]
	if a.Kind != ActionSetLayerStyle || a.LayerName != "Dim_Lines" {
		t.Fatalf("action = %+v", a)
	}
	if after := a.After.Layer; after.Name != "Dim_Lines" || after.Color != 2 || after.Linetype != "CONTINUOUS" {
		t.Errorf("corrected style = %+v", after)
	}
}

func TestStandardLayerSynthesis(t *testing.T) {
	doc := buildDoc(t,
		[]model.Layer{{Name: "0", Color: 7, Linetype: "CONTINUOUS", Visible: true}},
		[]model.Record{lineOn("L1", "0", 0, 0, 100, 0)})

	plan, err := Build(doc, DefaultRuleset(), standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	adds := 0
	for _, a := range plan.Actions {
		if a.Rule == RuleStandardLayers && a.Kind == ActionAddLayer {
			adds++
		}
	}
	if adds != len(standards.ISO().Layers) {
		t.Errorf("synthesized %d layers, want %d", adds, len(standards.ISO().Layers))
	}
}

func TestStandardLayerSynthesisSkipsOrganizedDocuments(t *testing.T) {
	doc := buildDoc(t, isoLayers(), []model.Record{lineOn("L1", "0", 0, 0, 100, 0)})

	rs := Ruleset{StandardLayers: true, Fingerprint: DefaultRuleset().Fingerprint}
	plan, err := Build(doc, rs, standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !plan.Empty() {
		t.Errorf("synthesis on an organized document: %+v", plan.Actions)
	}
}

func TestAttributeStandardization(t *testing.T) {
	doc := buildDoc(t, isoLayers(), []model.Record{
		textOn("T1", "TEXT", "too small", 1.0),
		textOn("T2", "TEXT", "fine", 3.5),
	})

	rs := Ruleset{AttrStandard: true, Fingerprint: DefaultRuleset().Fingerprint}
	plan, err := Build(doc, rs, standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(plan.Actions) != 1 {
		t.Fatalf("actions = %+v, want one height clamp", plan.Actions)
	}
	a := plan.Actions[0]
	if a.Kind != ActionSetAttr || a.RecordHandle != "T1" {
		t.Fatalf("action = %+v", a)
	}
	if got := a.After.Record.Attrs[model.AttrHeight]; got != 2.5 {
		t.Errorf("clamped height = %v, want 2.5", got)
	}
}

func TestTextLayerOrganization(t *testing.T) {
	doc := buildDoc(t, isoLayers(), []model.Record{
		textOn("T1", "0", "stray", 3.5),
		textOn("T2", "TEXT", "home", 3.5),
		lineOn("L1", "0", 0, 0, 10, 0),
	})

	rs := Ruleset{TextLayer: true, Fingerprint: DefaultRuleset().Fingerprint}
	plan, err := Build(doc, rs, standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(plan.Actions) != 1 {
		t.Fatalf("actions = %+v, want one move", plan.Actions)
	}
	a := plan.Actions[0]
	if a.Kind != ActionSetRecordLayer || a.RecordHandle != "T1" || a.LayerName != "TEXT" {
		t.Errorf("action = %+v", a)
	}
}

func TestTextLayerOrganizationNeedsTargetLayer(t *testing.T) {
	doc := buildDoc(t,
		[]model.Layer{
			{Name: "0", Color: 7, Linetype: "CONTINUOUS", Visible: true},
			{Name: "NOTES", Color: 4, Linetype: "CONTINUOUS", Visible: true},
		},
		[]model.Record{textOn("T1", "NOTES", "stray", 3.5)})

	rs := Ruleset{TextLayer: true, Fingerprint: DefaultRuleset().Fingerprint}
	plan, err := Build(doc, rs, standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !plan.Empty() {
		t.Errorf("move without a canonical text layer: %+v", plan.Actions)
	}
}

func TestApplyFullPipeline(t *testing.T) {
	doc := buildDoc(t,
		[]model.Layer{{Name: "0", Color: 7, Linetype: "CONTINUOUS", Visible: true}},
		[]model.Record{
			lineOn("L1", "0", 0, 0, 100, 0),
			lineOn("L2", "0", 0, 0, 100, 0), // exact duplicate
			lineOn("Z1", "0", 5, 5, 5, 5),   // degenerate
			textOn("T1", "0", "note", 1.0),  // undersized, stray
		})

	plan, err := Build(doc, DefaultRuleset(), standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	res, err := Apply(doc, plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// The input document is never mutated
	if doc.RecordCount() != 4 || doc.LayerCount() != 1 {
		t.Errorf("input mutated: %d records, %d layers", doc.RecordCount(), doc.LayerCount())
	}
	// The backup matches the pre-mutation state
	if res.Backup == nil || res.Backup.Document.RecordCount() != 4 {
		t.Fatalf("backup = %+v", res.Backup)
	}
	if res.PlanID != plan.ID {
		t.Errorf("PlanID = %q, want %q", res.PlanID, plan.ID)
	}
	if len(res.Applied) != len(plan.Actions) {
		t.Errorf("applied %d of %d actions", len(res.Applied), len(plan.Actions))
	}

	fixed := res.Document
	if fixed.RecordCount() != 2 {
		t.Errorf("fixed record count = %d, want 2", fixed.RecordCount())
	}
	if fixed.LayerCount() != 6 {
		t.Errorf("fixed layer count = %d, want 6", fixed.LayerCount())
	}
	txt, ok := findRecord(fixed, "T1")
	if !ok {
		t.Fatal("T1 missing from fixed document")
	}
	if txt.Layer != "TEXT" {
		t.Errorf("T1 layer = %q, want TEXT", txt.Layer)
	}
	if h, _ := txt.Height(); h != 2.5 {
		t.Errorf("T1 height = %v, want 2.5", h)
	}

	// Planning against the fixed document finds nothing left to fix
	again, err := Build(fixed, DefaultRuleset(), standards.ISO())
	if err != nil {
		t.Fatalf("Build on fixed document: %v", err)
	}
	if !again.Empty() {
		t.Errorf("second plan not empty: %+v", again.Actions)
	}
}

func TestApplyRejectsTamperedPlan(t *testing.T) {
	doc := buildDoc(t, isoLayers(), []model.Record{
		lineOn("L1", "0", 0, 0, 100, 0),
		lineOn("L2", "0", 0, 0, 100, 0),
	})

	plan, err := Build(doc, DefaultRuleset(), standards.ISO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	plan.Actions = append(plan.Actions, Action{
		Rule:         "bogus-rule",
		Kind:         ActionRemoveRecord,
		RecordHandle: "NO_SUCH_HANDLE",
	})

	res, err := Apply(doc, plan)
	if err == nil {
		t.Fatal("tampered plan must be rejected")
	}
	if errors.GetCode(err) != errors.ErrCodeRuleValidationFailed {
		t.Errorf("code = %s, want RULE_VALIDATION_FAILED", errors.GetCode(err))
	}

	var rve *errors.RuleValidationError
	if !stderrors.As(err, &rve) {
		t.Fatalf("error %v does not carry RuleValidationError", err)
	}
	found := false
	for _, id := range rve.FailedRules {
		if id == "bogus-rule" {
			found = true
		}
	}
	if !found {
		t.Errorf("FailedRules = %v, want bogus-rule listed", rve.FailedRules)
	}

	// All-or-nothing: the result carries the original document untouched
	if res.Document != doc {
		t.Error("rejected apply must return the original document")
	}
	if len(res.Applied) != 0 {
		t.Errorf("rejected apply reported %d applied actions", len(res.Applied))
	}
	if res.Backup == nil || res.Backup.Document.RecordCount() != 2 {
		t.Error("backup must be present even on rejection")
	}
}

func TestApplyNilPlan(t *testing.T) {
	doc := buildDoc(t, isoLayers(), nil)
	_, err := Apply(doc, nil)
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s, want INVALID_INPUT", errors.GetCode(err))
	}
}

func TestPlanRules(t *testing.T) {
	p := &Plan{Actions: []Action{
		{Rule: RuleZeroSize},
		{Rule: RuleExactDuplicates},
		{Rule: RuleZeroSize},
	}}
	got := p.Rules()
	if len(got) != 2 || got[0] != RuleZeroSize || got[1] != RuleExactDuplicates {
		t.Errorf("Rules() = %v", got)
	}
	if p.Empty() {
		t.Error("plan with actions reported empty")
	}
}
