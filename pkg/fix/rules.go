package fix

import (
	"fmt"
	"math"

	"github.com/drawrev/drawrev/pkg/fingerprint"
	"github.com/drawrev/drawrev/pkg/model"
	"github.com/drawrev/drawrev/pkg/standards"
)

// generator produces the actions of one rule against the current scratch
// state. The planner applies each rule's actions to the scratch document
// before evaluating the next rule, so later rules see earlier effects.
type generator func(scratch *model.Document, fp *fingerprint.Fingerprinter, rs Ruleset, policy standards.Policy) []Action

// generators lists the catalog in evaluation order. Layer synthesis runs
// first so later record rules can target the canonical layers; duplicate
// rules run after junk removal so zero-size records are not "retained" as
// duplicate survivors.
var generators = []struct {
	rule    string
	enabled func(Ruleset) bool
	gen     generator
}{
	{RuleStandardLayers, func(rs Ruleset) bool { return rs.StandardLayers }, genStandardLayers},
	{RuleLayerNorm, func(rs Ruleset) bool { return rs.LayerNorm }, genLayerNorm},
	{RuleZeroSize, func(rs Ruleset) bool { return rs.ZeroSize }, genZeroSize},
	{RuleExactDuplicates, func(rs Ruleset) bool { return rs.ExactDuplicates }, genExactDuplicates},
	{RuleNearDuplicates, func(rs Ruleset) bool { return rs.NearDuplicates }, genNearDuplicates},
	{RuleAttrStandard, func(rs Ruleset) bool { return rs.AttrStandard }, genAttrStandard},
	{RuleTextLayer, func(rs Ruleset) bool { return rs.TextLayer }, genTextLayer},
}

// genStandardLayers synthesizes the policy's canonical layer set when the
// document uses only the default layer "0". This mirrors the original
// corrective behavior for drawings that were never organized into layers.
func genStandardLayers(scratch *model.Document, _ *fingerprint.Fingerprinter, _ Ruleset, policy standards.Policy) []Action {
	if scratch.LayerCount() != 1 {
		return nil
	}
	if _, ok := scratch.Layer("0"); !ok {
		return nil
	}

	var actions []Action
	for _, rule := range policy.Layers {
		layer := model.Layer{Name: rule.Canonical, Color: rule.Color, Linetype: rule.Linetype, Visible: true}
		actions = append(actions, Action{
			Rule:        RuleStandardLayers,
			Kind:        ActionAddLayer,
			Description: fmt.Sprintf("create standard layer %q (color %d, %s)", rule.Canonical, rule.Color, rule.Linetype),
			LayerName:   rule.Canonical,
			After:       &Snapshot{Layer: &layer},
		})
	}
	return actions
}

// genLayerNorm renames recognized layers to their canonical policy name,
// corrects layer colors and linetypes that violate the policy, and prunes
// empty layers with no role in the standard. A rename only happens when the
// canonical name is free; otherwise the layer keeps its name and gets a
// style correction. Canonical policy layers and layer "0" are never pruned
// even when empty; pruning them would undo standard-layer synthesis on the
// next plan.
func genLayerNorm(scratch *model.Document, _ *fingerprint.Fingerprinter, _ Ruleset, policy standards.Policy) []Action {
	var actions []Action
	renamed := make(map[string]bool)
	claimed := make(map[string]bool)

	for _, layer := range scratch.Layers() {
		rule, ok := policy.MatchLayer(layer.Name)
		if !ok || layer.Name == rule.Canonical {
			continue
		}
		if _, exists := scratch.Layer(rule.Canonical); exists || claimed[rule.Canonical] {
			continue
		}
		before := *layer
		after := *layer
		after.Name = rule.Canonical
		after.Color = rule.Color
		if rule.Linetype != "" {
			after.Linetype = rule.Linetype
		}
		actions = append(actions, Action{
			Rule:        RuleLayerNorm,
			Kind:        ActionRenameLayer,
			Description: fmt.Sprintf("rename layer %q to canonical %q (color %d, %s)", layer.Name, rule.Canonical, after.Color, after.Linetype),
			LayerName:   layer.Name,
			Before:      &Snapshot{Layer: &before},
			After:       &Snapshot{Layer: &after},
		})
		renamed[layer.Name] = true
		claimed[rule.Canonical] = true
	}

	for _, v := range policy.Check(scratch) {
		if v.Type != "layer_color" && v.Type != "layer_linetype" {
			continue
		}
		if renamed[v.Layer] {
			continue
		}
		layer, ok := scratch.Layer(v.Layer)
		if !ok {
			continue
		}
		rule, ok := policy.MatchLayer(v.Layer)
		if !ok {
			continue
		}
		if alreadyPlanned(actions, v.Layer) {
			continue
		}
		before := *layer
		after := *layer
		after.Color = rule.Color
		if rule.Linetype != "" {
			after.Linetype = rule.Linetype
		}
		actions = append(actions, Action{
			Rule:        RuleLayerNorm,
			Kind:        ActionSetLayerStyle,
			Description: fmt.Sprintf("normalize layer %q to standard style (color %d, %s)", layer.Name, after.Color, after.Linetype),
			LayerName:   layer.Name,
			Before:      &Snapshot{Layer: &before},
			After:       &Snapshot{Layer: &after},
		})
	}

	for _, layer := range scratch.Layers() {
		if layer.Name == "0" {
			continue
		}
		if _, ok := policy.MatchLayer(layer.Name); ok {
			continue
		}
		if len(scratch.RecordsOnLayer(layer.Name)) > 0 {
			continue
		}
		before := *layer
		actions = append(actions, Action{
			Rule:        RuleLayerNorm,
			Kind:        ActionPruneLayer,
			Description: fmt.Sprintf("prune empty layer %q", layer.Name),
			LayerName:   layer.Name,
			Before:      &Snapshot{Layer: &before},
		})
	}

	return actions
}

// alreadyPlanned reports whether a style action for the layer is queued.
// Color and linetype violations of the same layer collapse into one action.
func alreadyPlanned(actions []Action, layer string) bool {
	for _, a := range actions {
		if a.Kind == ActionSetLayerStyle && a.LayerName == layer {
			return true
		}
	}
	return false
}

// genZeroSize removes degenerate records: lines whose endpoints coincide
// under the quantization tolerance and circles or arcs with zero radius.
func genZeroSize(scratch *model.Document, fp *fingerprint.Fingerprinter, _ Ruleset, _ standards.Policy) []Action {
	tol := fp.Tolerance()
	var actions []Action
	for _, r := range scratch.Records() {
		degenerate := false
		switch r.Kind {
		case model.KindLine:
			degenerate = len(r.Geom.Points) >= 2 && pointsCoincide(r.Geom.Points[0], r.Geom.Points[1], tol)
		case model.KindCircle, model.KindArc:
			degenerate = math.Abs(r.Geom.Radius) < tol
		}
		if !degenerate {
			continue
		}
		actions = append(actions, Action{
			Rule:         RuleZeroSize,
			Kind:         ActionRemoveRecord,
			Description:  fmt.Sprintf("remove zero-size %s %q", r.Kind, r.Handle),
			RecordHandle: r.Handle,
			Before:       &Snapshot{Record: r.Clone()},
		})
	}
	return actions
}

func pointsCoincide(a, b model.Point, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

// genExactDuplicates collapses records sharing a layer and an identical
// fingerprint down to the earliest occurrence in document order.
func genExactDuplicates(scratch *model.Document, fp *fingerprint.Fingerprinter, _ Ruleset, _ standards.Policy) []Action {
	seen := make(map[string]string) // layer + fingerprint -> retained handle
	var actions []Action
	for _, r := range scratch.Records() {
		key := r.Layer + "|" + string(fp.Fingerprint(r))
		if survivor, dup := seen[key]; dup {
			actions = append(actions, Action{
				Rule:           RuleExactDuplicates,
				Kind:           ActionRemoveRecord,
				Description:    fmt.Sprintf("remove exact duplicate %s %q (duplicate of %q)", r.Kind, r.Handle, survivor),
				RecordHandle:   r.Handle,
				SurvivorHandle: survivor,
				Before:         &Snapshot{Record: r.Clone()},
			})
			continue
		}
		seen[key] = r.Handle
	}
	return actions
}

// genNearDuplicates consolidates records whose similarity clears the strict
// threshold and whose geometry coincides under the quantization tolerance.
// The earlier record survives and keeps the attribute superset; on
// conflicting keys, the survivor's value wins.
func genNearDuplicates(scratch *model.Document, fp *fingerprint.Fingerprinter, rs Ruleset, _ standards.Policy) []Action {
	type group struct{ kind, layer string }
	survivors := make(map[group][]*model.Record)
	var actions []Action

	for _, r := range scratch.Records() {
		g := group{kind: r.Kind, layer: r.Layer}
		merged := false
		for _, s := range survivors[g] {
			if fp.Similarity(s, r) < rs.NearDuplicateThreshold || !fp.GeometryEqual(s, r) {
				continue
			}
			after := s.Clone()
			after.Attrs = attrSuperset(s.Attrs, r.Attrs)
			actions = append(actions, Action{
				Rule:           RuleNearDuplicates,
				Kind:           ActionMergeRecords,
				Description:    fmt.Sprintf("merge near-duplicate %s %q into %q", r.Kind, r.Handle, s.Handle),
				RecordHandle:   r.Handle,
				SurvivorHandle: s.Handle,
				Before:         &Snapshot{Record: r.Clone()},
				After:          &Snapshot{Record: after},
			})
			// Track the merged attribute state locally; the planner applies
			// the action to scratch after this generator returns.
			s.Attrs = after.Attrs.Clone()
			merged = true
			break
		}
		if !merged {
			// Clone for bookkeeping so local attribute updates never leak
			// into the scratch document before the planner applies actions.
			survivors[g] = append(survivors[g], r.Clone())
		}
	}
	return actions
}

// attrSuperset merges attribute maps, preferring the survivor's values.
func attrSuperset(survivor, dup model.Attributes) model.Attributes {
	out := survivor.Clone()
	if out == nil {
		out = model.Attributes{}
	}
	for k, v := range dup {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// genAttrStandard rewrites text heights outside the policy bounds to the
// nearest standard height.
func genAttrStandard(scratch *model.Document, _ *fingerprint.Fingerprinter, _ Ruleset, policy standards.Policy) []Action {
	var actions []Action
	for _, r := range scratch.Records() {
		if !model.IsTextKind(r.Kind) {
			continue
		}
		h, ok := r.Height()
		if !ok || policy.HeightOK(h) {
			continue
		}
		after := r.Clone()
		after.Attrs[model.AttrHeight] = policy.ClampHeight(h)
		actions = append(actions, Action{
			Rule:         RuleAttrStandard,
			Kind:         ActionSetAttr,
			Description:  fmt.Sprintf("clamp text height of %q from %v to %v", r.Handle, h, policy.ClampHeight(h)),
			RecordHandle: r.Handle,
			Before:       &Snapshot{Record: r.Clone()},
			After:        &Snapshot{Record: after},
		})
	}
	return actions
}

// genTextLayer moves text records onto the policy's canonical text layer
// when that layer exists in the document.
func genTextLayer(scratch *model.Document, _ *fingerprint.Fingerprinter, _ Ruleset, policy standards.Policy) []Action {
	if policy.TextLayer == "" {
		return nil
	}
	if _, ok := scratch.Layer(policy.TextLayer); !ok {
		return nil
	}

	var actions []Action
	for _, r := range scratch.Records() {
		if !model.IsTextKind(r.Kind) || r.Layer == policy.TextLayer {
			continue
		}
		after := r.Clone()
		after.Layer = policy.TextLayer
		actions = append(actions, Action{
			Rule:         RuleTextLayer,
			Kind:         ActionSetRecordLayer,
			Description:  fmt.Sprintf("move %s %q to layer %q", r.Kind, r.Handle, policy.TextLayer),
			RecordHandle: r.Handle,
			LayerName:    policy.TextLayer,
			Before:       &Snapshot{Record: r.Clone()},
			After:        &Snapshot{Record: after},
		})
	}
	return actions
}
