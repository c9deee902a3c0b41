package fix

import (
	"fmt"

	"github.com/drawrev/drawrev/pkg/model"
)

// applyAction performs one action's mutation on the working document.
// Errors indicate the action's target is missing or the mutation is
// structurally impossible; the caller treats any error as a validation
// failure for the action's rule.
func applyAction(doc *model.Document, a Action) error {
	switch a.Kind {
	case ActionRemoveRecord:
		if !doc.RemoveRecord(a.RecordHandle) {
			return fmt.Errorf("record %q not found", a.RecordHandle)
		}

	case ActionMergeRecords:
		survivor, ok := findRecord(doc, a.SurvivorHandle)
		if !ok {
			return fmt.Errorf("survivor record %q not found", a.SurvivorHandle)
		}
		if !doc.RemoveRecord(a.RecordHandle) {
			return fmt.Errorf("duplicate record %q not found", a.RecordHandle)
		}
		if a.After == nil || a.After.Record == nil {
			return fmt.Errorf("merge action without target snapshot")
		}
		survivor.Attrs = a.After.Record.Attrs.Clone()

	case ActionSetLayerStyle:
		layer, ok := doc.Layer(a.LayerName)
		if !ok {
			return fmt.Errorf("layer %q not found", a.LayerName)
		}
		if a.After == nil || a.After.Layer == nil {
			return fmt.Errorf("layer style action without target snapshot")
		}
		layer.Color = a.After.Layer.Color
		layer.Linetype = a.After.Layer.Linetype

	case ActionRenameLayer:
		if a.After == nil || a.After.Layer == nil {
			return fmt.Errorf("rename action without target snapshot")
		}
		if err := doc.RenameLayer(a.LayerName, a.After.Layer.Name); err != nil {
			return err
		}
		layer, _ := doc.Layer(a.After.Layer.Name)
		layer.Color = a.After.Layer.Color
		layer.Linetype = a.After.Layer.Linetype

	case ActionAddLayer:
		if a.After == nil || a.After.Layer == nil {
			return fmt.Errorf("add layer action without target snapshot")
		}
		if err := doc.AddLayer(*a.After.Layer); err != nil {
			return err
		}

	case ActionPruneLayer:
		if !doc.RemoveLayer(a.LayerName) {
			return fmt.Errorf("layer %q not removable", a.LayerName)
		}

	case ActionSetRecordLayer:
		rec, ok := findRecord(doc, a.RecordHandle)
		if !ok {
			return fmt.Errorf("record %q not found", a.RecordHandle)
		}
		if _, ok := doc.Layer(a.LayerName); !ok {
			return fmt.Errorf("target layer %q not found", a.LayerName)
		}
		rec.Layer = a.LayerName

	case ActionSetAttr:
		rec, ok := findRecord(doc, a.RecordHandle)
		if !ok {
			return fmt.Errorf("record %q not found", a.RecordHandle)
		}
		if a.After == nil || a.After.Record == nil {
			return fmt.Errorf("attribute action without target snapshot")
		}
		rec.Attrs = a.After.Record.Attrs.Clone()

	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

// validateAction checks the action's post-condition against the working
// document. Every action must leave the document in the state its After
// snapshot promises; a failed check rejects the whole apply.
func validateAction(doc *model.Document, a Action) error {
	switch a.Kind {
	case ActionRemoveRecord:
		if _, ok := findRecord(doc, a.RecordHandle); ok {
			return fmt.Errorf("record %q still present", a.RecordHandle)
		}

	case ActionMergeRecords:
		if _, ok := findRecord(doc, a.RecordHandle); ok {
			return fmt.Errorf("duplicate %q still present", a.RecordHandle)
		}
		survivor, ok := findRecord(doc, a.SurvivorHandle)
		if !ok {
			return fmt.Errorf("survivor %q missing", a.SurvivorHandle)
		}
		if a.After == nil || a.After.Record == nil || !attrsEqual(survivor.Attrs, a.After.Record.Attrs) {
			return fmt.Errorf("survivor %q attributes do not match merge target", a.SurvivorHandle)
		}

	case ActionSetLayerStyle, ActionAddLayer, ActionRenameLayer:
		if a.After == nil || a.After.Layer == nil {
			return fmt.Errorf("layer action without target snapshot")
		}
		if a.Kind == ActionRenameLayer {
			if _, ok := doc.Layer(a.LayerName); ok {
				return fmt.Errorf("layer %q still present after rename", a.LayerName)
			}
		}
		layer, ok := doc.Layer(a.After.Layer.Name)
		if !ok {
			return fmt.Errorf("layer %q missing", a.After.Layer.Name)
		}
		if layer.Color != a.After.Layer.Color || layer.Linetype != a.After.Layer.Linetype {
			return fmt.Errorf("layer %q does not match target style", layer.Name)
		}

	case ActionPruneLayer:
		if _, ok := doc.Layer(a.LayerName); ok {
			return fmt.Errorf("layer %q still present", a.LayerName)
		}

	case ActionSetRecordLayer:
		rec, ok := findRecord(doc, a.RecordHandle)
		if !ok {
			return fmt.Errorf("record %q missing", a.RecordHandle)
		}
		if rec.Layer != a.LayerName {
			return fmt.Errorf("record %q not on layer %q", a.RecordHandle, a.LayerName)
		}

	case ActionSetAttr:
		rec, ok := findRecord(doc, a.RecordHandle)
		if !ok {
			return fmt.Errorf("record %q missing", a.RecordHandle)
		}
		if a.After == nil || a.After.Record == nil || !attrsEqual(rec.Attrs, a.After.Record.Attrs) {
			return fmt.Errorf("record %q attributes do not match target", a.RecordHandle)
		}

	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

func findRecord(doc *model.Document, handle string) (*model.Record, bool) {
	return doc.Record(handle)
}

// attrsEqual compares attribute maps with numeric tolerance for the int vs
// float64 distinction JSON round-trips introduce.
func attrsEqual(a, b model.Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !valueEqual(va, vb) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
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
