package model

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidLayerName is returned by [Document.AddLayer] when the layer
	// name is empty. All layers must have non-empty, unique names.
	ErrInvalidLayerName = errors.New("layer name must not be empty")

	// ErrDuplicateLayer is returned by [Document.AddLayer] when a layer with
	// the same name already exists. Layer names are case-sensitive and unique.
	ErrDuplicateLayer = errors.New("duplicate layer name")

	// ErrUnknownLayer is returned by [Document.AddRecord] and
	// [Document.Validate] when a record references a layer that does not
	// exist in the document.
	ErrUnknownLayer = errors.New("record references unknown layer")

	// ErrInvalidRecordKind is returned by [Document.AddRecord] when the
	// record's kind is empty.
	ErrInvalidRecordKind = errors.New("record kind must not be empty")

	// ErrInvalidHandle is returned by [Document.AddRecord] when the record's
	// handle is empty. Handles address records within a document, so every
	// record must carry one.
	ErrInvalidHandle = errors.New("record handle must not be empty")

	// ErrDuplicateHandle is returned by [Document.AddRecord] and
	// [Document.Validate] when a handle is already in use. Handles are only
	// meaningful within one document, but within it they must be unique:
	// corrective actions target records by handle, and a reused handle would
	// make them ambiguous.
	ErrDuplicateHandle = errors.New("duplicate record handle")
)

// Record kinds for the modeled subset of drawing entities. The kind set is
// open: records with kinds outside this list are carried through untouched,
// with their geometry and attributes treated generically.
const (
	KindLine      = "line"
	KindCircle    = "circle"
	KindArc       = "arc"
	KindPolyline  = "polyline"
	KindText      = "text"
	KindMText     = "mtext"
	KindDimension = "dimension"
	KindInsert    = "insert"
	KindHatch     = "hatch"
	KindSolid     = "solid"
	KindSurface   = "surface"
	KindMesh      = "mesh"
)

// IsTextKind reports whether the kind carries visible text content.
func IsTextKind(kind string) bool {
	return kind == KindText || kind == KindMText
}

// Point is a 3D coordinate in drawing units. 2D records leave Z at zero.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Geometry is the kind-specific numeric payload of a record.
//
// The interpretation of Points depends on the kind: line start/end,
// circle/arc center, text insertion point, polyline vertices. Unused
// fields stay at their zero values. Extents carries any additional
// numeric data for kinds outside the modeled subset.
type Geometry struct {
	Points     []Point   `json:"points,omitempty"`
	Radius     float64   `json:"radius,omitempty"`
	StartAngle float64   `json:"start_angle,omitempty"`
	EndAngle   float64   `json:"end_angle,omitempty"`
	Extents    []float64 `json:"extents,omitempty"`
}

// Clone returns a deep copy of the geometry.
func (g Geometry) Clone() Geometry {
	out := g
	out.Points = slices.Clone(g.Points)
	out.Extents = slices.Clone(g.Extents)
	return out
}

// Attributes stores style and semantic properties of a record, such as text
// content, text height, or a color override. Keys outside the modeled
// subset are preserved as-is; values are strings, numbers, or booleans.
type Attributes map[string]any

// Clone returns a shallow copy of the attribute map. Values are copied by
// assignment, which is sufficient for the scalar value types used here.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Well-known attribute keys.
const (
	AttrText      = "text"        // text content
	AttrHeight    = "height"      // text height in drawing units
	AttrColor     = "color"       // per-record color override
	AttrStyle     = "style"       // text or dimension style name
	AttrBlockName = "block"       // referenced block name (insert records)
	AttrMeasure   = "measurement" // measured value (dimension records)
	AttrHatchName = "pattern"     // hatch pattern name
	AttrLinetype  = "linetype"    // per-record linetype override
)

// VolatilePrefix marks attribute keys that are excluded from fingerprints,
// such as load timestamps written by some exporters.
const VolatilePrefix = "_"

// Record is the atomic comparable unit of a drawing.
//
// Handle is the identifier assigned by the source file at load time. It is
// unique within its document but only valid there: two revisions of the
// same file may assign different handles to logically identical records,
// or reuse a handle for different content. Matching between documents is
// therefore content-based (see the fingerprint package), never
// handle-based.
type Record struct {
	Handle string     `json:"handle"`
	Kind   string     `json:"kind"`
	Layer  string     `json:"layer"`
	Geom   Geometry   `json:"geometry"`
	Attrs  Attributes `json:"attributes,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := *r
	out.Geom = r.Geom.Clone()
	out.Attrs = r.Attrs.Clone()
	return &out
}

// Text returns the record's text content attribute, or "" if absent.
func (r *Record) Text() string {
	if s, ok := r.Attrs[AttrText].(string); ok {
		return s
	}
	return ""
}

// Height returns the record's text height attribute and whether it is set.
func (r *Record) Height() (float64, bool) {
	switch v := r.Attrs[AttrHeight].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Layer describes one named layer of a document. Names are case-sensitive
// and unique within a document.
type Layer struct {
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Linetype string `json:"linetype"`
	Visible  bool   `json:"visible"`
}

// Document is one loaded drawing version: an ordered collection of layers
// plus a flat, document-ordered collection of records.
//
// A document is treated as immutable once loaded for comparison purposes.
// The fix package never mutates the input document; it works on a copy
// produced by [Document.Clone]. Document is not safe for concurrent
// mutation without external synchronization.
type Document struct {
	layers      []*Layer
	layerIndex  map[string]*Layer
	records     []*Record
	recordIndex map[string]*Record
}

// New creates an empty document.
func New() *Document {
	return &Document{
		layerIndex:  make(map[string]*Layer),
		recordIndex: make(map[string]*Record),
	}
}

// AddLayer appends a layer to the document. Returns ErrInvalidLayerName if
// the name is empty or ErrDuplicateLayer if the name is already in use.
func (d *Document) AddLayer(l Layer) error {
	if l.Name == "" {
		return ErrInvalidLayerName
	}
	if _, exists := d.layerIndex[l.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateLayer, l.Name)
	}
	layer := &l
	d.layers = append(d.layers, layer)
	d.layerIndex[l.Name] = layer
	return nil
}

// AddRecord appends a record in document order. Returns ErrInvalidRecordKind
// if the kind is empty, ErrInvalidHandle if the handle is empty,
// ErrDuplicateHandle if the handle is already in use, or ErrUnknownLayer if
// the record's layer has not been added to the document.
func (d *Document) AddRecord(r Record) error {
	if r.Kind == "" {
		return ErrInvalidRecordKind
	}
	if r.Handle == "" {
		return ErrInvalidHandle
	}
	if _, exists := d.recordIndex[r.Handle]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateHandle, r.Handle)
	}
	if _, ok := d.layerIndex[r.Layer]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, r.Layer)
	}
	rec := &r
	d.records = append(d.records, rec)
	d.recordIndex[r.Handle] = rec
	return nil
}

// Layers returns the document's layers in declaration order. The returned
// slice contains pointers to the actual layer structs, so modifications
// affect the document.
func (d *Document) Layers() []*Layer {
	return d.layers
}

// Layer returns the layer with the given name and true, or nil and false.
func (d *Document) Layer(name string) (*Layer, bool) {
	l, ok := d.layerIndex[name]
	return l, ok
}

// Records returns all records in document order. The order is the original
// file order, which comparison tie-breaking and duplicate retention rely on.
func (d *Document) Records() []*Record {
	return d.records
}

// Record returns the record with the given handle and true, or nil and false.
func (d *Document) Record(handle string) (*Record, bool) {
	r, ok := d.recordIndex[handle]
	return r, ok
}

// RecordCount returns the number of records in the document.
func (d *Document) RecordCount() int { return len(d.records) }

// LayerCount returns the number of layers in the document.
func (d *Document) LayerCount() int { return len(d.layers) }

// RecordsOnLayer returns the records assigned to the named layer, in
// document order.
func (d *Document) RecordsOnLayer(name string) []*Record {
	var out []*Record
	for _, r := range d.records {
		if r.Layer == name {
			out = append(out, r)
		}
	}
	return out
}

// RemoveRecord removes the record with the given handle. Reports whether a
// record was removed. Used by the fix package on working copies only.
func (d *Document) RemoveRecord(handle string) bool {
	if _, ok := d.recordIndex[handle]; !ok {
		return false
	}
	delete(d.recordIndex, handle)
	d.records = slices.DeleteFunc(d.records, func(r *Record) bool { return r.Handle == handle })
	return true
}

// RemoveLayer removes the named layer. It refuses to remove a layer that
// still has records assigned to it. Reports whether the layer was removed.
func (d *Document) RemoveLayer(name string) bool {
	if _, ok := d.layerIndex[name]; !ok {
		return false
	}
	if len(d.RecordsOnLayer(name)) > 0 {
		return false
	}
	delete(d.layerIndex, name)
	d.layers = slices.DeleteFunc(d.layers, func(l *Layer) bool { return l.Name == name })
	return true
}

// RenameLayer changes a layer's name and rewrites all record references.
// Returns ErrUnknownLayer if oldName does not exist, ErrInvalidLayerName if
// newName is empty, or ErrDuplicateLayer if newName is already in use.
func (d *Document) RenameLayer(oldName, newName string) error {
	if newName == "" {
		return ErrInvalidLayerName
	}
	layer, ok := d.layerIndex[oldName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, oldName)
	}
	if _, exists := d.layerIndex[newName]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateLayer, newName)
	}
	layer.Name = newName
	delete(d.layerIndex, oldName)
	d.layerIndex[newName] = layer
	for _, r := range d.records {
		if r.Layer == oldName {
			r.Layer = newName
		}
	}
	return nil
}

// Clone returns a deep copy of the document. Mutations of the copy never
// affect the original; the fix package relies on this for its backup and
// all-or-nothing apply guarantees.
func (d *Document) Clone() *Document {
	out := New()
	for _, l := range d.layers {
		layer := *l
		out.layers = append(out.layers, &layer)
		out.layerIndex[layer.Name] = &layer
	}
	for _, r := range d.records {
		rec := r.Clone()
		out.records = append(out.records, rec)
		out.recordIndex[rec.Handle] = rec
	}
	return out
}

// Validate checks the document's structural invariants: every record's layer
// reference resolves to an existing layer, and no handle is used twice.
// Returns ErrUnknownLayer or ErrDuplicateHandle naming the first offending
// record, or nil if the document is consistent.
//
// Loaders are trusted to produce consistent documents; Validate exists for
// defensive checks at API boundaries and in tests. AddRecord enforces both
// invariants at insertion, so Validate only finds violations introduced by
// mutating records through the pointers Records exposes.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.records))
	for _, r := range d.records {
		if _, ok := d.layerIndex[r.Layer]; !ok {
			return fmt.Errorf("%w: record %q on layer %q", ErrUnknownLayer, r.Handle, r.Layer)
		}
		if seen[r.Handle] {
			return fmt.Errorf("%w: %q", ErrDuplicateHandle, r.Handle)
		}
		seen[r.Handle] = true
	}
	return nil
}

// KindCounts returns the number of records per kind.
func (d *Document) KindCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range d.records {
		counts[r.Kind]++
	}
	return counts
}
