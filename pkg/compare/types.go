package compare

import (
	"github.com/drawrev/drawrev/pkg/model"
)

// Status classifies one diff entry.
type Status string

// Diff entry statuses.
const (
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusModified  Status = "modified"
	StatusUnchanged Status = "unchanged"
)

// Entry is one classified record difference between two documents.
//
// Before is the record from the older document (set for removed, modified,
// and unchanged entries); After is the record from the newer document (set
// for added, modified, and unchanged entries). For modified entries,
// ChangedAttrs lists the attribute names whose values differ and
// GeometryChanged reports whether the quantized geometry differs.
type Entry struct {
	Status          Status        `json:"status"`
	Before          *model.Record `json:"before,omitempty"`
	After           *model.Record `json:"after,omitempty"`
	ChangedAttrs    []string      `json:"changed_attrs,omitempty"`
	GeometryChanged bool          `json:"geometry_changed,omitempty"`
}

// Structural reports whether the entry represents a structural change:
// an addition, a removal, or a modification that moved geometry. Attribute-
// only modifications are not structural.
func (e Entry) Structural() bool {
	switch e.Status {
	case StatusAdded, StatusRemoved:
		return true
	case StatusModified:
		return e.GeometryChanged
	}
	return false
}

// ChangeLevel is the ordinal severity summary of a diff.
type ChangeLevel int

// Change levels, ordered by severity.
const (
	LevelNone ChangeLevel = iota
	LevelMinor
	LevelModerate
	LevelMajor
)

// String returns the lowercase level name.
func (l ChangeLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelMinor:
		return "minor"
	case LevelModerate:
		return "moderate"
	case LevelMajor:
		return "major"
	default:
		return "unknown"
	}
}

// PropertyChange records one changed layer property.
type PropertyChange struct {
	Property string `json:"property"`
	Old      any    `json:"old"`
	New      any    `json:"new"`
}

// LayerChange records a layer-level difference: a layer present in only one
// document, or a layer whose color or linetype changed between versions.
type LayerChange struct {
	Name    string           `json:"name"`
	Status  Status           `json:"status"`
	Changes []PropertyChange `json:"changes,omitempty"`
}

// KindChange records how the number of records of one kind changed.
type KindChange struct {
	Kind     string `json:"kind"`
	OldCount int    `json:"old_count"`
	NewCount int    `json:"new_count"`
}

// Result is the immutable output of [Compare]. It is produced once and never
// mutated afterwards; sharing it by reference is safe.
type Result struct {
	Entries      []Entry       `json:"entries"`
	LayerChanges []LayerChange `json:"layer_changes,omitempty"`
	KindChanges  []KindChange  `json:"kind_changes,omitempty"`

	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`

	Level ChangeLevel `json:"level"`
}

// HasChanges reports whether any record was added, removed, or modified.
func (r *Result) HasChanges() bool {
	return r.Added+r.Removed+r.Modified > 0
}

// StructuralChanges returns the number of structural entries (additions,
// removals, geometry-moving modifications).
func (r *Result) StructuralChanges() int {
	n := 0
	for _, e := range r.Entries {
		if e.Structural() {
			n++
		}
	}
	return n
}
