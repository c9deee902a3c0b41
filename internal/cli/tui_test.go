package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drawrev/drawrev/pkg/compare"
	"github.com/drawrev/drawrev/pkg/model"
)

func browserDiff() *compare.Result {
	line := func(handle string) *model.Record {
		return &model.Record{Handle: handle, Kind: model.KindLine, Layer: "0"}
	}
	return &compare.Result{
		Entries: []compare.Entry{
			{Status: compare.StatusAdded, After: line("B1")},
			{Status: compare.StatusRemoved, Before: line("A1")},
			{Status: compare.StatusModified, Before: line("A2"), After: line("B2"),
				ChangedAttrs: []string{model.AttrColor}, GeometryChanged: true},
			{Status: compare.StatusUnchanged, Before: line("A3"), After: line("B3")},
		},
		Added: 1, Removed: 1, Modified: 1, Unchanged: 1,
		Level: compare.LevelMinor,
	}
}

func pressKey(t *testing.T, m DiffListModel, msg tea.Msg) DiffListModel {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(DiffListModel)
	if !ok {
		t.Fatalf("Update returned %T, want DiffListModel", next)
	}
	return out
}

func TestDiffListModelFiltersUnchanged(t *testing.T) {
	m := NewDiffListModel(browserDiff(), false)
	if len(m.Entries) != 3 {
		t.Fatalf("entries = %d, want 3 (unchanged filtered)", len(m.Entries))
	}
	for _, e := range m.Entries {
		if e.Status == compare.StatusUnchanged {
			t.Errorf("unchanged entry %+v leaked into the browser", e)
		}
	}

	all := NewDiffListModel(browserDiff(), true)
	if len(all.Entries) != 4 {
		t.Errorf("entries = %d, want all 4 with --unchanged", len(all.Entries))
	}
}

func TestDiffListModelNavigation(t *testing.T) {
	m := NewDiffListModel(browserDiff(), false)

	// Up at the top stays put
	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor != 0 {
		t.Errorf("cursor = %d after up at top, want 0", m.Cursor)
	}

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if m.Cursor != 2 {
		t.Fatalf("cursor = %d after two downs, want 2", m.Cursor)
	}

	// Down at the bottom stays put
	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 2 {
		t.Errorf("cursor = %d after down at bottom, want 2", m.Cursor)
	}

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after k, want 1", m.Cursor)
	}
}

func TestDiffListModelScrollWindow(t *testing.T) {
	diff := &compare.Result{Level: compare.LevelMajor}
	for i := 0; i < 10; i++ {
		diff.Entries = append(diff.Entries, compare.Entry{
			Status: compare.StatusAdded,
			After:  &model.Record{Handle: string(rune('A' + i)), Kind: model.KindLine, Layer: "0"},
		})
	}

	m := NewDiffListModel(diff, false)
	m.Height = 3
	for i := 0; i < 5; i++ {
		m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.Cursor != 5 {
		t.Fatalf("cursor = %d, want 5", m.Cursor)
	}
	// The window follows the cursor
	if m.Offset != 3 {
		t.Errorf("offset = %d, want 3", m.Offset)
	}
	for i := 0; i < 5; i++ {
		m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	if m.Offset != 0 {
		t.Errorf("offset = %d after scrolling back, want 0", m.Offset)
	}
}

func TestDiffListModelSelection(t *testing.T) {
	m := NewDiffListModel(browserDiff(), false)
	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.Selected == nil {
		t.Fatal("enter should select the entry under the cursor")
	}
	if m.Selected.Entry.Status != compare.StatusRemoved {
		t.Errorf("selected status = %s, want removed", m.Selected.Entry.Status)
	}

	// Enter on an empty browser selects nothing
	empty := NewDiffListModel(&compare.Result{}, false)
	empty = pressKey(t, empty, tea.KeyMsg{Type: tea.KeyEnter})
	if empty.Selected != nil {
		t.Error("empty browser must not select")
	}
}

func TestDiffListModelView(t *testing.T) {
	m := NewDiffListModel(browserDiff(), false)
	view := m.View()

	for _, want := range []string{"Diff Entries", "B1", "A1", "minor revision", "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "A3") {
		t.Error("view should not list unchanged records")
	}
}

func TestEntryChanges(t *testing.T) {
	mod := compare.Entry{Status: compare.StatusModified,
		ChangedAttrs: []string{model.AttrHeight}, GeometryChanged: true}
	if got := entryChanges(mod); got != "geometry, height" {
		t.Errorf("entryChanges = %q", got)
	}
	if got := entryChanges(compare.Entry{Status: compare.StatusAdded}); got != "—" {
		t.Errorf("entryChanges for added = %q, want —", got)
	}
}
