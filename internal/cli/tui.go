package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/drawrev/drawrev/pkg/compare"
	"github.com/drawrev/drawrev/pkg/model"
)

// List styles
var (
	listAddedStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	listRemovedStyle  = lipgloss.NewStyle().Foreground(colorRed)
	listModifiedStyle = lipgloss.NewStyle().Foreground(colorYellow)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// DiffListModel - Interactive diff entry browser
// =============================================================================

// EntrySelection holds the entry picked in the browser.
type EntrySelection struct {
	Entry *compare.Entry
}

// DiffListModel is the bubbletea model for browsing a comparison's entries.
type DiffListModel struct {
	Entries  []compare.Entry
	Level    compare.ChangeLevel
	Cursor   int
	Selected *EntrySelection
	Height   int
	Offset   int
}

// NewDiffListModel creates a browser over the diff's entries. Unchanged
// records are filtered out unless requested; they dominate typical diffs
// and drown the actual changes.
func NewDiffListModel(diff *compare.Result, includeUnchanged bool) DiffListModel {
	var entries []compare.Entry
	for _, e := range diff.Entries {
		if !includeUnchanged && e.Status == compare.StatusUnchanged {
			continue
		}
		entries = append(entries, e)
	}
	return DiffListModel{
		Entries: entries,
		Level:   diff.Level,
		Cursor:  0,
		Height:  15,
		Offset:  0,
	}
}

func (m DiffListModel) Init() tea.Cmd {
	return nil
}

func (m DiffListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Entries)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Entries) == 0 {
				return m, nil
			}
			entry := m.Entries[m.Cursor]
			m.Selected = &EntrySelection{Entry: &entry}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DiffListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Diff Entries"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ inspect  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Entries) {
		end = len(m.Entries)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		e := m.Entries[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rec := entryRecord(e)
		rows = append(rows, []string{
			cursor, string(e.Status), rec.Kind, rec.Layer, rec.Handle, entryChanges(e),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Status", "Kind", "Layer", "Handle", "Changes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Entries) {
				return lipgloss.NewStyle()
			}
			style := statusStyle(m.Entries[actualIdx].Status)
			if actualIdx == m.Cursor {
				return style.Bold(true)
			}
			return style
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] · %s revision", m.Cursor+1, len(m.Entries), m.Level)))

	return b.String()
}

func statusStyle(s compare.Status) lipgloss.Style {
	switch s {
	case compare.StatusAdded:
		return listAddedStyle
	case compare.StatusRemoved:
		return listRemovedStyle
	case compare.StatusModified:
		return listModifiedStyle
	default:
		return listDimStyle
	}
}

// entryRecord returns the entry's representative record: the new revision's
// record when it exists, otherwise the old one.
func entryRecord(e compare.Entry) *model.Record {
	if e.After != nil {
		return e.After
	}
	return e.Before
}

// entryChanges summarizes what changed in a modified entry.
func entryChanges(e compare.Entry) string {
	if e.Status != compare.StatusModified {
		return "—"
	}
	var parts []string
	if e.GeometryChanged {
		parts = append(parts, "geometry")
	}
	parts = append(parts, e.ChangedAttrs...)
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// Helpers
// =============================================================================

// browseDiff runs the interactive entry browser and prints the detail of
// the entry picked, if any.
func (c *CLI) browseDiff(diff *compare.Result, includeUnchanged bool) error {
	if !diff.HasChanges() && !includeUnchanged {
		printDetail("No entries to browse")
		return nil
	}

	m := NewDiffListModel(diff, includeUnchanged)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(DiffListModel)
	if !ok || fm.Selected == nil {
		printDetail("No selection made")
		return nil
	}

	printEntryDetail(*fm.Selected.Entry)
	return nil
}

// printEntryDetail prints one diff entry's records and changed attributes.
func printEntryDetail(e compare.Entry) {
	rec := entryRecord(e)
	printInfo("%s %s %q on layer %s", e.Status, rec.Kind, rec.Handle, StyleHighlight.Render(rec.Layer))

	if e.Status == compare.StatusModified {
		if e.GeometryChanged {
			printDetail("geometry moved")
		}
		for _, name := range e.ChangedAttrs {
			printDetail("%s: %v → %v", name, e.Before.Attrs[name], e.After.Attrs[name])
		}
	}
}
