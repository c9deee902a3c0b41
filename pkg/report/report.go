// Package report renders comparison and fix results as human-facing text.
//
// All information comes from the structured result types; nothing is
// re-parsed from text. The package stays thin on purpose: markdown for
// people, JSON for machines, and a Graphviz node-link view of a diff for
// quick visual triage.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/drawrev/drawrev/pkg/compare"
	"github.com/drawrev/drawrev/pkg/fix"
)

// Diff renders a comparison result as a markdown report. The nameA and
// nameB labels identify the two compared versions.
func Diff(r *compare.Result, nameA, nameB string) string {
	var b strings.Builder

	b.WriteString("# Drawing Comparison Report\n\n")
	fmt.Fprintf(&b, "- **Version A**: %s\n", nameA)
	fmt.Fprintf(&b, "- **Version B**: %s\n\n", nameB)

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Change level**: %s\n", strings.ToUpper(r.Level.String()))
	fmt.Fprintf(&b, "- **Added**: %d\n", r.Added)
	fmt.Fprintf(&b, "- **Removed**: %d\n", r.Removed)
	fmt.Fprintf(&b, "- **Modified**: %d\n", r.Modified)
	fmt.Fprintf(&b, "- **Unchanged**: %d\n", r.Unchanged)

	if len(r.LayerChanges) > 0 {
		b.WriteString("\n## Layer Changes\n")
		for _, lc := range r.LayerChanges {
			switch lc.Status {
			case compare.StatusAdded:
				fmt.Fprintf(&b, "- added layer %q\n", lc.Name)
			case compare.StatusRemoved:
				fmt.Fprintf(&b, "- removed layer %q\n", lc.Name)
			case compare.StatusModified:
				fmt.Fprintf(&b, "- **%s**:\n", lc.Name)
				for _, pc := range lc.Changes {
					fmt.Fprintf(&b, "  - %s: %v -> %v\n", pc.Property, pc.Old, pc.New)
				}
			}
		}
	}

	if len(r.KindChanges) > 0 {
		b.WriteString("\n## Record Counts\n")
		b.WriteString("| Kind | A | B | Delta |\n")
		b.WriteString("|------|---|---|-------|\n")
		for _, kc := range r.KindChanges {
			fmt.Fprintf(&b, "| %s | %d | %d | %+d |\n", kc.Kind, kc.OldCount, kc.NewCount, kc.NewCount-kc.OldCount)
		}
	}

	if r.HasChanges() {
		b.WriteString("\n## Record Changes\n")
		for _, e := range r.Entries {
			switch e.Status {
			case compare.StatusAdded:
				fmt.Fprintf(&b, "- added %s %q on layer %q\n", e.After.Kind, e.After.Handle, e.After.Layer)
			case compare.StatusRemoved:
				fmt.Fprintf(&b, "- removed %s %q from layer %q\n", e.Before.Kind, e.Before.Handle, e.Before.Layer)
			case compare.StatusModified:
				fmt.Fprintf(&b, "- modified %s %q", e.Before.Kind, e.Before.Handle)
				if e.GeometryChanged {
					b.WriteString(" (geometry)")
				}
				if len(e.ChangedAttrs) > 0 {
					fmt.Fprintf(&b, " (attrs: %s)", strings.Join(e.ChangedAttrs, ", "))
				}
				b.WriteString("\n")
			}
		}
	}

	fmt.Fprintf(&b, "\n---\n*generated %s*\n", time.Now().Format("2006-01-02 15:04:05"))
	return b.String()
}

// Fix renders a fix result as a markdown report.
func Fix(r *fix.Result) string {
	var b strings.Builder

	b.WriteString("# Drawing Auto-Fix Report\n\n")
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Plan**: %s\n", r.PlanID)
	fmt.Fprintf(&b, "- **Applied actions**: %d\n", len(r.Applied))
	if r.Backup != nil {
		fmt.Fprintf(&b, "- **Backup**: %s (taken %s)\n", r.Backup.ID, r.Backup.TakenAt.Format(time.RFC3339))
	}

	if len(r.Applied) > 0 {
		byRule := make(map[string][]fix.Action)
		var order []string
		for _, a := range r.Applied {
			if _, ok := byRule[a.Rule]; !ok {
				order = append(order, a.Rule)
			}
			byRule[a.Rule] = append(byRule[a.Rule], a)
		}

		b.WriteString("\n## Applied Fixes\n")
		for _, rule := range order {
			fmt.Fprintf(&b, "\n### %s (%d)\n", rule, len(byRule[rule]))
			for _, a := range byRule[rule] {
				fmt.Fprintf(&b, "- %s\n", a.Description)
			}
		}
	}

	fmt.Fprintf(&b, "\n---\n*generated %s*\n", time.Now().Format("2006-01-02 15:04:05"))
	return b.String()
}

// DiffJSON renders a comparison result as indented JSON.
func DiffJSON(r *compare.Result) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// PlanJSON renders a fix plan as indented JSON.
func PlanJSON(p *fix.Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
