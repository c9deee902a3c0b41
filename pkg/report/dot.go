package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/drawrev/drawrev/pkg/compare"
)

// statusFill maps a diff status to its node fill color.
var statusFill = map[compare.Status]string{
	compare.StatusAdded:     "palegreen",
	compare.StatusRemoved:   "lightcoral",
	compare.StatusModified:  "khaki",
	compare.StatusUnchanged: "white",
}

// ToDOT converts a comparison result to Graphviz DOT format. Each record
// becomes a node colored by its change status, grouped under its layer.
// Unchanged records are included only when includeUnchanged is set, which
// keeps large diffs readable.
func ToDOT(r *compare.Result, includeUnchanged bool) string {
	var buf bytes.Buffer
	buf.WriteString("digraph diff {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, margin=\"0.2,0.1\"];\n\n")

	byLayer := make(map[string][]compare.Entry)
	var layers []string
	for _, e := range r.Entries {
		if e.Status == compare.StatusUnchanged && !includeUnchanged {
			continue
		}
		layer := entryLayer(e)
		if _, ok := byLayer[layer]; !ok {
			layers = append(layers, layer)
		}
		byLayer[layer] = append(byLayer[layer], e)
	}

	for i, layer := range layers {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", layer)
		for _, e := range byLayer[layer] {
			id, label := entryNode(e)
			fmt.Fprintf(&buf, "    %q [label=%q, fillcolor=%s];\n", id, label, statusFill[e.Status])
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func entryLayer(e compare.Entry) string {
	if e.Before != nil {
		return e.Before.Layer
	}
	return e.After.Layer
}

func entryNode(e compare.Entry) (id, label string) {
	rec := e.Before
	if rec == nil {
		rec = e.After
	}
	id = string(e.Status) + ":" + rec.Handle
	label = fmt.Sprintf("%s %s\n%s", rec.Kind, rec.Handle, e.Status)
	if e.Status == compare.StatusModified && len(e.ChangedAttrs) > 0 {
		label += "\n" + strings.Join(e.ChangedAttrs, ",")
	}
	return id, label
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render SVG: %w", err)
	}
	return buf.Bytes(), nil
}
