package sink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dayview/pkg/schedule"
)

// ToDOT describes the day's conflict graph in Graphviz DOT: one node per
// placement, an edge between every pair of placements that overlap in time,
// and one cluster per block.
func ToDOT(l schedule.Layout) string {
	l = l.WithDefaults()

	var buf bytes.Buffer
	buf.WriteString("graph conflicts {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontcolor=white, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [color=\"#999999\"];\n")

	for b := range l.Blocks {
		members := indexesInBlock(l.Placements, b)
		if len(members) == 0 {
			continue
		}
		columns := l.Placements[members[0]].Columns
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", b)
		fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("block %d · %d column%s", b, columns, plural(columns)))
		buf.WriteString("    style=\"rounded,dashed\";\n    color=\"#bbbbbb\";\n")
		for _, i := range members {
			p := l.Placements[i]
			label := fmt.Sprintf("%s\n%s–%s", p.Label(), ClockLabel(l.Axis, p.Start), ClockLabel(l.Axis, p.End))
			fmt.Fprintf(&buf, "    p%d [label=%q, fillcolor=%q];\n", i, label, colorFor(p.Column))
		}
		for x, i := range members {
			for _, j := range members[x+1:] {
				if l.Placements[i].Event().Overlaps(l.Placements[j].Event()) {
					fmt.Fprintf(&buf, "    p%d -- p%d;\n", i, j)
				}
			}
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderConflicts renders [ToDOT] output to SVG with the embedded Graphviz.
func RenderConflicts(l schedule.Layout) ([]byte, error) {
	return RenderDOT(context.Background(), ToDOT(l))
}

// RenderDOT renders a DOT graph to SVG.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
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
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

func indexesInBlock(ps []schedule.Placement, block int) []int {
	var out []int
	for i, p := range ps {
		if p.Block == block {
			out = append(out, i)
		}
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// pixel viewBox so the SVG scales like the other sinks' output.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
