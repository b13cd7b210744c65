package sink

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/matzehuels/dayview/pkg/schedule"
)

const (
	defaultColumns = 80
	minGridWidth   = 10
	gutterWidth    = 6
)

// TerminalOption configures [RenderTerminal].
type TerminalOption func(*terminalRenderer)

type terminalRenderer struct {
	columns int
	step    float64
	color   bool
}

// WithColumns sets the total output width in cells.
func WithColumns(n int) TerminalOption { return func(r *terminalRenderer) { r.columns = n } }

// WithRowStep sets how many axis units one text row covers.
func WithRowStep(units float64) TerminalOption { return func(r *terminalRenderer) { r.step = units } }

// WithoutColor renders plain text without ANSI styling.
func WithoutColor() TerminalOption { return func(r *terminalRenderer) { r.color = false } }

// DetectWidth returns the width of the terminal on stdout, or 80.
func DetectWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultColumns
	}
	return w
}

type cell struct {
	text  string
	owner int
}

// RenderTerminal draws the day as a text grid: one row per step of the axis,
// each event a region of its column's share of the width with its label on
// the first row.
func RenderTerminal(l schedule.Layout, opts ...TerminalOption) string {
	r := terminalRenderer{columns: defaultColumns, color: true}
	for _, opt := range opts {
		opt(&r)
	}
	l = l.WithDefaults()
	if r.step <= 0 {
		r.step = defaultRowStep(l.Axis)
	}

	gridWidth := max(r.columns-gutterWidth-2, minGridWidth)
	rows := max(int(math.Ceil(l.Span/r.step)), 1)
	grid := make([][]cell, rows)
	for i := range grid {
		grid[i] = make([]cell, gridWidth)
		for j := range grid[i] {
			grid[i][j] = cell{text: " ", owner: -1}
		}
	}

	for i, p := range l.Placements {
		paint(grid, i, p, r.step, gridWidth)
	}

	var b strings.Builder
	tick := tickStep(l.Axis)
	for i, row := range grid {
		b.WriteString(gutter(l.Axis, float64(i)*r.step, r.step, tick))
		b.WriteString(r.renderRow(row, l.Placements))
		if i < len(grid)-1 {
			b.WriteByte('\n')
		}
	}

	frame := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	if r.color {
		frame = frame.BorderForeground(lipgloss.Color("240"))
	}

	var out strings.Builder
	out.WriteString(header(l))
	out.WriteByte('\n')
	out.WriteString(frame.Render(b.String()))
	out.WriteByte('\n')
	for _, rej := range l.Rejected {
		fmt.Fprintf(&out, "rejected %s\n", rej.Message())
	}
	return out.String()
}

func defaultRowStep(axis schedule.Axis) float64 {
	if axis.Unit == "minutes" {
		return 30
	}
	return axis.Span / 24
}

// paint fills the cells covered by p and writes its label on the top row.
func paint(grid [][]cell, owner int, p schedule.Placement, step float64, width int) {
	r0 := int(math.Round(p.Start / step))
	r1 := int(math.Round(p.End / step))
	if r1 <= r0 {
		r1 = r0 + 1
	}
	r0, r1 = max(r0, 0), min(r1, len(grid))
	c0 := int(math.Round(p.Offset / 100 * float64(width)))
	c1 := int(math.Round((p.Offset + p.Width) / 100 * float64(width)))
	if c1 <= c0 {
		c1 = c0 + 1
	}
	c0, c1 = max(c0, 0), min(c1, width)
	if r0 >= r1 || c0 >= c1 {
		return
	}

	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			grid[row][col] = cell{text: " ", owner: owner}
		}
		grid[row][c0].text = "│"
	}

	writeText(grid[r0], c0+1, c1, p.Label())
	if r1-r0 > 1 && p.Location != "" {
		writeText(grid[r0+1], c0+1, c1, p.Location)
	}
}

// writeText writes s into row cells [from, to), truncating with an ellipsis.
func writeText(row []cell, from, to int, s string) {
	avail := to - from
	if avail <= 0 {
		return
	}
	s = runewidth.Truncate(s, avail, "…")
	col := from
	for _, rn := range s {
		w := runewidth.RuneWidth(rn)
		if w == 0 {
			continue
		}
		if col+w > to {
			break
		}
		row[col].text = string(rn)
		for k := 1; k < w; k++ {
			row[col+k].text = ""
		}
		col += w
	}
}

func (r terminalRenderer) renderRow(row []cell, ps []schedule.Placement) string {
	var b strings.Builder
	for i := 0; i < len(row); {
		j := i
		var run strings.Builder
		for j < len(row) && row[j].owner == row[i].owner {
			run.WriteString(row[j].text)
			j++
		}
		owner := row[i].owner
		if r.color && owner >= 0 {
			style := lipgloss.NewStyle().
				Background(lipgloss.Color(colorFor(ps[owner].Column))).
				Foreground(lipgloss.Color("#ffffff"))
			b.WriteString(style.Render(run.String()))
		} else {
			b.WriteString(run.String())
		}
		i = j
	}
	return b.String()
}

func gutter(axis schedule.Axis, v, step, tick float64) string {
	// Label the row whose span contains a tick.
	k := math.Ceil(v/tick-1e-9) * tick
	if k < v+step-1e-9 {
		return runewidth.FillRight(ClockLabel(axis, k), gutterWidth)
	}
	return strings.Repeat(" ", gutterWidth)
}

func header(l schedule.Layout) string {
	title := l.Title
	if title == "" {
		title = "Day"
	}
	return fmt.Sprintf("%s · %d events · %d blocks", title, len(l.Placements), l.Blocks)
}
