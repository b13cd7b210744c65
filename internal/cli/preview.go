package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dayview/pkg/pipeline"
	"github.com/matzehuels/dayview/pkg/render/sink"
	"github.com/matzehuels/dayview/pkg/schedule"
)

// previewCommand creates the interactive terminal preview.
func (c *CLI) previewCommand() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "preview [events|layout.json]",
		Short: "Browse a day interactively in the terminal",
		Long: `Browse a day interactively in the terminal.

The argument is either an events file (laid out on the fly) or a
.layout.json file written by 'layout'. Scroll with the arrow keys, cycle
through events with tab, quit with q.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := flags.options(cmd, cfg)
			if len(args) == 1 {
				opts.Input = args[0]
			}
			return c.runPreview(cmd.Context(), opts, flags.noCache)
		},
	}

	flags.bindImport(cmd)
	flags.bindLayout(cmd)

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, opts pipeline.Options, noCache bool) error {
	var l schedule.Layout
	if strings.HasSuffix(opts.Input, ".layout.json") {
		loaded, err := schedule.ReadLayoutFile(opts.Input)
		if err != nil {
			return fmt.Errorf("load layout %s: %w", opts.Input, err)
		}
		l = loaded
	} else {
		runner, err := c.newRunner(ctx, noCache)
		if err != nil {
			return fmt.Errorf("initialize runner: %w", err)
		}
		defer runner.Close()
		opts.Logger = c.Logger
		if l, _, err = computeLayout(ctx, runner, opts); err != nil {
			return err
		}
	}

	m := newPreviewModel(l, isTerminal(os.Stdout))
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// previewModel - scrollable day view
// =============================================================================

// previewChrome is the number of lines below the day grid.
const previewChrome = 3

type previewModel struct {
	layout   schedule.Layout
	color    bool
	width    int
	height   int
	offset   int // first visible grid line
	selected int // placement index, or -1
	lines    []string
}

func newPreviewModel(l schedule.Layout, color bool) previewModel {
	m := previewModel{
		layout:   l.WithDefaults(),
		color:    color,
		width:    80,
		height:   24,
		selected: -1,
	}
	m.lines = m.renderLines()
	return m
}

func (m previewModel) renderLines() []string {
	opts := []sink.TerminalOption{sink.WithColumns(m.width)}
	if !m.color {
		opts = append(opts, sink.WithoutColor())
	}
	out := strings.TrimRight(sink.RenderTerminal(m.layout, opts...), "\n")
	return strings.Split(out, "\n")
}

func (m previewModel) bodyHeight() int {
	return max(m.height-previewChrome, 1)
}

func (m previewModel) maxOffset() int {
	return max(len(m.lines)-m.bodyHeight(), 0)
}

func (m previewModel) scroll(delta int) previewModel {
	m.offset = min(max(m.offset+delta, 0), m.maxOffset())
	return m
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			return m.scroll(-1), nil
		case "down", "j":
			return m.scroll(1), nil
		case "pgup", "b":
			return m.scroll(-m.bodyHeight()), nil
		case "pgdown", " ", "f":
			return m.scroll(m.bodyHeight()), nil
		case "home", "g":
			return m.scroll(-len(m.lines)), nil
		case "end", "G":
			return m.scroll(len(m.lines)), nil
		case "tab", "n":
			if n := len(m.layout.Placements); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		case "shift+tab", "p":
			if n := len(m.layout.Placements); n > 0 {
				m.selected = (m.selected - 1 + n) % n
			}
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.lines = m.renderLines()
		m = m.scroll(0)
	}
	return m, nil
}

func (m previewModel) View() string {
	var b strings.Builder

	end := min(m.offset+m.bodyHeight(), len(m.lines))
	for _, line := range m.lines[m.offset:end] {
		b.WriteString(line)
		b.WriteString("\n")
	}
	for i := end - m.offset; i < m.bodyHeight(); i++ {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detail())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("↑/↓ scroll  tab next event  q quit  [%d/%d]", end, len(m.lines))))
	return b.String()
}

// detail describes the selected placement.
func (m previewModel) detail() string {
	if m.selected < 0 || m.selected >= len(m.layout.Placements) {
		return StyleDim.Render(fmt.Sprintf("%s · %s", plural(len(m.layout.Placements), "event"), plural(m.layout.Blocks, "block")))
	}
	p := m.layout.Placements[m.selected]
	parts := []string{StyleTitle.Render(p.Label())}
	if p.Location != "" {
		parts = append(parts, StyleValue.Render(p.Location))
	}
	parts = append(parts,
		StyleHighlight.Render(sink.ClockLabel(m.layout.Axis, p.Start)+"–"+sink.ClockLabel(m.layout.Axis, p.End)),
		StyleDim.Render(fmt.Sprintf("block %d · column %d/%d", p.Block+1, p.Column+1, p.Columns)),
	)
	return strings.Join(parts, StyleDim.Render(" · "))
}
