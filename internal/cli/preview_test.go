package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/dayview/pkg/schedule"
)

func testLayout() schedule.Layout {
	return schedule.Layout{
		Blocks: 2,
		Placements: []schedule.Placement{
			{ID: "standup", Title: "Stand-up", Start: 30, End: 60, Width: 100, Columns: 1},
			{ID: "review", Title: "Review", Location: "Room 4", Start: 120, End: 180, Width: 50, Block: 1, Columns: 2},
			{ID: "lunch", Start: 150, End: 210, Offset: 50, Width: 50, Block: 1, Column: 1, Columns: 2},
		},
	}
}

func update(m previewModel, msg tea.Msg) previewModel {
	next, _ := m.Update(msg)
	return next.(previewModel)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPreviewScroll(t *testing.T) {
	m := newPreviewModel(testLayout(), false)
	m = update(m, tea.WindowSizeMsg{Width: 60, Height: 10})

	if m.maxOffset() == 0 {
		t.Fatal("a twelve hour day should not fit in ten lines")
	}
	if !strings.Contains(m.View(), "Day · 3 events · 2 blocks") {
		t.Errorf("first page should show the header:\n%s", m.View())
	}

	m = update(m, key("down"))
	if m.offset != 1 {
		t.Errorf("offset after down = %d, want 1", m.offset)
	}
	m = update(m, key("G"))
	if m.offset != m.maxOffset() {
		t.Errorf("offset after G = %d, want %d", m.offset, m.maxOffset())
	}
	m = update(m, key("j"))
	if m.offset != m.maxOffset() {
		t.Errorf("offset should clamp at %d, got %d", m.maxOffset(), m.offset)
	}
	m = update(m, key("g"))
	if m.offset != 0 {
		t.Errorf("offset after g = %d, want 0", m.offset)
	}
}

func TestPreviewSelect(t *testing.T) {
	m := newPreviewModel(testLayout(), false)
	if !strings.Contains(m.detail(), "3 events") {
		t.Errorf("detail without selection = %q", m.detail())
	}

	m = update(m, key("tab"))
	m = update(m, key("tab"))
	if m.selected != 1 {
		t.Fatalf("selected = %d, want 1", m.selected)
	}
	d := m.detail()
	for _, want := range []string{"Review", "Room 4", "11:00–12:00", "block 2", "column 1/2"} {
		if !strings.Contains(d, want) {
			t.Errorf("detail %q missing %q", d, want)
		}
	}

	m = update(m, key("p"))
	m = update(m, key("p"))
	if m.selected != 2 {
		t.Errorf("selected after wrapping back = %d, want 2", m.selected)
	}
}

func TestPreviewQuit(t *testing.T) {
	m := newPreviewModel(testLayout(), false)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestPreviewEmptyLayout(t *testing.T) {
	m := newPreviewModel(schedule.Layout{}, false)
	m = update(m, key("tab"))
	if m.selected != -1 {
		t.Errorf("tab on an empty day selected %d", m.selected)
	}
	if m.View() == "" {
		t.Error("empty day should still render")
	}
}
