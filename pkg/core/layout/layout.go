package layout

import (
	"github.com/matzehuels/dayview/pkg/core/event"
)

// FullWidth is the horizontal extent of the day, in percent.
const FullWidth = 100.0

// Column is a vertical lane of mutually non-overlapping events, in start order.
type Column struct {
	Events []event.Event
}

// Last returns the most recently appended event.
func (c Column) Last() event.Event { return c.Events[len(c.Events)-1] }

// fits reports whether e can follow the column's last event.
func (c Column) fits(e event.Event) bool { return c.Last().End <= e.Start }

// Block is a maximal group of transitively overlapping events sharing one
// horizontal band split into columns.
type Block struct {
	Columns []Column
}

// Width returns the width of every event in the block, in percent.
func (b Block) Width() float64 { return FullWidth / float64(len(b.Columns)) }

// Len returns the number of events in the block.
func (b Block) Len() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Events)
	}
	return n
}

// Start returns the start of the block's earliest event.
func (b Block) Start() float64 { return b.Columns[0].Events[0].Start }

// End returns the latest end among the last events of all columns.
func (b Block) End() float64 {
	end := b.Columns[0].Last().End
	for _, c := range b.Columns[1:] {
		end = max(end, c.Last().End)
	}
	return end
}

// Placement is the resolved geometry of one event.
type Placement struct {
	Event event.Event

	// Offset is the left edge in percent of the full width.
	Offset float64
	// Width is the horizontal extent in percent of the full width.
	Width float64

	// Block and Column locate the event in Result.Blocks.
	Block  int
	Column int
}

// Result is the output of a layout pass.
type Result struct {
	// Placements are ordered by block, then column, then start.
	Placements []Placement
	Blocks     []Block
	Rejected   []event.Rejection
}

// Columns returns the column count of the block a placement belongs to.
func (r Result) Columns(p Placement) int {
	return len(r.Blocks[p.Block].Columns)
}

// LayOut computes placements for events.
//
// Invalid events are excluded and reported in Result.Rejected; nil or empty
// input yields an empty Result. The input slice is not modified.
func LayOut(events []event.Event) Result {
	sorted, rejected := event.SortAndValidate(events)
	blocks := BuildBlocks(sorted)

	res := Result{Blocks: blocks, Rejected: rejected}
	if len(sorted) > 0 {
		res.Placements = make([]Placement, 0, len(sorted))
	}
	for i, b := range blocks {
		res.Placements = append(res.Placements, Resolve(b, i)...)
	}
	return res
}

// BuildBlocks partitions start-sorted events into blocks of columns.
//
// The caller must pass events sorted by start with End > Start, as returned
// by event.SortAndValidate.
func BuildBlocks(sorted []event.Event) []Block {
	var (
		blocks []Block
		cur    *Block
		end    float64 // latest end of any column's last event in cur
	)

	for _, e := range sorted {
		if cur != nil && e.Start >= end {
			blocks = append(blocks, *cur)
			cur = nil
		}
		if cur == nil {
			cur = &Block{Columns: []Column{{Events: []event.Event{e}}}}
			end = e.End
			continue
		}

		placed := false
		for i := range cur.Columns {
			if cur.Columns[i].fits(e) {
				cur.Columns[i].Events = append(cur.Columns[i].Events, e)
				placed = true
				break
			}
		}
		if !placed {
			cur.Columns = append(cur.Columns, Column{Events: []event.Event{e}})
		}
		end = max(end, e.End)
	}

	if cur != nil {
		blocks = append(blocks, *cur)
	}
	return blocks
}

// Resolve assigns offset and width to every event of a block.
// index is recorded as Placement.Block.
func Resolve(b Block, index int) []Placement {
	width := b.Width()
	out := make([]Placement, 0, b.Len())
	for ci, c := range b.Columns {
		offset := float64(ci) * width
		for _, e := range c.Events {
			out = append(out, Placement{
				Event:  e,
				Offset: offset,
				Width:  width,
				Block:  index,
				Column: ci,
			})
		}
	}
	return out
}
