package layout_test

import (
	"fmt"

	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/core/layout"
)

func ExampleLayOut() {
	res := layout.LayOut([]event.Event{
		{ID: "A", Start: 0, End: 90},
		{ID: "B", Start: 30, End: 150},
		{ID: "C", Start: 60, End: 90},
		{ID: "D", Start: 540, End: 600},
	})

	for _, p := range res.Placements {
		fmt.Printf("%s block=%d offset=%.2f width=%.2f\n", p.Event.ID, p.Block, p.Offset, p.Width)
	}
	// Output:
	// A block=0 offset=0.00 width=33.33
	// B block=0 offset=33.33 width=33.33
	// C block=0 offset=66.67 width=33.33
	// D block=1 offset=0.00 width=100.00
}

func ExampleLayOut_rejected() {
	res := layout.LayOut([]event.Event{
		{ID: "backwards", Start: 10, End: 5},
		{ID: "ok", Start: 0, End: 30},
	})

	for _, r := range res.Rejected {
		fmt.Printf("rejected #%d %s: %s\n", r.Index, r.Event.ID, r.Reason)
	}
	fmt.Printf("placed %s width=%.0f\n", res.Placements[0].Event.ID, res.Placements[0].Width)
	// Output:
	// rejected #0 backwards: end_not_after_start
	// placed ok width=100
}

func ExampleBuildBlocks() {
	sorted, _ := event.SortAndValidate([]event.Event{
		{ID: "D", Start: 0, End: 60},
		{ID: "E", Start: 60, End: 120},
		{ID: "F", Start: 90, End: 100},
	})

	for i, b := range layout.BuildBlocks(sorted) {
		fmt.Printf("block %d:", i)
		for _, c := range b.Columns {
			fmt.Print(" [")
			for j, e := range c.Events {
				if j > 0 {
					fmt.Print(" ")
				}
				fmt.Print(e.ID)
			}
			fmt.Print("]")
		}
		fmt.Println()
	}
	// Output:
	// block 0: [D]
	// block 1: [E] [F]
}
