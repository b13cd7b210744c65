package layout

import (
	"fmt"
	"math"

	"github.com/matzehuels/dayview/pkg/errors"
)

// Epsilon is the tolerance used when comparing percentages.
const Epsilon = 1e-9

// Verify checks the structural guarantees of a Result and returns an
// INTERNAL_ERROR describing the first violation. A Result produced by LayOut
// always passes.
func Verify(r Result) error {
	if err := verifyBlocks(r.Blocks); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "layout invariant violated")
	}
	if err := verifyPlacements(r); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "layout invariant violated")
	}
	return nil
}

func verifyBlocks(blocks []Block) error {
	for bi, b := range blocks {
		if len(b.Columns) == 0 {
			return fmt.Errorf("block %d has no columns", bi)
		}
		for ci, c := range b.Columns {
			if len(c.Events) == 0 {
				return fmt.Errorf("block %d column %d is empty", bi, ci)
			}
			for i := 1; i < len(c.Events); i++ {
				prev, e := c.Events[i-1], c.Events[i]
				if e.Start < prev.End {
					return fmt.Errorf("block %d column %d: event at %g starts before previous ends at %g", bi, ci, e.Start, prev.End)
				}
			}
		}
		if bi > 0 && b.Start() < blocks[bi-1].End() {
			return fmt.Errorf("block %d starts at %g before block %d ends at %g", bi, b.Start(), bi-1, blocks[bi-1].End())
		}
	}
	return nil
}

func verifyPlacements(r Result) error {
	total := 0
	for _, b := range r.Blocks {
		total += b.Len()
	}
	if len(r.Placements) != total {
		return fmt.Errorf("%d placements for %d blocked events", len(r.Placements), total)
	}

	for i, p := range r.Placements {
		if p.Block < 0 || p.Block >= len(r.Blocks) {
			return fmt.Errorf("placement %d references block %d", i, p.Block)
		}
		want := r.Blocks[p.Block].Width()
		if math.Abs(p.Width-want) > Epsilon {
			return fmt.Errorf("placement %d width %g, block width %g", i, p.Width, want)
		}
		if math.Abs(p.Offset-float64(p.Column)*want) > Epsilon {
			return fmt.Errorf("placement %d offset %g for column %d", i, p.Offset, p.Column)
		}
		if p.Offset < 0 || p.Width <= 0 || p.Offset+p.Width > FullWidth+Epsilon {
			return fmt.Errorf("placement %d outside frame: offset %g width %g", i, p.Offset, p.Width)
		}
	}

	for i := range r.Placements {
		for j := i + 1; j < len(r.Placements); j++ {
			a, b := r.Placements[i], r.Placements[j]
			if !a.Event.Overlaps(b.Event) {
				continue
			}
			if a.Offset < b.Offset+b.Width-Epsilon && b.Offset < a.Offset+a.Width-Epsilon {
				return fmt.Errorf("placements %d and %d overlap in time and space", i, j)
			}
		}
	}
	return nil
}
