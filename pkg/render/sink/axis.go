package sink

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/matzehuels/dayview/pkg/schedule"
)

// num formats v the shortest way that round-trips, as the HTML markup
// expects ("33.333333333333336", "50", "0").
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ClockLabel renders an axis position as a wall-clock time when the axis
// counts minutes from an "HH:MM" origin, and as a plain number otherwise.
func ClockLabel(axis schedule.Axis, v float64) string {
	if axis.Unit != "minutes" {
		return num(v)
	}
	origin, err := time.Parse("15:04", axis.Origin)
	if err != nil {
		return num(v)
	}
	t := origin.Add(time.Duration(math.Round(v)) * time.Minute)
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// tickStep picks the spacing of axis ticks: hourly for minute axes, and
// roughly twelve ticks otherwise.
func tickStep(axis schedule.Axis) float64 {
	if axis.Unit == "minutes" {
		return 60
	}
	if axis.Span <= 0 {
		return 1
	}
	step := math.Pow(10, math.Floor(math.Log10(axis.Span/12)))
	return max(step, 1e-9)
}

// palette colors placements by column.
var palette = []string{"#4e79a7", "#f28e2b", "#59a14f", "#e15759", "#76b7b2", "#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac"}

func colorFor(column int) string {
	return palette[column%len(palette)]
}
