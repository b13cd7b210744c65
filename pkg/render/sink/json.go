package sink

import "github.com/matzehuels/dayview/pkg/schedule"

// RenderJSON writes the layout document produced by [schedule.MarshalLayout].
func RenderJSON(l schedule.Layout) ([]byte, error) {
	data, err := schedule.MarshalLayout(l)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
