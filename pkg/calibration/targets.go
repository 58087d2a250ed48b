// Package calibration walks the user through a fixed grid of on-screen
// targets and feeds each confirmed look to the gaze oracle as training.
package calibration

import "seehuhn.de/go/geom/vec"

// ConfirmationsPerPoint is how many confirmations each target needs.
const ConfirmationsPerPoint = 5

// gridFractions places targets near the edges and the middle of the screen.
var gridFractions = [3]float64{0.1, 0.5, 0.9}

// Targets returns the nine calibration targets for a viewport, row by row
// from the top left.
func Targets(width, height float64) []vec.Vec2 {
	pts := make([]vec.Vec2, 0, len(gridFractions)*len(gridFractions))
	for _, fy := range gridFractions {
		for _, fx := range gridFractions {
			pts = append(pts, vec.Vec2{X: width * fx, Y: height * fy})
		}
	}
	return pts
}

// TotalConfirmations is the number of confirmations for a full sequence.
func TotalConfirmations() int {
	return len(gridFractions) * len(gridFractions) * ConfirmationsPerPoint
}
