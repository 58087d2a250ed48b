package pacing

// Threshold defaults, as fractions of screen width. Retreating is harder
// than advancing so that stray leftward saccades rarely move the cursor back.
const (
	DefaultAdvanceThreshold = 0.08
	DefaultRetreatThreshold = 0.15

	stickiestThreshold = 0.15 // sensitivity 1
	quickestThreshold  = 0.03 // sensitivity 10
)

// ThresholdForSensitivity maps a 1..10 sensitivity control onto an advance
// threshold from 0.15 (sticky) down to 0.03 (quick). Out-of-range levels
// are clamped.
func ThresholdForSensitivity(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > 10 {
		level = 10
	}
	step := (stickiestThreshold - quickestThreshold) / 9
	return stickiestThreshold - float64(level-1)*step
}

// SensitivityLabel returns the display name for a sensitivity level.
func SensitivityLabel(level int) string {
	labels := [...]string{"Very Sticky", "Sticky", "Sticky", "Medium-Sticky", "Medium",
		"Medium", "Responsive", "Responsive", "Quick", "Very Quick"}
	if level < 1 || level > 10 {
		return ""
	}
	return labels[level-1]
}
