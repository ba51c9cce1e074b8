package scoring

import "time"

const (
	// MaxPoints is awarded for any answer inside the grace window.
	MaxPoints = 1000
	// MinPoints is the floor once the decay window has fully elapsed.
	MinPoints = 500

	// GracePeriod is the window during which no decay applies.
	GracePeriod = 500 * time.Millisecond
	// DecayEnd is the elapsed time at which points bottom out.
	DecayEnd = 10 * time.Second
)

// PointsFor maps elapsed wall-clock time to a point value using piecewise
// linear decay: full points through the grace window, the floor past the
// decay end, linear interpolation (rounded down) in between.
func PointsFor(elapsed time.Duration) int {
	ms := elapsed.Milliseconds()
	graceMs := GracePeriod.Milliseconds()
	endMs := DecayEnd.Milliseconds()

	if ms <= graceMs {
		return MaxPoints
	}
	if ms >= endMs {
		return MinPoints
	}

	// floor(MaxPoints - span*(ms-grace)/window), computed in integer math so
	// the rounding matches what the verifier awards.
	span := int64(MaxPoints - MinPoints)
	window := endMs - graceMs
	return int((int64(MaxPoints)*window - span*(ms-graceMs)) / window)
}
