package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPointsForGraceWindow(t *testing.T) {
	for _, elapsed := range []time.Duration{0, 50 * time.Millisecond, 499 * time.Millisecond, 500 * time.Millisecond} {
		assert.Equal(t, MaxPoints, PointsFor(elapsed), "elapsed=%s", elapsed)
	}
}

func TestPointsForFloor(t *testing.T) {
	for _, elapsed := range []time.Duration{10 * time.Second, 11 * time.Second, time.Minute, time.Hour} {
		assert.Equal(t, MinPoints, PointsFor(elapsed), "elapsed=%s", elapsed)
	}
}

func TestPointsForDecay(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{name: "just past grace", elapsed: 501 * time.Millisecond, want: 999},
		{name: "midpoint of decay window", elapsed: 5250 * time.Millisecond, want: 750},
		{name: "late answer", elapsed: 9500 * time.Millisecond, want: 526},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointsFor(tt.elapsed))
		})
	}
}

func TestPointsForMonotonicallyNonIncreasing(t *testing.T) {
	prev := PointsFor(0)
	for ms := int64(1); ms <= 11000; ms += 7 {
		got := PointsFor(time.Duration(ms) * time.Millisecond)
		if got > prev {
			t.Fatalf("points increased from %d to %d at %dms", prev, got, ms)
		}
		prev = got
	}
}
