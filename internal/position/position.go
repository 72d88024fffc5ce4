// Package position does normalized-coordinate math for battlefield card
// placement. Coordinates are fractions of the battlefield surface in [0,1]
// so every client renders the same layout regardless of viewport size.
package position

import "math"

const (
	// BumpStep is the offset applied per collision-resolution attempt.
	BumpStep = 0.02

	// CollisionRadius is how close two cards may sit before they are
	// considered stacked.
	CollisionRadius = 0.01

	// MaxAttempts bounds the bump-until-free search. When exhausted the
	// last candidate is used; overlapping beats looping forever.
	MaxAttempts = 200
)

// Point is a normalized battlefield position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp constrains v to [0,1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampPoint constrains both coordinates to [0,1].
func ClampPoint(p Point) Point {
	return Point{X: Clamp(p.X), Y: Clamp(p.Y)}
}

func collides(a, b Point) bool {
	return math.Abs(a.X-b.X) < CollisionRadius && math.Abs(a.Y-b.Y) < CollisionRadius
}

func anyCollision(occupied []Point, p Point) bool {
	for _, o := range occupied {
		if collides(o, p) {
			return true
		}
	}
	return false
}

// Resolve returns a free position at or near want, bumping diagonally by
// BumpStep per attempt and wrapping at the battlefield edge. The search is
// deterministic so all replicas agree on placement.
func Resolve(occupied []Point, want Point) Point {
	candidate := ClampPoint(want)
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if !anyCollision(occupied, candidate) {
			return candidate
		}
		candidate.X += BumpStep
		candidate.Y += BumpStep
		if candidate.X > 1 {
			candidate.X = candidate.X - 1
		}
		if candidate.Y > 1 {
			candidate.Y = candidate.Y - 1
		}
	}
	return candidate
}

// ResolveGroup places a set of cards keeping their relative offsets intact:
// the whole group shifts by the same delta until no member collides with an
// occupied position. Members do not collide with each other by definition.
func ResolveGroup(occupied []Point, wants []Point) []Point {
	if len(wants) == 0 {
		return nil
	}
	dx, dy := 0.0, 0.0
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		clear := true
		for _, w := range wants {
			if anyCollision(occupied, ClampPoint(Point{X: w.X + dx, Y: w.Y + dy})) {
				clear = false
				break
			}
		}
		if clear {
			break
		}
		dx += BumpStep
		dy += BumpStep
	}
	out := make([]Point, len(wants))
	for i, w := range wants {
		out[i] = ClampPoint(Point{X: w.X + dx, Y: w.Y + dy})
	}
	return out
}
