package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPoint(t *testing.T) {
	p := ClampPoint(Point{X: -0.5, Y: 1.5})
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 1.0, p.Y)

	p = ClampPoint(Point{X: 0.3, Y: 0.7})
	assert.Equal(t, 0.3, p.X)
	assert.Equal(t, 0.7, p.Y)
}

func TestResolveNoCollision(t *testing.T) {
	occupied := []Point{{X: 0.1, Y: 0.1}}
	got := Resolve(occupied, Point{X: 0.5, Y: 0.5})
	assert.Equal(t, Point{X: 0.5, Y: 0.5}, got)
}

func TestResolveBumpsOffOccupied(t *testing.T) {
	occupied := []Point{{X: 0.5, Y: 0.5}}
	got := Resolve(occupied, Point{X: 0.5, Y: 0.5})

	assert.NotEqual(t, Point{X: 0.5, Y: 0.5}, got)
	assert.InDelta(t, 0.5+BumpStep, got.X, 1e-9)
	assert.InDelta(t, 0.5+BumpStep, got.Y, 1e-9)
}

func TestResolveDeterministic(t *testing.T) {
	occupied := []Point{{X: 0.5, Y: 0.5}, {X: 0.52, Y: 0.52}}
	a := Resolve(occupied, Point{X: 0.5, Y: 0.5})
	b := Resolve(occupied, Point{X: 0.5, Y: 0.5})
	assert.Equal(t, a, b)
}

func TestResolveWrapsAtEdge(t *testing.T) {
	occupied := []Point{{X: 1.0, Y: 1.0}}
	got := Resolve(occupied, Point{X: 1.0, Y: 1.0})

	// Bumping past 1.0 wraps around instead of clamping into the corner.
	assert.Less(t, got.X, 1.0)
	assert.Less(t, got.Y, 1.0)
}

func TestResolveGroupKeepsOffsets(t *testing.T) {
	occupied := []Point{{X: 0.5, Y: 0.5}}
	wants := []Point{{X: 0.5, Y: 0.5}, {X: 0.6, Y: 0.5}}
	got := ResolveGroup(occupied, wants)

	assert.Len(t, got, 2)
	// The relative offset between group members is preserved.
	assert.InDelta(t, 0.1, got[1].X-got[0].X, 1e-9)
	assert.InDelta(t, 0.0, got[1].Y-got[0].Y, 1e-9)
	// The group shifted off the occupied point.
	assert.NotEqual(t, Point{X: 0.5, Y: 0.5}, got[0])
}

func TestResolveGroupEmpty(t *testing.T) {
	assert.Nil(t, ResolveGroup(nil, nil))
}
