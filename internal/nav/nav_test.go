package nav

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

func openGrid(t *testing.T) *Grid {
	t.Helper()
	grid, err := NewGrid(GridConfig{Name: "open", Width: 10, Depth: 10, SurfaceY: 1})
	require.NoError(t, err)
	return grid
}

// wallGrid builds a 10x10 area split by a wall along x=5 with a gap at the
// far end of the z axis.
func wallGrid(t *testing.T) *Grid {
	t.Helper()
	grid, err := NewGrid(GridConfig{
		Name:     "wall",
		Width:    10,
		Depth:    10,
		CellSize: 1,
		Obstacles: []Obstacle{
			{ID: "wall", X: 4.6, Z: 0, Width: 0.8, Depth: 8},
		},
	})
	require.NoError(t, err)
	return grid
}

func TestNewGridRejectsEmptyArea(t *testing.T) {
	_, err := NewGrid(GridConfig{Name: "bad", Width: 0, Depth: 4})
	assert.Error(t, err)
}

func TestNearestPointInsideWalkableCell(t *testing.T) {
	grid := openGrid(t)

	point, ok := grid.NearestPoint(geom.Vec3{X: 3.2, Y: 9, Z: 4.7}, 2)

	require.True(t, ok)
	assert.Equal(t, geom.Vec3{X: 3.2, Y: 1, Z: 4.7}, point)
}

func TestNearestPointProjectsFromOutside(t *testing.T) {
	grid := openGrid(t)

	point, ok := grid.NearestPoint(geom.Vec3{X: 11, Z: 5}, 2)

	require.True(t, ok)
	assert.InDelta(t, 10, point.X, 1e-6)
	assert.InDelta(t, 5, point.Z, 1e-6)
}

func TestNearestPointOutOfRange(t *testing.T) {
	grid := openGrid(t)

	_, ok := grid.NearestPoint(geom.Vec3{X: 30, Z: 5}, 2)

	assert.False(t, ok)
}

func TestNearestPointAvoidsObstacle(t *testing.T) {
	grid := wallGrid(t)

	point, ok := grid.NearestPoint(geom.Vec3{X: 5, Z: 3}, 2)

	require.True(t, ok)
	assert.False(t, point.X > 4 && point.X < 6, "expected projection off the wall, got %+v", point)
	assert.InDelta(t, 1, math.Abs(point.X-5), 1e-6)
}

func TestNearestPointIsPathableBesideObstacle(t *testing.T) {
	grid, err := NewGrid(GridConfig{
		Name:  "pillar",
		Width: 10,
		Depth: 10,
		Obstacles: []Obstacle{
			{ID: "pillar", X: 5, Z: 2, Width: 1, Depth: 5},
		},
	})
	require.NoError(t, err)

	cases := []struct {
		name   string
		from   geom.Vec3
		target geom.Vec3
	}{
		{"low x side", geom.Vec3{X: 1, Z: 5.5}, geom.Vec3{X: 5.2, Z: 5.5}},
		{"high x side", geom.Vec3{X: 9, Z: 5.5}, geom.Vec3{X: 5.8, Z: 5.5}},
		{"low z side", geom.Vec3{X: 5.5, Z: 0.5}, geom.Vec3{X: 5.5, Z: 2.2}},
		{"high z side", geom.Vec3{X: 5.5, Z: 9}, geom.Vec3{X: 5.5, Z: 6.8}},
		{"across the pillar", geom.Vec3{X: 1, Z: 5.5}, geom.Vec3{X: 5.8, Z: 5.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			point, ok := grid.NearestPoint(tc.target, 2)
			require.True(t, ok)
			col, row := int(point.X), int(point.Z)
			assert.True(t, grid.Walkable(col, row), "nearest point %+v lies in blocked cell %d,%d", point, col, row)

			path, ok := grid.Path(tc.from, point)
			require.True(t, ok, "no path to nearest point %+v", point)
			assert.Equal(t, point, path[len(path)-1])
		})
	}
}

func TestPathStraightLine(t *testing.T) {
	grid := openGrid(t)
	goal := geom.Vec3{X: 8.5, Z: 1.5}

	path, ok := grid.Path(geom.Vec3{X: 1.5, Z: 1.5}, goal)

	require.True(t, ok)
	require.Len(t, path, 7)
	assert.Equal(t, geom.Vec3{X: 8.5, Y: 1, Z: 1.5}, path[len(path)-1])
	for _, waypoint := range path {
		assert.InDelta(t, 1.5, waypoint.Z, 1e-9)
	}
}

func TestPathSameCell(t *testing.T) {
	grid := openGrid(t)

	path, ok := grid.Path(geom.Vec3{X: 2.2, Z: 2.2}, geom.Vec3{X: 2.8, Z: 2.7})

	require.True(t, ok)
	assert.Equal(t, []geom.Vec3{{X: 2.8, Y: 1, Z: 2.7}}, path)
}

func TestPathRoutesAroundWall(t *testing.T) {
	grid := wallGrid(t)

	path, ok := grid.Path(geom.Vec3{X: 2.5, Z: 2.5}, geom.Vec3{X: 7.5, Z: 2.5})

	require.True(t, ok)
	deepest := 0.0
	for _, waypoint := range path {
		deepest = math.Max(deepest, waypoint.Z)
		assert.False(t, waypoint.X > 4 && waypoint.X < 6 && waypoint.Z < 8, "waypoint %+v crosses the wall", waypoint)
	}
	assert.Greater(t, deepest, 8.0)
}

func TestPathUnreachableGoal(t *testing.T) {
	grid, err := NewGrid(GridConfig{
		Name:  "sealed",
		Width: 10,
		Depth: 10,
		Obstacles: []Obstacle{
			{ID: "wall", X: 4.6, Z: 0, Width: 0.8, Depth: 10},
		},
	})
	require.NoError(t, err)

	_, ok := grid.Path(geom.Vec3{X: 2.5, Z: 2.5}, geom.Vec3{X: 7.5, Z: 2.5})
	assert.False(t, ok)

	_, ok = grid.Path(geom.Vec3{X: 2.5, Z: 2.5}, geom.Vec3{X: 50, Z: 2.5})
	assert.False(t, ok)
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()
	grid := openGrid(t)
	require.NoError(t, registry.Register("open", grid))
	assert.Error(t, registry.Register("  ", grid))
	assert.Error(t, registry.Register("nil", nil))

	mesh, err := registry.Lookup(context.Background(), " open ")
	require.NoError(t, err)
	assert.Same(t, grid, mesh)

	_, err = registry.Lookup(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrProfileNotFound))
	assert.Contains(t, err.Error(), "registered: open")

	assert.Equal(t, []string{"open"}, registry.Names())
}

func TestRegistryLookupHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRegistry().Lookup(ctx, "open")

	assert.ErrorIs(t, err, context.Canceled)
}
