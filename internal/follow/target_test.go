package follow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

func TestTargetVariants(t *testing.T) {
	none := NoTarget()
	assert.True(t, none.IsNone())
	_, ok := none.Position()
	assert.False(t, ok)
	assert.Equal(t, "none", none.Kind().String())

	point := PointTarget("flag", geom.Vec3{X: 1, Z: 2})
	pos, ok := point.Position()
	assert.True(t, ok)
	assert.Equal(t, geom.Vec3{X: 1, Z: 2}, pos)
	_, ok = point.GazePoint()
	assert.False(t, ok)
	assert.Equal(t, "flag", point.Label())

	player := &fakeEntity{id: "p1", name: "Ada", position: geom.Vec3{X: 3}, gaze: geom.Vec3{X: 3, Y: 1.2}, hasGaze: true}
	entity := EntityTarget(player)
	assert.Equal(t, TargetEntity, entity.Kind())
	gaze, ok := entity.GazePoint()
	assert.True(t, ok)
	assert.Equal(t, geom.Vec3{X: 3, Y: 1.2}, gaze)
	assert.Equal(t, "Ada", entity.Label())

	assert.True(t, EntityTarget(nil).IsNone())
}

func TestTargetSame(t *testing.T) {
	a := PointTarget("flag", geom.Vec3{X: 1})
	assert.True(t, a.Same(PointTarget("flag", geom.Vec3{X: 1})))
	assert.False(t, a.Same(PointTarget("flag", geom.Vec3{X: 2})))
	assert.False(t, a.Same(NoTarget()))
	assert.True(t, NoTarget().Same(Target{}))

	player := &fakeEntity{id: "p1"}
	assert.True(t, EntityTarget(player).Same(EntityTarget(&fakeEntity{id: "p1"})))
}

func TestEyePosition(t *testing.T) {
	eye := EyePosition(geom.Vec3{X: 1, Y: 2, Z: 2}, 1)
	assert.Equal(t, 1.0, eye.X)
	assert.Equal(t, 2.0, eye.Z)
	assert.InDelta(t, 1.6, eye.Y, 1e-12)
	assert.InDelta(t, 1.2, EyePosition(geom.Vec3{Y: 2}, 2).Y, 1e-12)
	assert.InDelta(t, 1.6, EyePosition(geom.Vec3{Y: 2}, 0).Y, 1e-12)
}
