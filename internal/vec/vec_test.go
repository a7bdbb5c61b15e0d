package vec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3ChunkCoords(t *testing.T) {
	assert.Equal(t, Vec2{X: 0, Y: 0}, Vec3{X: 15, Y: 100, Z: 0}.ChunkCoords())
	assert.Equal(t, Vec2{X: -1, Y: 1}, Vec3{X: -1, Y: 0, Z: 16}.ChunkCoords(), "отрицательные координаты должны округляться вниз")

	x, z := LocalInChunk(Vec3{X: -1, Y: 5, Z: 17})
	assert.Equal(t, 15, x)
	assert.Equal(t, 1, z)
}

func TestSet(t *testing.T) {
	s := NewSet(4)
	assert.True(t, s.Add(Vec3{X: 1}))
	assert.False(t, s.Add(Vec3{X: 1}), "повторная вставка должна вернуть false")
	assert.True(t, s.Contains(Vec3{X: 1}))
	assert.False(t, s.Contains(Vec3{Y: 1}))
	assert.Equal(t, 1, s.Len())
}

func TestFindClosest(t *testing.T) {
	d, ok := FindClosest(Vec3Float{X: 0.9, Z: -0.1}, Cardinal)
	require.True(t, ok)
	assert.Equal(t, East, d)

	d, ok = FindClosest(Vec3Float{X: 1, Z: -1}, Cardinal|Ordinal)
	require.True(t, ok)
	assert.Equal(t, Northeast, d)

	_, ok = FindClosest(Vec3Float{}, AllDirections)
	assert.False(t, ok, "для нулевого вектора направление не определено")

	d, ok = FindClosest(Vec3Float{Y: 1}, Upright)
	require.True(t, ok)
	assert.Equal(t, Up, d)
}

func TestRotationMapping(t *testing.T) {
	for rot := 0; rot < 16; rot++ {
		d, ok := FromRotation(rot)
		require.True(t, ok)
		assert.Equal(t, rot, ToRotation(d))
	}
	_, ok := FromRotation(16)
	assert.False(t, ok)
	assert.Equal(t, -1, ToRotation(Up))
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("North")
	require.True(t, ok)
	assert.Equal(t, North, d)
	assert.Equal(t, "north", d.String())

	_, ok = ParseDirection("sideways")
	assert.False(t, ok)
}

func TestAffineRotateYQuarterTurn(t *testing.T) {
	tr := Identity().RotateY(90)
	got := tr.Apply(Vec3Float{X: 1})
	assert.Equal(t, Vec3Float{X: 0, Y: 0, Z: 1}, got)

	inv, ok := tr.Inverse()
	require.True(t, ok)
	assert.Equal(t, Vec3Float{X: 1}, inv.Apply(got))
}

func TestAffineInverseGeneral(t *testing.T) {
	tr := Identity().RotateY(30).Scale(2, 1, -1).Translate(5, -3, 7)
	inv, ok := tr.Inverse()
	require.True(t, ok)

	p := Vec3Float{X: 3, Y: -2, Z: 11}
	back := inv.Apply(tr.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
	assert.InDelta(t, p.Z, back.Z, 1e-9)

	_, ok = Identity().Scale(0, 1, 1).Inverse()
	assert.False(t, ok, "вырожденная матрица не обратима")
}

func TestAffineCombineOrder(t *testing.T) {
	// сначала перенос, затем поворот
	tr := Identity().Translate(1, 0, 0).RotateY(90)
	got := tr.Apply(Vec3Float{})
	assert.Equal(t, Vec3Float{Z: 1}, got)

	dir := tr.ApplyDirection(Vec3Float{X: 1})
	assert.InDelta(t, 0, dir.X, 1e-12)
	assert.InDelta(t, 1, dir.Z, 1e-12)
	assert.True(t, Identity().IsIdentity())
	assert.False(t, tr.IsIdentity())
}

func TestNormalizedZero(t *testing.T) {
	n := Vec3Float{}.Normalized()
	assert.False(t, math.IsNaN(n.X))
	assert.Equal(t, Vec3Float{}, n)
}
