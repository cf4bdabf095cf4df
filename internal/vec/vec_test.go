package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3(t *testing.T) {
	a := Vec3{X: 1, Y: 0, Z: 0}
	b := Vec3{X: 4, Y: 0, Z: 4}

	assert.InDelta(t, 5.0, a.DistanceTo(b), 1e-9)
	assert.True(t, a.Add(b).Equals(Vec3{X: 5, Z: 4}))
	assert.InDelta(t, 1.0, b.Normalized().Length(), 1e-9)
	assert.Equal(t, Vec3{}, Zero3.Normalized(), "Нулевой вектор остаётся нулевым")

	t.Run("MoveTowards", func(t *testing.T) {
		moved := a.MoveTowards(b, 1)
		assert.InDelta(t, 1.0, a.DistanceTo(moved), 1e-9)
		assert.Equal(t, b, a.MoveTowards(b, 100), "Дальний шаг приводит точно в цель")
	})
}

func TestQuat(t *testing.T) {
	q := YawQuat(90)
	assert.InDelta(t, 90.0, q.Yaw(), 1e-6)

	fwd := q.Forward()
	assert.True(t, fwd.ApproxEquals(Vec3{X: 1}, 1e-9), "Поворот на 90° смотрит вдоль +X")

	composed := YawQuat(45).Mul(YawQuat(45))
	assert.InDelta(t, 90.0, composed.Yaw(), 1e-6)

	assert.Equal(t, Identity, LookRotation(Vec3{}))
	assert.InDelta(t, -90.0, LookRotation(Vec3{X: -1}).Yaw(), 1e-6)
}
