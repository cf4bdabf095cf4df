package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/brawl-replay/internal/vec"
)

func newColt(t *testing.T) *Brawler {
	t.Helper()
	b, err := NewBrawler(ClassColt, vec.Zero3, vec.Identity)
	require.NoError(t, err)
	return b
}

func TestNewBrawler(t *testing.T) {
	b := newColt(t)
	assert.Equal(t, InitialHealth, b.Health())
	assert.InDelta(t, 0.1, b.HealthProgress(), 1e-9)
	assert.Equal(t, "regenerating", b.HPState())
	assert.Equal(t, "ready", b.PAState())
	assert.Equal(t, 1.0, b.PAProgress())

	_, err := NewBrawler("shelly", vec.Zero3, vec.Identity)
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestHealthClamp(t *testing.T) {
	b := newColt(t)
	b.SetHealth(500)
	assert.Equal(t, MaxHealth, b.Health())
	b.SetHealth(-5)
	assert.Equal(t, 0.0, b.Health())
	assert.True(t, b.Dead())
}

func TestHPStateMachine(t *testing.T) {
	t.Run("Регенерация 13% в секунду", func(t *testing.T) {
		b := newColt(t)
		b.Update(1)
		assert.InDelta(t, InitialHealth+13, b.Health(), 1e-9)
	})

	t.Run("Урон включает паузу регенерации", func(t *testing.T) {
		b := newColt(t)
		b.TakeDamage(5)
		assert.Equal(t, "cooldown", b.HPState())

		b.Update(2)
		assert.InDelta(t, 5.0, b.Health(), 1e-9, "Во время паузы здоровье не растёт")

		b.TakeDamage(1)
		b.Update(2)
		assert.Equal(t, "cooldown", b.HPState(), "Повторный урон перезапускает таймер")

		b.Update(1)
		assert.Equal(t, "regenerating", b.HPState())
	})

	t.Run("Смерть отключает атаку", func(t *testing.T) {
		b := newColt(t)
		var died int
		b.onDied = func(*Brawler) { died++ }
		b.TakeDamage(100)
		assert.Equal(t, "dead", b.HPState())
		assert.Equal(t, "disabled", b.PAState())
		assert.Equal(t, 1, died)
		assert.False(t, b.RequestAttack())

		b.TakeDamage(1)
		assert.Equal(t, 1, died, "Повторная смерть не объявляется")
	})
}

func TestPAStateMachine(t *testing.T) {
	b := newColt(t)
	require.True(t, b.RequestAttack())
	assert.Equal(t, "cooldown", b.PAState())
	assert.Equal(t, 0.0, b.PAProgress())
	assert.False(t, b.RequestAttack(), "Атака на перезарядке")

	b.Update(0.1)
	assert.InDelta(t, 0.5, b.PAProgress(), 1e-9)

	b.TakeDamage(1)
	assert.Equal(t, "cooldown", b.PAState(), "Урон не влияет на перезарядку")

	b.Update(0.1)
	assert.Equal(t, "ready", b.PAState())
	assert.Equal(t, 1.0, b.PAProgress())
}

func TestRespawn(t *testing.T) {
	b := newColt(t)
	b.TakeDamage(5)
	b.RequestAttack()
	b.Respawn(vec.Vec3{X: 2}, vec.YawQuat(90))

	assert.Equal(t, InitialHealth, b.Health())
	assert.Equal(t, vec.Vec3{X: 2}, b.Position)
	assert.Equal(t, "regenerating", b.HPState())
	assert.Equal(t, "ready", b.PAState())
}

func TestDamageStrategies(t *testing.T) {
	target := vec.Zero3
	near := vec.Vec3{X: 1}
	far := vec.Vec3{X: 10}
	mid := vec.Vec3{X: 5}

	assert.Equal(t, 4.0, StandardDamage{}.CalculateDamage(4, far, target))

	crit := NewCriticalDamage()
	assert.Equal(t, 8.0, crit.CalculateDamage(4, near, target))
	assert.Equal(t, 4.0, crit.CalculateDamage(4, far, target))

	dist := NewDistanceBasedDamage()
	assert.InDelta(t, 4.0, dist.CalculateDamage(4, target, target), 1e-9)
	assert.InDelta(t, 3.0, dist.CalculateDamage(4, mid, target), 1e-9)
	assert.InDelta(t, 2.0, dist.CalculateDamage(4, far, target), 1e-9)
	assert.InDelta(t, 2.0, dist.CalculateDamage(4, vec.Vec3{X: 50}, target), 1e-9)
}

func TestMovementStrategies(t *testing.T) {
	t.Run("NoMovement", func(t *testing.T) {
		b := newColt(t)
		NoMovement{}.Execute(b, 1)
		assert.Equal(t, vec.Zero3, b.Position)
	})

	t.Run("Rotational", func(t *testing.T) {
		b := newColt(t)
		NewRotationalMovement().Execute(b, 0.5)
		assert.InDelta(t, 90.0, b.Rotation.Yaw(), 1e-6)
	})

	t.Run("Input", func(t *testing.T) {
		b := newColt(t)
		in := &InputMovement{Direction: vec.Vec2Float{X: 1}}
		in.Execute(b, 1)
		assert.InDelta(t, b.Stats.MoveSpeed, b.Position.X, 1e-9)
		assert.InDelta(t, 90.0, b.Rotation.Yaw(), 1e-6)

		in.Direction = vec.Vec2Float{X: 0.05}
		before := b.Position
		in.Execute(b, 1)
		assert.Equal(t, before, b.Position, "Малый ввод игнорируется")
	})

	t.Run("Follow", func(t *testing.T) {
		leader := newColt(t)
		leader.Position = vec.Vec3{Z: 10}
		follower := newColt(t)

		f := NewFollowMovement(leader)
		for i := 0; i < 100; i++ {
			f.Execute(follower, 0.1)
		}
		goal := vec.Vec3{Z: 8}
		assert.LessOrEqual(t, follower.Position.DistanceTo(goal), f.StopThreshold)
		assert.Equal(t, leader.Rotation, follower.Rotation)
	})
}

func TestAutomatedAttack(t *testing.T) {
	a := NewAutomatedAttack()
	assert.True(t, a.CanExecute())
	a.ResetCooldown()
	assert.False(t, a.CanExecute())
	a.Execute(0.6)
	assert.False(t, a.CanExecute())
	a.Execute(0.6)
	assert.True(t, a.CanExecute())
}
