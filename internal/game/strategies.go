package game

import (
	"math"

	"github.com/annel0/brawl-replay/internal/vec"
)

// DamageStrategy вычисляет итоговый урон выстрела
type DamageStrategy interface {
	CalculateDamage(base float64, shot, target vec.Vec3) float64
}

// StandardDamage урон без модификаторов
type StandardDamage struct{}

func (StandardDamage) CalculateDamage(base float64, _, _ vec.Vec3) float64 {
	return base
}

// CriticalDamage умножает урон на близкой дистанции
type CriticalDamage struct {
	Range      float64
	Multiplier float64
}

// NewCriticalDamage range 2, множитель 2
func NewCriticalDamage() CriticalDamage {
	return CriticalDamage{Range: 2, Multiplier: 2}
}

func (c CriticalDamage) CalculateDamage(base float64, shot, target vec.Vec3) float64 {
	if shot.DistanceTo(target) <= c.Range {
		return base * c.Multiplier
	}
	return base
}

// DistanceBasedDamage линейно ослабляет урон до MinMultiplier на MaxRange
type DistanceBasedDamage struct {
	MaxRange      float64
	MinMultiplier float64
}

// NewDistanceBasedDamage maxRange 10, минимальный множитель 0.5
func NewDistanceBasedDamage() DistanceBasedDamage {
	return DistanceBasedDamage{MaxRange: 10, MinMultiplier: 0.5}
}

func (d DistanceBasedDamage) CalculateDamage(base float64, shot, target vec.Vec3) float64 {
	t := clamp01(shot.DistanceTo(target) / d.MaxRange)
	multiplier := 1 + (d.MinMultiplier-1)*t
	return base * multiplier
}

// MovementStrategy двигает бойца за тик
type MovementStrategy interface {
	Execute(b *Brawler, dt float64)
}

// NoMovement боец стоит на месте
type NoMovement struct{}

func (NoMovement) Execute(*Brawler, float64) {}

// RotationalMovement непрерывное вращение вокруг Y
type RotationalMovement struct {
	DegreesPerSecond float64
}

// NewRotationalMovement 180 градусов в секунду
func NewRotationalMovement() RotationalMovement {
	return RotationalMovement{DegreesPerSecond: 180}
}

func (r RotationalMovement) Execute(b *Brawler, dt float64) {
	b.Rotation = b.Rotation.Mul(vec.YawQuat(r.DegreesPerSecond * dt)).Normalized()
}

// FollowMovement следует за целью, держась позади неё
type FollowMovement struct {
	Target        *Brawler
	Distance      float64
	StopThreshold float64
}

// NewFollowMovement дистанция 2, порог остановки 0.5
func NewFollowMovement(target *Brawler) *FollowMovement {
	return &FollowMovement{Target: target, Distance: 2, StopThreshold: 0.5}
}

func (f *FollowMovement) Execute(b *Brawler, dt float64) {
	if f.Target == nil || f.Target.Dead() {
		return
	}
	goal := f.Target.Position.Sub(f.Target.Rotation.Forward().Mul(f.Distance))
	if b.Position.DistanceTo(goal) > f.StopThreshold {
		dir := goal.Sub(b.Position).Normalized()
		applyMovement(b, vec.Vec2Float{X: dir.X, Y: dir.Z}, dt)
		return
	}
	b.Rotation = f.Target.Rotation
}

// InputMovement движение по направлению ввода игрока
type InputMovement struct {
	Direction vec.Vec2Float
}

func (in *InputMovement) Execute(b *Brawler, dt float64) {
	applyMovement(b, in.Direction, dt)
}

// applyMovement сдвигает бойца по направлению и поворачивает к нему
func applyMovement(b *Brawler, dir vec.Vec2Float, dt float64) {
	if dir.X*dir.X+dir.Y*dir.Y <= 0.01 {
		return
	}
	movement := dir.ToXZ()
	b.Position = b.Position.Add(movement.Mul(b.Stats.MoveSpeed * dt))

	current := b.Rotation.Yaw()
	target := vec.LookRotation(movement).Yaw()
	b.Rotation = vec.YawQuat(moveTowardsAngle(current, target, b.Stats.RotationSpeed*dt))
}

// moveTowardsAngle поворачивает угол current к target не более чем на maxDelta градусов
func moveTowardsAngle(current, target, maxDelta float64) float64 {
	delta := math.Mod(target-current+540, 360) - 180
	if math.Abs(delta) <= maxDelta {
		return target
	}
	if delta > 0 {
		return current + maxDelta
	}
	return current - maxDelta
}

// AutomatedAttack атакует с фиксированным интервалом
type AutomatedAttack struct {
	Interval float64
	cooldown float64
}

// NewAutomatedAttack интервал 1 секунда
func NewAutomatedAttack() *AutomatedAttack {
	return &AutomatedAttack{Interval: 1}
}

// CanExecute true когда интервал истёк
func (a *AutomatedAttack) CanExecute() bool {
	return a.cooldown <= 0
}

// Execute отсчитывает интервал
func (a *AutomatedAttack) Execute(dt float64) {
	a.cooldown -= dt
	if a.cooldown < 0 {
		a.cooldown = 0
	}
}

// ResetCooldown запускает интервал заново
func (a *AutomatedAttack) ResetCooldown() {
	a.cooldown = a.Interval
}
