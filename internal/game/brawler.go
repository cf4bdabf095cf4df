package game

import (
	"fmt"

	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/vec"
)

const (
	// MaxHealth максимальное здоровье бойца
	MaxHealth = 100.0
	// HealthRegenPercent доля MaxHealth, восстанавливаемая за секунду
	HealthRegenPercent = 0.13
	// InitialHealth здоровье при создании
	InitialHealth = 10.0
)

// Class класс бойца
type Class string

const (
	ClassColt    Class = "colt"
	ClassElPrimo Class = "elprimo"
)

// ClassStats характеристики класса
type ClassStats struct {
	MoveSpeed     float64 // единиц в секунду
	RotationSpeed float64 // градусов в секунду
	AttackDamage  float64
	AttackRange   float64
}

var classStats = map[Class]ClassStats{
	ClassColt:    {MoveSpeed: 5, RotationSpeed: 720, AttackDamage: 2, AttackRange: 8},
	ClassElPrimo: {MoveSpeed: 4, RotationSpeed: 540, AttackDamage: 3, AttackRange: 3},
}

// StatsFor возвращает характеристики класса
func StatsFor(class Class) (ClassStats, bool) {
	s, ok := classStats[class]
	return s, ok
}

// Classes известные классы в стабильном порядке
func Classes() []Class {
	return []Class{ClassColt, ClassElPrimo}
}

// Brawler модель бойца
type Brawler struct {
	id    identity.ID
	Class Class
	Name  string
	Stats ClassStats

	Position vec.Vec3
	Rotation vec.Quat

	health     float64
	paProgress float64
	local      bool

	hp *Machine[*Brawler]
	pa *Machine[*Brawler]

	Movement MovementStrategy
	Damage   DamageStrategy
	Attack   *AutomatedAttack

	onDied func(b *Brawler)
}

// NewBrawler создаёт бойца класса class
func NewBrawler(class Class, pos vec.Vec3, rot vec.Quat) (*Brawler, error) {
	stats, ok := StatsFor(class)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	b := &Brawler{
		Class:    class,
		Name:     string(class),
		Stats:    stats,
		Position: pos,
		Rotation: rot,
		health:   InitialHealth,
		Movement: NoMovement{},
		Damage:   StandardDamage{},
	}
	b.hp = NewMachine[*Brawler](b, &hpRegenerating{})
	b.pa = NewMachine[*Brawler](b, &paReady{})
	return b, nil
}

// SetID назначается реестром идентичностей
func (b *Brawler) SetID(id identity.ID) { b.id = id }

// ID идентификатор бойца
func (b *Brawler) ID() identity.ID { return b.id }

// IsLocal управляется локальным игроком
func (b *Brawler) IsLocal() bool { return b.local }

// Health текущее здоровье
func (b *Brawler) Health() float64 { return b.health }

// HealthProgress здоровье в диапазоне [0,1]
func (b *Brawler) HealthProgress() float64 { return clamp01(b.health / MaxHealth) }

// PAProgress готовность основной атаки в диапазоне [0,1]
func (b *Brawler) PAProgress() float64 { return b.paProgress }

// Dead true при нулевом здоровье
func (b *Brawler) Dead() bool { return b.health <= 0 }

// HPState имя состояния автомата здоровья
func (b *Brawler) HPState() string { return stateName(b.hp.Current()) }

// PAState имя состояния автомата атаки
func (b *Brawler) PAState() string { return stateName(b.pa.Current()) }

// SetHealth устанавливает здоровье с ограничением [0, MaxHealth]
// и уведомляет автоматы об изменении.
func (b *Brawler) SetHealth(value float64) {
	value = clamp(value, 0, MaxHealth)
	prev := b.health
	if prev == value {
		return
	}
	b.health = value

	b.hp.HealthChanged(prev, value)
	b.pa.HealthChanged(prev, value)

	if value <= 0 && prev > 0 && b.onDied != nil {
		b.onDied(b)
	}
}

// TakeDamage уменьшает здоровье
func (b *Brawler) TakeDamage(amount float64) {
	b.SetHealth(b.health - amount)
}

// Regenerate восстанавливает HealthRegenPercent*MaxHealth в секунду
func (b *Brawler) Regenerate(dt float64) {
	if b.health < MaxHealth {
		b.SetHealth(b.health + MaxHealth*HealthRegenPercent*dt)
	}
}

// RequestAttack начинает перезарядку атаки, если она готова
func (b *Brawler) RequestAttack() bool {
	if _, ready := b.pa.Current().(*paReady); !ready {
		return false
	}
	b.pa.SetState(&paCooldown{})
	return true
}

// Update обновляет автоматы бойца
func (b *Brawler) Update(dt float64) {
	b.hp.Update(dt)
	b.pa.Update(dt)
}

// Respawn возвращает бойца в начальное состояние в заданной точке
func (b *Brawler) Respawn(pos vec.Vec3, rot vec.Quat) {
	b.Position = pos
	b.Rotation = rot
	b.health = InitialHealth
	b.hp.SetState(&hpRegenerating{})
	b.pa.SetState(&paReady{})
}

func (b *Brawler) String() string {
	return fmt.Sprintf("%s(%d)", b.Name, b.id)
}

func stateName(s any) string {
	if st, ok := s.(fmt.Stringer); ok {
		return st.String()
	}
	return "none"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
