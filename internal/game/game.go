package game

import (
	"errors"
	"fmt"

	"github.com/annel0/brawl-replay/internal/command"
	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/logging"
	"github.com/annel0/brawl-replay/internal/vec"
)

var (
	// ErrUnknownClass неизвестный класс бойца
	ErrUnknownClass = errors.New("неизвестный класс бойца")
	// ErrDuplicateID боец с таким ID уже на арене
	ErrDuplicateID = errors.New("боец с таким ID уже существует")
)

// EventType тип события популяции
type EventType int

const (
	EventAdded EventType = iota
	EventRemoved
	EventDied
	EventLocalChanged
)

func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventDied:
		return "died"
	case EventLocalChanged:
		return "local_changed"
	default:
		return "unknown"
	}
}

// Event событие популяции. Для LocalChanged Brawler может быть nil.
type Event struct {
	Type    EventType
	Brawler *Brawler
}

// Observer получает события синхронно
type Observer func(ev Event)

// Game популяция бойцов на арене
type Game struct {
	brawlers  map[identity.ID]*Brawler
	order     []identity.ID
	local     *Brawler
	observers []Observer
	log       *logging.Logger
}

var _ command.World = (*Game)(nil)

// New создаёт пустую арену
func New() *Game {
	return &Game{
		brawlers: make(map[identity.ID]*Brawler),
		log:      logging.GetGameLogger(),
	}
}

// Observe подписывает наблюдателя
func (g *Game) Observe(obs Observer) {
	g.observers = append(g.observers, obs)
}

func (g *Game) notify(t EventType, b *Brawler) {
	ev := Event{Type: t, Brawler: b}
	for _, obs := range g.observers {
		obs(ev)
	}
}

// AddBrawler добавляет бойца; local делает его локальным игроком
func (g *Game) AddBrawler(b *Brawler, local bool) error {
	if _, exists := g.brawlers[b.ID()]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateID, b.ID())
	}
	b.local = local
	b.onDied = g.handleDeath

	g.brawlers[b.ID()] = b
	g.order = append(g.order, b.ID())
	g.log.Debug("Боец %s добавлен", b)
	g.notify(EventAdded, b)

	if local {
		g.local = b
		g.notify(EventLocalChanged, b)
	}
	return nil
}

// RemoveBrawler убирает бойца с арены; false если его нет
func (g *Game) RemoveBrawler(b *Brawler) bool {
	if b == nil {
		return false
	}
	if _, exists := g.brawlers[b.ID()]; !exists {
		return false
	}
	delete(g.brawlers, b.ID())
	for i, id := range g.order {
		if id == b.ID() {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	b.onDied = nil
	g.log.Debug("Боец %s удалён", b)
	g.notify(EventRemoved, b)

	if g.local == b {
		g.local = nil
		g.notify(EventLocalChanged, nil)
	}
	return true
}

// RemoveNPCs убирает всех, кроме локального игрока
func (g *Game) RemoveNPCs() int {
	removed := 0
	for _, b := range g.Brawlers() {
		if b.IsLocal() {
			continue
		}
		if g.RemoveBrawler(b) {
			removed++
		}
	}
	return removed
}

func (g *Game) handleDeath(b *Brawler) {
	g.log.Info("💀 Боец %s погиб", b)
	g.notify(EventDied, b)
	g.RemoveBrawler(b)
}

// Brawler ищет бойца по ID
func (g *Game) Brawler(id identity.ID) (*Brawler, bool) {
	b, ok := g.brawlers[id]
	return b, ok
}

// Brawlers бойцы в порядке добавления
func (g *Game) Brawlers() []*Brawler {
	out := make([]*Brawler, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.brawlers[id])
	}
	return out
}

// Local локальный игрок или nil
func (g *Game) Local() *Brawler { return g.local }

// Len количество бойцов
func (g *Game) Len() int { return len(g.order) }

// Update обновляет автоматы всех бойцов
func (g *Game) Update(dt float64) {
	for _, b := range g.Brawlers() {
		b.Update(dt)
	}
}

// SpawnBrawler создаёт бойца по запросу команды спауна
func (g *Game) SpawnBrawler(req command.SpawnRequest) error {
	b, err := NewBrawler(Class(req.Class), req.Position, req.Rotation)
	if err != nil {
		return err
	}
	b.SetID(req.ID)
	b.Name = fmt.Sprintf("%s#%d", req.Class, req.Ordinal)
	return g.AddBrawler(b, req.Local)
}

// ApplyDamage наносит урон живому бойцу
func (g *Game) ApplyDamage(id identity.ID, amount float64) bool {
	b, ok := g.brawlers[id]
	if !ok || b.Dead() {
		return false
	}
	b.TakeDamage(amount)
	return true
}

// SetTransform перемещает бойца
func (g *Game) SetTransform(id identity.ID, pos vec.Vec3, rot vec.Quat) bool {
	b, ok := g.brawlers[id]
	if !ok {
		return false
	}
	b.Position = pos
	b.Rotation = rot
	return true
}
