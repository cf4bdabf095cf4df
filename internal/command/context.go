package command

import (
	"math/rand"

	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/vec"
)

// SpawnRequest параметры создания бойца, вычисленные командой спауна
type SpawnRequest struct {
	ID       identity.ID
	Class    string
	Ordinal  int
	Position vec.Vec3
	Rotation vec.Quat
	Local    bool
}

// World операции симуляции, доступные командам.
// Отсутствие цели возвращается как false, без паники.
type World interface {
	SpawnBrawler(req SpawnRequest) error
	ApplyDamage(id identity.ID, amount float64) bool
	SetTransform(id identity.ID, pos vec.Vec3, rot vec.Quat) bool
}

// Context явные зависимости выполнения команд.
// Создаётся сессией и передаётся истории и каждой команде.
type Context struct {
	IDs      *identity.Registry
	Counters *identity.Counters
	Locator  *Locator
	World    World

	rng *rand.Rand
}

// NewContext создаёт контекст с ГПСЧ, засеянным seed
func NewContext(world World, seed int64) *Context {
	return &Context{
		IDs:      identity.NewRegistry(),
		Counters: identity.NewCounters(),
		Locator:  NewLocator(),
		World:    world,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Rand ГПСЧ команд. Используется только при выполнении команд.
func (c *Context) Rand() *rand.Rand {
	return c.rng
}

// Reseed пересоздаёт ГПСЧ с заданным сидом
func (c *Context) Reseed(seed int64) {
	c.rng = rand.New(rand.NewSource(seed))
}
