package command

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/vec"
)

// Spawn создаёт бойца в заданной точке
type Spawn struct {
	Class    string   `json:"class"`
	Position vec.Vec3 `json:"position"`
	Rotation vec.Quat `json:"rotation"`
	Local    bool     `json:"local,omitempty"`
	// Jitter радиус случайного смещения точки спауна, берётся из ГПСЧ команд
	Jitter float64 `json:"jitter,omitempty"`

	assignedID identity.ID
}

func (s *Spawn) Kind() Kind { return KindSpawn }

// AssignedID ID, выданный при последнем выполнении; None до выполнения и после Reset
func (s *Spawn) AssignedID() identity.ID { return s.assignedID }

func (s *Spawn) Reset() { s.assignedID = identity.None }

// NewSpawn создаёт команду спауна
func NewSpawn(class string, pos vec.Vec3, rot vec.Quat, local bool) *Command {
	return New(&Spawn{Class: class, Position: pos, Rotation: rot, Local: local})
}

// SpawnedID возвращает ID сущности, созданной командой спауна
func SpawnedID(cmd *Command) (identity.ID, bool) {
	s, ok := cmd.Payload.(*Spawn)
	if !ok || s.assignedID == identity.None {
		return identity.None, false
	}
	return s.assignedID, true
}

func applySpawn(ctx *Context, cmd *Command) error {
	s, ok := cmd.Payload.(*Spawn)
	if !ok {
		return fmt.Errorf("%w: ожидался spawn, получен %T", ErrUnknownKind, cmd.Payload)
	}

	pos := s.Position
	if s.Jitter > 0 {
		angle := ctx.Rand().Float64() * 2 * math.Pi
		r := ctx.Rand().Float64() * s.Jitter
		pos = pos.Add(vec.Vec3{X: math.Cos(angle) * r, Z: math.Sin(angle) * r})
	}

	id := ctx.IDs.NextID()
	s.assignedID = id
	// Локатор заполняется до того, как наблюдатели узнают о сущности
	ctx.Locator.RegisterCommandForModel(id, cmd)

	return ctx.World.SpawnBrawler(SpawnRequest{
		ID:       id,
		Class:    s.Class,
		Ordinal:  ctx.Counters.Next(s.Class),
		Position: pos,
		Rotation: s.Rotation,
		Local:    s.Local,
	})
}

func init() {
	Register(KindSpawn, applySpawn, func(raw json.RawMessage) (Payload, error) {
		return decodeInto(raw, &Spawn{})
	})
}
