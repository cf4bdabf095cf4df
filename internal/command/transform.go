package command

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/vec"
)

// Transform выборка позиции и поворота сущности
type Transform struct {
	Target   identity.ID `json:"target"`
	Position vec.Vec3    `json:"position"`
	Rotation vec.Quat    `json:"rotation"`
}

func (t *Transform) Kind() Kind { return KindTransform }

// NewTransform создаёт команду перемещения
func NewTransform(target identity.ID, pos vec.Vec3, rot vec.Quat) *Command {
	return New(&Transform{Target: target, Position: pos, Rotation: rot})
}

func applyTransform(ctx *Context, cmd *Command) error {
	t, ok := cmd.Payload.(*Transform)
	if !ok {
		return fmt.Errorf("%w: ожидался transform, получен %T", ErrUnknownKind, cmd.Payload)
	}
	if !ctx.World.SetTransform(t.Target, t.Position, t.Rotation) {
		return fmt.Errorf("перемещение сущности %d: %w", t.Target, ErrTargetNotFound)
	}
	return nil
}

func init() {
	Register(KindTransform, applyTransform, func(raw json.RawMessage) (Payload, error) {
		return decodeInto(raw, &Transform{})
	})
}
