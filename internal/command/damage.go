package command

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/brawl-replay/internal/identity"
)

// Damage наносит урон цели
type Damage struct {
	Target identity.ID `json:"target"`
	Source identity.ID `json:"source,omitempty"`
	Amount float64     `json:"amount"`
}

func (d *Damage) Kind() Kind { return KindDamage }

// NewDamage создаёт команду урона
func NewDamage(source, target identity.ID, amount float64) *Command {
	return New(&Damage{Target: target, Source: source, Amount: amount})
}

func applyDamage(ctx *Context, cmd *Command) error {
	d, ok := cmd.Payload.(*Damage)
	if !ok {
		return fmt.Errorf("%w: ожидался damage, получен %T", ErrUnknownKind, cmd.Payload)
	}
	if !ctx.World.ApplyDamage(d.Target, d.Amount) {
		return fmt.Errorf("урон %.1f по сущности %d: %w", d.Amount, d.Target, ErrTargetNotFound)
	}
	return nil
}

func init() {
	Register(KindDamage, applyDamage, func(raw json.RawMessage) (Payload, error) {
		return decodeInto(raw, &Damage{})
	})
}
