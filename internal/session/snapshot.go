package session

import (
	"github.com/annel0/brawl-replay/internal/game"
	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/vec"
)

// BrawlerView состояние бойца для API
type BrawlerView struct {
	ID             identity.ID `json:"id"`
	Name           string      `json:"name"`
	Class          string      `json:"class"`
	Local          bool        `json:"local"`
	Position       vec.Vec3    `json:"position"`
	Yaw            float64     `json:"yaw"`
	Health         float64     `json:"health"`
	HealthProgress float64     `json:"health_progress"`
	PAProgress     float64     `json:"pa_progress"`
	HPState        string      `json:"hp_state"`
	PAState        string      `json:"pa_state"`
	HUDSlot        int         `json:"hud_slot"`
}

// Snapshot копия состояния сессии после тика, только для чтения
type Snapshot struct {
	SessionID        string                     `json:"session_id"`
	Seed             int64                      `json:"seed"`
	Tick             uint64                     `json:"tick"`
	Time             float64                    `json:"time"`
	State            string                     `json:"state"`
	Replaying        bool                       `json:"replaying"`
	Progress         float64                    `json:"progress"`
	Cursor           int                        `json:"cursor"`
	Commands         int                        `json:"commands"`
	Duration         float64                    `json:"duration"`
	Brawlers         []BrawlerView              `json:"brawlers"`
	HUD              [game.HUDSlots]identity.ID `json:"hud"`
	ReplaysCompleted int                        `json:"replays_completed"`
}

// Snapshot собирает снимок текущего состояния
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:        s.id,
		Seed:             s.seed,
		Tick:             s.tick,
		Time:             s.time,
		State:            s.history.State().String(),
		Replaying:        s.history.IsReplaying(),
		Progress:         s.history.GetReplayProgress(),
		Cursor:           s.history.Cursor(),
		Commands:         s.history.Len(),
		Duration:         s.history.Duration(),
		ReplaysCompleted: s.replaysCompleted,
	}
	for i := range snap.HUD {
		snap.HUD[i] = s.hud.Slot(i + 1)
	}

	brawlers := s.game.Brawlers()
	snap.Brawlers = make([]BrawlerView, 0, len(brawlers))
	for _, b := range brawlers {
		snap.Brawlers = append(snap.Brawlers, BrawlerView{
			ID:             b.ID(),
			Name:           b.Name,
			Class:          string(b.Class),
			Local:          b.IsLocal(),
			Position:       b.Position,
			Yaw:            b.Rotation.Yaw(),
			Health:         b.Health(),
			HealthProgress: b.HealthProgress(),
			PAProgress:     b.PAProgress(),
			HPState:        b.HPState(),
			PAState:        b.PAState(),
			HUDSlot:        s.hud.SlotOf(b.ID()),
		})
	}
	return snap
}
