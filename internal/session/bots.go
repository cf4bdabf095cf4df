package session

import (
	"math"

	"github.com/annel0/brawl-replay/internal/command"
	"github.com/annel0/brawl-replay/internal/game"
	"github.com/annel0/brawl-replay/internal/vec"
)

// autopilotMovement водит локального игрока по кругу вокруг точки старта
type autopilotMovement struct {
	phase float64
}

func (a *autopilotMovement) Execute(b *game.Brawler, dt float64) {
	a.phase += dt * 0.5
	dir := vec.Vec2Float{X: math.Cos(a.phase), Y: math.Sin(a.phase)}
	(&game.InputMovement{Direction: dir}).Execute(b, dt)
}

// recordTick шаг записи: ввод, движение, сэмплы позиций, атаки, подкрепления
func (s *Session) recordTick(dt float64) {
	local := s.game.Local()
	if local != nil {
		if s.opts.Autopilot {
			local.Movement = s.autopilot
		} else {
			s.localMove.Direction = s.input.Move
			local.Movement = s.localMove
		}
	}

	for _, b := range s.game.Brawlers() {
		if b.Movement != nil {
			b.Movement.Execute(b, dt)
		}
	}

	s.sampleTimer += dt
	if s.sampleTimer >= s.opts.SampleInterval {
		s.sampleTimer = 0
		s.recordTransforms()
	}

	s.runBots(dt)
	if local != nil && (s.input.Fire || s.opts.Autopilot) {
		s.tryAttack(local, false)
	}
	s.runReinforcements(dt)
}

// recordTransforms записывает Transform для бойцов, сдвинувшихся с прошлого сэмпла
func (s *Session) recordTransforms() {
	for _, b := range s.game.Brawlers() {
		last, seen := s.lastSamples[b.ID()]
		if seen && last.pos.ApproxEquals(b.Position, 1e-4) && last.rot == b.Rotation {
			continue
		}
		s.lastSamples[b.ID()] = sample{pos: b.Position, rot: b.Rotation}
		if err := s.history.ExecuteCommand(command.NewTransform(b.ID(), b.Position, b.Rotation)); err != nil {
			s.log.Debug("Transform %s: %v", b, err)
		}
	}
}

func (s *Session) runBots(dt float64) {
	for _, b := range s.game.Brawlers() {
		if b.IsLocal() || b.Attack == nil || b.Dead() {
			continue
		}
		b.Attack.Execute(dt)
		if !b.Attack.CanExecute() {
			continue
		}
		b.Attack.ResetCooldown()
		s.tryAttack(b, true)
	}
}

// tryAttack стреляет по ближайшей цели в радиусе; промах бота решает отдельный ГПСЧ
func (s *Session) tryAttack(attacker *game.Brawler, bot bool) {
	target := s.nearestTarget(attacker)
	if target == nil {
		return
	}
	if bot && s.botRng.Float64() >= BotHitChance {
		return
	}
	if !attacker.RequestAttack() {
		return
	}

	amount := attacker.Damage.CalculateDamage(attacker.Stats.AttackDamage, attacker.Position, target.Position)
	cmd := command.NewDamage(attacker.ID(), target.ID(), amount)
	if err := s.history.ExecuteCommand(cmd); err != nil {
		s.log.Debug("Атака %s → %s: %v", attacker, target, err)
	}
}

func (s *Session) nearestTarget(attacker *game.Brawler) *game.Brawler {
	var (
		best     *game.Brawler
		bestDist = math.Inf(1)
	)
	for _, b := range s.game.Brawlers() {
		if b == attacker || b.Dead() {
			continue
		}
		d := attacker.Position.DistanceTo(b.Position)
		if d <= attacker.Stats.AttackRange && d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}

// runReinforcements спаунит замену погибшим NPC после задержки
func (s *Session) runReinforcements(dt float64) {
	if len(s.reinforcements) == 0 {
		return
	}
	classes := game.Classes()
	pending := s.reinforcements[:0]
	var due int
	for _, left := range s.reinforcements {
		left -= dt
		if left <= 0 {
			due++
			continue
		}
		pending = append(pending, left)
	}
	s.reinforcements = pending

	for i := 0; i < due; i++ {
		class := classes[s.layout.Index()%len(classes)]
		if err := s.spawnNPC(class); err != nil {
			s.log.Warn("Подкрепление %s: %v", class, err)
		}
	}
}
