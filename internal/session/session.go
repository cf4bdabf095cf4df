package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/annel0/brawl-replay/internal/command"
	"github.com/annel0/brawl-replay/internal/config"
	"github.com/annel0/brawl-replay/internal/eventbus"
	"github.com/annel0/brawl-replay/internal/game"
	"github.com/annel0/brawl-replay/internal/history"
	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/logging"
	"github.com/annel0/brawl-replay/internal/observability"
	"github.com/annel0/brawl-replay/internal/vec"
)

const (
	// LocalPlayerID явный ID локального игрока
	LocalPlayerID identity.ID = 1
	// ReinforcementDelay задержка появления замены погибшего NPC
	ReinforcementDelay = 2.0
	// SpawnJitter радиус случайного смещения точки спауна NPC
	SpawnJitter = 0.5
	// BotHitChance вероятность попадания бота
	BotHitChance = 0.75

	eventSource = "brawl-session"
)

// ErrNoLocalPlayer ввод без локального игрока
var ErrNoLocalPlayer = errors.New("локальный игрок отсутствует")

// Options параметры сессии
type Options struct {
	SessionID      string
	Seed           int64
	TickRate       int
	SampleInterval float64
	NPCCount       int
	ArenaRadius    float64
	// Autopilot локальный игрок ходит по кругу и стреляет сам
	Autopilot bool

	Metrics *observability.ReplayMetrics
	// Bus шина событий; nil: глобальная шина eventbus
	Bus eventbus.EventBus
}

// OptionsFromConfig заполняет параметры из секции session
func OptionsFromConfig(cfg *config.SessionConfig) Options {
	return Options{
		Seed:           cfg.GetSeed(),
		TickRate:       cfg.GetTickRate(),
		SampleInterval: cfg.GetSampleInterval(),
		NPCCount:       cfg.GetNPCCount(),
		ArenaRadius:    cfg.GetArenaRadius(),
		Autopilot:      true,
	}
}

// Input управление локальным игроком на текущий тик
type Input struct {
	Move vec.Vec2Float `json:"move"`
	Fire bool          `json:"fire"`
}

type sample struct {
	pos vec.Vec3
	rot vec.Quat
}

// Session оркестратор: арена, история команд, боты и протокол replay.
// Не потокобезопасна, снаружи используется через Runner.
type Session struct {
	opts Options
	id   string
	seed int64

	clock   *history.ManualClock
	ctx     *command.Context
	history *history.History
	game    *game.Game
	hud     *game.HUD
	layout  *SpawnLayout
	botRng  *rand.Rand

	local      *game.Brawler
	localStart vec.Vec3
	localDown  bool
	localMove  *game.InputMovement
	autopilot  game.MovementStrategy

	input        Input
	inputEnabled bool

	sampleTimer    float64
	lastSamples    map[identity.ID]sample
	reinforcements []float64

	tick             uint64
	time             float64
	replaysCompleted int

	metrics    *observability.ReplayMetrics
	log        *logging.Logger
	replaySpan oteltrace.Span
	// OnReplayCompleted вызывается на goroutine тиков после завершения replay
	OnReplayCompleted func(s *Session)
}

// New создаёт сессию: локальный игрок с явным ID и стартовые NPC через команды спауна
func New(opts Options) (*Session, error) {
	if opts.TickRate <= 0 {
		opts.TickRate = 30
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 0.1
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	g := game.New()
	s := &Session{
		opts:         opts,
		id:           opts.SessionID,
		clock:        history.NewManualClock(),
		game:         g,
		hud:          game.NewHUD(),
		lastSamples:  make(map[identity.ID]sample),
		inputEnabled: true,
		localMove:    &game.InputMovement{},
		autopilot:    &autopilotMovement{},
		metrics:      opts.Metrics,
		log:          logging.GetSessionLogger(),
	}
	s.ctx = command.NewContext(g, opts.Seed)
	s.history = history.New(s.ctx, opts.Seed, s.clock)
	s.history.SetDispatchHook(s.onDispatch)
	s.reseed(opts.Seed)
	g.Observe(s.onGameEvent)

	local, err := game.NewBrawler(game.ClassColt, s.layout.LocalSpawn(), vec.Identity)
	if err != nil {
		return nil, err
	}
	local.Name = "player"
	s.local = local
	s.localStart = local.Position
	s.ctx.IDs.AssignExplicitID(local, LocalPlayerID)
	if err := g.AddBrawler(local, true); err != nil {
		return nil, fmt.Errorf("ошибка добавления игрока: %w", err)
	}

	classes := game.Classes()
	for i := 0; i < opts.NPCCount; i++ {
		if err := s.spawnNPC(classes[i%len(classes)]); err != nil {
			s.log.Warn("Спаун NPC %d: %v", i, err)
		}
	}

	s.log.Info("🎮 Сессия %s создана: сид %d, NPC %d", s.id, opts.Seed, opts.NPCCount)
	return s, nil
}

func (s *Session) reseed(seed int64) {
	s.seed = seed
	s.layout = NewSpawnLayout(seed, s.opts.ArenaRadius)
	s.botRng = rand.New(rand.NewSource(seed + 1))
}

// spawnNPC записывает команду спауна в следующей точке раскладки
func (s *Session) spawnNPC(class game.Class) error {
	pos := s.layout.Next()
	rot := vec.LookRotation(s.localStart.Sub(pos))
	cmd := command.New(&command.Spawn{
		Class:    string(class),
		Position: pos,
		Rotation: rot,
		Jitter:   SpawnJitter,
	})
	return s.history.ExecuteCommand(cmd)
}

// ID идентификатор сессии
func (s *Session) ID() string { return s.id }

// Seed сид текущего журнала
func (s *Session) Seed() int64 { return s.seed }

// History журнал команд
func (s *Session) History() *history.History { return s.history }

// Game арена
func (s *Session) Game() *game.Game { return s.game }

// HUD слоты бойцов
func (s *Session) HUD() *game.HUD { return s.hud }

// Local локальный игрок (тот же объект и после гибели)
func (s *Session) Local() *game.Brawler { return s.local }

// TickInterval шаг симуляции в секундах
func (s *Session) TickInterval() float64 { return 1 / float64(s.opts.TickRate) }

// InputEnabled false во время replay
func (s *Session) InputEnabled() bool { return s.inputEnabled }

// ReplaysCompleted количество завершённых воспроизведений
func (s *Session) ReplaysCompleted() int { return s.replaysCompleted }

// SetInput задаёт ввод локального игрока; во время replay игнорируется
func (s *Session) SetInput(in Input) error {
	if !s.inputEnabled {
		return history.ErrReplaying
	}
	if s.game.Local() == nil {
		return ErrNoLocalPlayer
	}
	s.input = in
	return nil
}

// SetAutopilot включает или выключает автопилот локального игрока
func (s *Session) SetAutopilot(enabled bool) { s.opts.Autopilot = enabled }

// Tick продвигает симуляцию на dt секунд
func (s *Session) Tick(dt float64) {
	started := time.Now()
	s.tick++
	s.time += dt
	s.clock.Advance(dt)

	s.restoreLocal()
	if s.history.IsReplaying() {
		s.replayTick()
	} else {
		s.recordTick(dt)
	}
	s.game.Update(dt)

	s.metrics.Observe(s.history.GetReplayProgress(), s.game.Len(), s.history.Len(), time.Since(started).Seconds())
}

// restoreLocal возвращает погибшего локального игрока на арену
func (s *Session) restoreLocal() {
	if !s.localDown {
		return
	}
	s.localDown = false
	s.local.Respawn(s.localStart, vec.Identity)
	if err := s.game.AddBrawler(s.local, true); err != nil {
		s.log.Warn("Возрождение игрока: %v", err)
		return
	}
	s.log.Info("🔄 Игрок %s возрождён", s.local)
}

func (s *Session) replayTick() {
	s.history.ReplayUntil(s.history.GetCurrentReplayTime())
	if !s.history.IsReplaying() {
		s.finishReplay("completed")
	}
}

// StartReplay перезапускает арену и воспроизводит журнал с начала
func (s *Session) StartReplay(ctx context.Context) {
	if s.history.IsReplaying() {
		s.StopReplay()
	}

	removed := s.game.RemoveNPCs()
	s.ctx.Locator.Clear()
	s.layout.Reset()
	s.history.ResetAllCommandState()

	s.ctx.IDs.AssignExplicitID(s.local, s.local.ID())
	s.local.Respawn(s.localStart, vec.Identity)
	s.localDown = false
	if s.game.Local() == nil {
		if err := s.game.AddBrawler(s.local, true); err != nil {
			s.log.Warn("Возврат игрока перед replay: %v", err)
		}
	}

	s.inputEnabled = false
	s.input = Input{}
	s.reinforcements = nil
	s.sampleTimer = 0
	s.lastSamples = make(map[identity.ID]sample)

	s.clock.Set(0)
	s.history.StartReplay()

	s.metrics.ReplayStarted()
	_, s.replaySpan = observability.Tracer().Start(ctx, "session.replay",
		oteltrace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.Int64("session.seed", s.seed),
			attribute.Int("replay.commands", s.history.Len()),
		))
	s.publish(eventbus.TypeReplayStarted, 5, map[string]any{
		"commands": s.history.Len(),
		"duration": s.history.Duration(),
		"removed":  removed,
	})
	s.log.Info("▶️ Replay сессии %s: убрано NPC %d", s.id, removed)
}

// StopReplay прерывает воспроизведение; арена остаётся как есть
func (s *Session) StopReplay() {
	if !s.history.IsReplaying() {
		return
	}
	s.history.StopReplay()
	s.finishReplay("stopped")
}

func (s *Session) finishReplay(outcome string) {
	s.inputEnabled = true
	s.metrics.ReplayFinished(outcome)
	if s.replaySpan != nil {
		s.replaySpan.SetAttributes(attribute.String("replay.outcome", outcome))
		s.replaySpan.End()
		s.replaySpan = nil
	}

	eventType := eventbus.TypeReplayStopped
	if outcome == "completed" {
		eventType = eventbus.TypeReplayCompleted
		s.replaysCompleted++
	}
	s.publish(eventType, 5, map[string]any{
		"cursor":   s.history.Cursor(),
		"commands": s.history.Len(),
		"brawlers": s.game.Len(),
	})
	s.log.Info("⏹️ Replay %s: бойцов на арене %d", outcome, s.game.Len())

	if outcome == "completed" && s.OnReplayCompleted != nil {
		s.OnReplayCompleted(s)
	}
}

func (s *Session) onDispatch(cmd *command.Command, replay bool, err error) {
	s.metrics.CommandDispatched(string(cmd.Kind), replay, err != nil)
	if replay && cmd.Kind == command.KindSpawn {
		s.layout.Skip()
	}
}

func (s *Session) onGameEvent(ev game.Event) {
	b := ev.Brawler
	switch ev.Type {
	case game.EventAdded:
		slot := s.hud.AssignNext(b.ID())
		if !b.IsLocal() {
			s.configureNPC(b)
		}
		s.publish(eventbus.TypeBrawlerAdded, 1, brawlerPayload(b, slot))
	case game.EventRemoved:
		s.hud.Remove(b.ID())
		delete(s.lastSamples, b.ID())
		s.publish(eventbus.TypeBrawlerRemoved, 1, brawlerPayload(b, 0))
	case game.EventDied:
		s.publish(eventbus.TypeBrawlerDied, 3, brawlerPayload(b, s.hud.SlotOf(b.ID())))
		if b.IsLocal() {
			s.localDown = true
		} else if !s.history.IsReplaying() {
			s.reinforcements = append(s.reinforcements, ReinforcementDelay)
		}
	}
}

// configureNPC выдаёт стратегии по классу
func (s *Session) configureNPC(b *game.Brawler) {
	switch b.Class {
	case game.ClassColt:
		b.Movement = game.NewRotationalMovement()
		b.Damage = game.NewDistanceBasedDamage()
	case game.ClassElPrimo:
		b.Movement = game.NewFollowMovement(s.local)
		b.Damage = game.NewCriticalDamage()
	}
	b.Attack = game.NewAutomatedAttack()
}

func brawlerPayload(b *game.Brawler, slot int) map[string]any {
	return map[string]any{
		"id":     uint64(b.ID()),
		"name":   b.Name,
		"class":  string(b.Class),
		"local":  b.IsLocal(),
		"health": b.Health(),
		"slot":   slot,
	}
}

// publish отправляет событие сессии; ошибки шины только логируются
func (s *Session) publish(eventType string, priority int, payload any) {
	ev, err := eventbus.NewEnvelope(eventSource, eventType, s.id, priority, payload)
	if err != nil {
		s.log.Warn("Событие %s: %v", eventType, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if s.opts.Bus != nil {
		err = s.opts.Bus.Publish(ctx, ev)
	} else {
		err = eventbus.Publish(ctx, ev)
	}
	if err != nil {
		s.log.Debug("Публикация %s: %v", eventType, err)
	}
}
