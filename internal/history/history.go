package history

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/annel0/brawl-replay/internal/command"
	"github.com/annel0/brawl-replay/internal/logging"
)

var (
	// ErrReplaying запись новой команды во время воспроизведения
	ErrReplaying = errors.New("нельзя выполнять новые команды во время replay")
	// ErrNotReplaying ReplayUntil вызван вне режима воспроизведения
	ErrNotReplaying = errors.New("история не в режиме replay")
	// ErrDecreasingTime время воспроизведения пошло назад
	ErrDecreasingTime = errors.New("время replay уменьшилось")
	// ErrUnorderedLog метки времени в журнале убывают
	ErrUnorderedLog = errors.New("журнал команд не упорядочен по времени")
)

// State состояние истории
type State int

const (
	StateIdle State = iota
	StateRecording
	StateArmed
	StateReplaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateArmed:
		return "armed"
	case StateReplaying:
		return "replaying"
	default:
		return "unknown"
	}
}

// DispatchHook вызывается после каждого выполнения команды (запись и replay)
type DispatchHook func(cmd *command.Command, replay bool, err error)

// History упорядоченный журнал команд с записью и воспроизведением по времени.
// Не потокобезопасна: все вызовы идут из goroutine тиков.
type History struct {
	ctx   *command.Context
	clock Clock
	log   *logging.Logger

	commands     []*command.Command
	seed         int64
	sessionStart float64

	replaying      bool
	armed          bool
	cursor         int
	lastReplayTime float64

	hook DispatchHook
}

// New создаёт историю. Контекст команд засевается seed.
func New(ctx *command.Context, seed int64, clock Clock) *History {
	if clock == nil {
		clock = NewWallClock()
	}
	ctx.Reseed(seed)
	return &History{
		ctx:            ctx,
		clock:          clock,
		log:            logging.GetHistoryLogger(),
		seed:           seed,
		sessionStart:   clock.Now(),
		lastReplayTime: math.Inf(-1),
	}
}

// SetDispatchHook устанавливает обработчик выполненных команд
func (h *History) SetDispatchHook(hook DispatchHook) {
	h.hook = hook
}

// ExecuteCommand выполняет команду и добавляет её в журнал.
// Во время replay команда отклоняется без выполнения.
// Команда попадает в журнал даже при ошибке выполнения.
func (h *History) ExecuteCommand(cmd *command.Command) error {
	if h.replaying {
		h.log.Warn("Команда %s отклонена: идёт replay", cmd.Kind)
		return ErrReplaying
	}

	t := h.clock.Now() - h.sessionStart
	if n := len(h.commands); n > 0 && t < h.commands[n-1].ExecutionTime {
		h.log.Debug("Метка %.3fs меньше предыдущей, выравниваем", t)
		t = h.commands[n-1].ExecutionTime
	}
	cmd.ExecutionTime = t

	err := cmd.Execute(h.ctx)
	h.commands = append(h.commands, cmd)

	if err != nil {
		h.log.Warn("Команда %s выполнена с ошибкой: %v", cmd, err)
	} else {
		h.log.Debug("Выполнена команда %s", cmd)
	}
	if h.hook != nil {
		h.hook(cmd, false, err)
	}
	return err
}

// StartReplay включает режим воспроизведения с начала журнала.
// Мир не очищается: это делает вызывающий.
func (h *History) StartReplay() {
	h.replaying = true
	h.armed = true
	h.cursor = 0
	h.sessionStart = h.clock.Now()
	h.lastReplayTime = math.Inf(-1)
	h.log.Info("▶️ Начало replay: %d команд, сид %d", len(h.commands), h.seed)
}

// ReplayUntil выполняет все команды с ExecutionTime <= replayTime начиная с курсора.
// Возвращает количество выполненных команд.
func (h *History) ReplayUntil(replayTime float64) int {
	n, err := h.replayUntil(replayTime)
	if err != nil {
		h.log.Warn("ReplayUntil(%.3f): %v", replayTime, err)
	}
	return n
}

func (h *History) replayUntil(replayTime float64) (int, error) {
	if !h.replaying {
		return 0, ErrNotReplaying
	}
	if replayTime < h.lastReplayTime {
		return 0, fmt.Errorf("%w: %.3f < %.3f", ErrDecreasingTime, replayTime, h.lastReplayTime)
	}
	h.lastReplayTime = replayTime
	h.armed = false

	dispatched := 0
	for h.cursor < len(h.commands) {
		cmd := h.commands[h.cursor]
		if cmd.ExecutionTime > replayTime {
			break
		}

		err := cmd.Execute(h.ctx)
		if err != nil {
			h.log.Warn("Replay команды %s: %v", cmd, err)
		} else {
			h.log.Debug("Воспроизведена команда %s", cmd)
		}
		if h.hook != nil {
			h.hook(cmd, true, err)
		}

		h.cursor++
		dispatched++
	}

	if h.cursor >= len(h.commands) {
		h.log.Info("✅ Replay завершён")
		h.replaying = false
	}
	return dispatched, nil
}

// StopReplay прерывает воспроизведение
func (h *History) StopReplay() {
	h.replaying = false
	h.armed = false
	h.cursor = 0
	h.log.Info("⏹️ Replay остановлен")
}

// Clear очищает журнал
func (h *History) Clear() {
	h.commands = nil
	h.cursor = 0
	h.sessionStart = h.clock.Now()
	h.log.Info("История команд очищена")
}

// ResetAllCommandState сбрасывает реестр ID, счётчики доменов,
// состояние каждой команды и пересоздаёт ГПСЧ с исходным сидом.
func (h *History) ResetAllCommandState() {
	h.ctx.IDs.ResetCounter()
	h.ctx.Counters.Reset()
	for _, cmd := range h.commands {
		cmd.Reset()
	}
	h.ctx.Reseed(h.seed)
	h.log.Debug("Состояние команд сброшено, сид %d", h.seed)
}

// Load заменяет журнал и сид (например, из архива).
// Журнал должен быть упорядочен по времени.
func (h *History) Load(seed int64, cmds []*command.Command) error {
	if h.replaying {
		return ErrReplaying
	}
	for i := 1; i < len(cmds); i++ {
		if cmds[i].ExecutionTime < cmds[i-1].ExecutionTime {
			return fmt.Errorf("%w: команда %d (%.3fs) раньше %d (%.3fs)",
				ErrUnorderedLog, i, cmds[i].ExecutionTime, i-1, cmds[i-1].ExecutionTime)
		}
	}

	h.commands = append([]*command.Command(nil), cmds...)
	h.seed = seed
	h.cursor = 0
	h.sessionStart = h.clock.Now()
	h.ctx.Reseed(seed)
	h.log.Info("Загружено %d команд, сид %d", len(cmds), seed)
	return nil
}

// GetReplayProgress доля воспроизведённых команд, 0 для пустого журнала
func (h *History) GetReplayProgress() float64 {
	if len(h.commands) == 0 {
		return 0
	}
	return float64(h.cursor) / float64(len(h.commands))
}

// GetCurrentReplayTime время от начала сессии или replay
func (h *History) GetCurrentReplayTime() float64 {
	return h.clock.Now() - h.sessionStart
}

// IsReplaying true пока идёт воспроизведение
func (h *History) IsReplaying() bool { return h.replaying }

// State текущее состояние
func (h *History) State() State {
	switch {
	case h.replaying && h.armed:
		return StateArmed
	case h.replaying:
		return StateReplaying
	case len(h.commands) > 0:
		return StateRecording
	default:
		return StateIdle
	}
}

// Commands копия упорядоченного журнала
func (h *History) Commands() []*command.Command {
	out := make([]*command.Command, len(h.commands))
	copy(out, h.commands)
	return out
}

// Seed сид сессии
func (h *History) Seed() int64 { return h.seed }

// Rand ГПСЧ команд
func (h *History) Rand() *rand.Rand { return h.ctx.Rand() }

// Cursor индекс следующей команды replay
func (h *History) Cursor() int { return h.cursor }

// Len количество команд в журнале
func (h *History) Len() int { return len(h.commands) }

// Duration время последней команды
func (h *History) Duration() float64 {
	if len(h.commands) == 0 {
		return 0
	}
	return h.commands[len(h.commands)-1].ExecutionTime
}

// Context контекст выполнения команд
func (h *History) Context() *command.Context { return h.ctx }
