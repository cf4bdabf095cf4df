package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/annel0/brawl-replay/internal/eventbus"
	"github.com/annel0/brawl-replay/internal/logging"
	"github.com/annel0/brawl-replay/internal/storage"
)

// ErrRunnerStopped запрос к остановленному Runner
var ErrRunnerStopped = errors.New("runner остановлен")

// RunnerOptions параметры цикла тиков
type RunnerOptions struct {
	// AutoReplayAfter запускать replay после стольких секунд записи (0 = выключено)
	AutoReplayAfter float64
	// AutoArchive сохранять журнал в Store перед автоматическим replay
	AutoArchive bool
	Store       storage.Store
}

type request struct {
	fn   func(*Session) error
	resp chan error
}

// Runner владеет goroutine тиков. Внешние вызовы попадают на неё через канал,
// а состояние публикуется копией Snapshot после каждого тика.
type Runner struct {
	session  *Session
	opts     RunnerOptions
	requests chan request
	done     chan struct{}

	mu       sync.RWMutex
	snapshot Snapshot

	recorded float64
	log      *logging.Logger
}

// NewRunner создаёт Runner для сессии
func NewRunner(s *Session, opts RunnerOptions) *Runner {
	r := &Runner{
		session:  s,
		opts:     opts,
		requests: make(chan request, 16),
		done:     make(chan struct{}),
		snapshot: s.Snapshot(),
		log:      logging.GetSessionLogger(),
	}
	s.OnReplayCompleted = func(*Session) { r.recorded = 0 }
	return r
}

// Run крутит тики с частотой сессии до отмены ctx
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	dt := r.session.TickInterval()
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	r.log.Info("⏱️ Цикл тиков запущен: %.0f Гц", 1/dt)
	for {
		select {
		case <-ctx.Done():
			r.session.StopReplay()
			r.log.Info("Цикл тиков остановлен")
			return ctx.Err()
		case req := <-r.requests:
			req.resp <- req.fn(r.session)
			r.publishSnapshot()
		case <-ticker.C:
			r.step(ctx, dt)
		}
	}
}

func (r *Runner) step(ctx context.Context, dt float64) {
	s := r.session
	s.Tick(dt)

	if !s.history.IsReplaying() {
		r.recorded += dt
		if r.opts.AutoReplayAfter > 0 && r.recorded >= r.opts.AutoReplayAfter {
			r.recorded = 0
			if r.opts.AutoArchive && r.opts.Store != nil {
				r.archive(ctx)
			}
			s.StartReplay(ctx)
		}
	}
	r.publishSnapshot()
}

// archive сохраняет журнал в фоне; сборка архива идёт на goroutine тиков
func (r *Runner) archive(ctx context.Context) {
	a, err := r.session.Archive()
	if err != nil {
		r.log.Warn("Архив сессии: %v", err)
		return
	}
	go func() {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := r.opts.Store.Save(saveCtx, a); err != nil {
			r.log.Warn("Сохранение архива %s: %v", a.ID, err)
			return
		}
		r.log.Info("💾 Архив %s сохранён: %d команд", a.ID, len(a.Records))
		r.session.publish(eventbus.TypeArchiveSaved, 3, a.Summary())
	}()
}

func (r *Runner) publishSnapshot() {
	snap := r.session.Snapshot()
	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()
}

// Snapshot последнее опубликованное состояние
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Do выполняет fn на goroutine тиков и ждёт результата
func (r *Runner) Do(ctx context.Context, fn func(*Session) error) error {
	resp := make(chan error, 1)
	select {
	case r.requests <- request{fn: fn, resp: resp}:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-resp:
		return err
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done закрывается после выхода из Run
func (r *Runner) Done() <-chan struct{} { return r.done }
