package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/brawl-replay/internal/command"
	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/storage"
)

// Archive сохраняет журнал и сид сессии в архив с новым ID
func (s *Session) Archive() (*storage.Archive, error) {
	cmds := s.history.Commands()
	records := make([]storage.Record, 0, len(cmds))
	for _, cmd := range cmds {
		raw, err := command.EncodePayload(cmd)
		if err != nil {
			return nil, fmt.Errorf("команда %s: %w", cmd, err)
		}
		records = append(records, storage.Record{
			Kind:    string(cmd.Kind),
			Time:    cmd.ExecutionTime,
			Payload: raw,
		})
	}

	return &storage.Archive{
		ID:        uuid.NewString(),
		SessionID: s.id,
		Seed:      s.history.Seed(),
		CreatedAt: time.Now().UTC(),
		Duration:  s.history.Duration(),
		Records:   records,
	}, nil
}

// LoadArchive заменяет журнал сессии архивом. Текущий replay прерывается,
// NPC убираются; арена наполнится при следующем StartReplay.
func (s *Session) LoadArchive(a *storage.Archive) error {
	if err := a.Validate(); err != nil {
		return err
	}
	cmds := make([]*command.Command, 0, len(a.Records))
	for i, r := range a.Records {
		cmd, err := command.Decode(command.Kind(r.Kind), r.Time, r.Payload)
		if err != nil {
			return fmt.Errorf("запись %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}

	s.StopReplay()
	if err := s.history.Load(a.Seed, cmds); err != nil {
		return err
	}

	s.game.RemoveNPCs()
	s.ctx.Locator.Clear()
	s.clock.Set(0)
	s.reseed(a.Seed)
	s.reinforcements = nil
	s.sampleTimer = 0
	s.lastSamples = make(map[identity.ID]sample)
	s.log.Info("📦 Загружен архив %s: %d команд, сид %d", a.ID, len(cmds), a.Seed)
	return nil
}

// VerifyReport результат проверки детерминизма архива
type VerifyReport struct {
	ArchiveID     string        `json:"archive_id"`
	Commands      int           `json:"commands"`
	Spawns        int           `json:"spawns"`
	Failures      int           `json:"failures"`
	SpawnedIDs    []identity.ID `json:"spawned_ids"`
	Deterministic bool          `json:"deterministic"`
	Mismatch      string        `json:"mismatch,omitempty"`
}

type replayTrace struct {
	ids      []identity.ID
	failures int
	final    []BrawlerView
}

// Verify воспроизводит архив дважды в свежих сессиях и сравнивает
// выданные ID и итоговое состояние арены.
func Verify(a *storage.Archive, opts Options) (*VerifyReport, error) {
	first, err := traceReplay(a, opts)
	if err != nil {
		return nil, err
	}
	second, err := traceReplay(a, opts)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{
		ArchiveID:     a.ID,
		Commands:      len(a.Records),
		Spawns:        len(first.ids),
		Failures:      first.failures,
		SpawnedIDs:    first.ids,
		Deterministic: true,
	}
	switch {
	case len(first.ids) != len(second.ids):
		report.Mismatch = fmt.Sprintf("количество спаунов %d != %d", len(first.ids), len(second.ids))
	case first.failures != second.failures:
		report.Mismatch = fmt.Sprintf("ошибки команд %d != %d", first.failures, second.failures)
	case len(first.final) != len(second.final):
		report.Mismatch = fmt.Sprintf("бойцов на арене %d != %d", len(first.final), len(second.final))
	default:
		for i := range first.ids {
			if first.ids[i] != second.ids[i] {
				report.Mismatch = fmt.Sprintf("спаун %d: ID %d != %d", i, first.ids[i], second.ids[i])
				break
			}
		}
		for i := range first.final {
			if report.Mismatch != "" {
				break
			}
			if first.final[i] != second.final[i] {
				report.Mismatch = fmt.Sprintf("боец %d отличается", first.final[i].ID)
			}
		}
	}
	report.Deterministic = report.Mismatch == ""
	return report, nil
}

func traceReplay(a *storage.Archive, opts Options) (*replayTrace, error) {
	opts.Seed = a.Seed
	opts.NPCCount = 0
	opts.SessionID = a.SessionID
	opts.Metrics = nil

	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := s.LoadArchive(a); err != nil {
		return nil, err
	}

	trace := &replayTrace{}
	s.history.SetDispatchHook(func(cmd *command.Command, replay bool, err error) {
		s.onDispatch(cmd, replay, err)
		if err != nil {
			trace.failures++
		}
		if id, ok := command.SpawnedID(cmd); ok {
			trace.ids = append(trace.ids, id)
		}
	})

	s.StartReplay(context.Background())
	dt := s.TickInterval()
	// Запас тиков на случай пустого хвоста журнала
	limit := int(a.Duration/dt) + 10
	for i := 0; i < limit && s.history.IsReplaying(); i++ {
		s.Tick(dt)
	}
	if s.history.IsReplaying() {
		return nil, fmt.Errorf("replay архива %s не завершился за %d тиков", a.ID, limit)
	}
	trace.final = s.Snapshot().Brawlers
	return trace, nil
}
