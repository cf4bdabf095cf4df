package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/brawl-replay/internal/history"
	"github.com/annel0/brawl-replay/internal/storage"
)

func TestRunnerAutoReplayAndArchive(t *testing.T) {
	s := newTestSession(t, 31)
	store := storage.NewMemoryStore()
	r := NewRunner(s, RunnerOptions{AutoReplayAfter: 0.5, AutoArchive: true, Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	require.Eventually(t, func() bool {
		return r.Snapshot().ReplaysCompleted >= 1
	}, 10*time.Second, 20*time.Millisecond, "Replay должен запуститься и завершиться автоматически")
	require.Eventually(t, func() bool {
		return store.Count() >= 1
	}, 5*time.Second, 20*time.Millisecond, "Архив сохраняется перед replay")

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-session", list[0].SessionID)

	cancel()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Runner не остановился")
	}
	err = r.Do(context.Background(), func(*Session) error { return nil })
	assert.True(t, errors.Is(err, ErrRunnerStopped))
}

func TestRunnerDo(t *testing.T) {
	s := newTestSession(t, 32)
	s.SetAutopilot(false)
	r := NewRunner(s, RunnerOptions{})
	assert.Equal(t, 3, len(r.Snapshot().Brawlers), "Начальный снимок доступен до запуска")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	var inputErr error
	err := r.Do(ctx, func(s *Session) error {
		s.StartReplay(ctx)
		inputErr = s.SetInput(Input{Fire: true})
		return nil
	})
	require.NoError(t, err)
	assert.True(t, errors.Is(inputErr, history.ErrReplaying), "Ввод отклоняется во время replay")

	require.Eventually(t, func() bool {
		return r.Snapshot().ReplaysCompleted == 1
	}, 5*time.Second, 10*time.Millisecond, "Снимок отражает завершение replay")
	assert.Equal(t, 3, len(r.Snapshot().Brawlers), "Replay восстанавливает стартовых NPC")

	failure := errors.New("boom")
	assert.Equal(t, failure, r.Do(ctx, func(*Session) error { return failure }), "Ошибка fn возвращается вызывающему")
}
