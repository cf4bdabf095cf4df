package session

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/brawl-replay/internal/command"
	"github.com/annel0/brawl-replay/internal/history"
	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/storage"
	"github.com/annel0/brawl-replay/internal/vec"
)

func testOptions(seed int64) Options {
	return Options{
		SessionID:      "test-session",
		Seed:           seed,
		TickRate:       30,
		SampleInterval: 0.1,
		NPCCount:       2,
		ArenaRadius:    8,
		Autopilot:      true,
	}
}

func newTestSession(t *testing.T, seed int64) *Session {
	t.Helper()
	s, err := New(testOptions(seed))
	require.NoError(t, err)
	return s
}

func runTicks(s *Session, n int) {
	for i := 0; i < n; i++ {
		s.Tick(s.TickInterval())
	}
}

func runReplay(t *testing.T, s *Session) {
	t.Helper()
	s.StartReplay(context.Background())
	for i := 0; s.History().IsReplaying(); i++ {
		require.Less(t, i, 100000, "Replay должен завершиться")
		s.Tick(s.TickInterval())
	}
}

func spawnedIDs(s *Session) []identity.ID {
	var ids []identity.ID
	for _, cmd := range s.History().Commands() {
		if id, ok := command.SpawnedID(cmd); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// npcNames имена NPC на арене по ID
func npcNames(s *Session) map[identity.ID]string {
	out := make(map[identity.ID]string)
	for _, b := range s.Game().Brawlers() {
		if !b.IsLocal() {
			out[b.ID()] = b.Name
		}
	}
	return out
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t, 42)

	require.NotNil(t, s.Game().Local())
	assert.Equal(t, LocalPlayerID, s.Game().Local().ID(), "Локальный игрок получает явный ID")
	assert.Equal(t, 3, s.Game().Len())
	assert.Equal(t, []identity.ID{2, 3}, spawnedIDs(s), "NPC получают ID после игрока")
	assert.Equal(t, 2, s.History().Len(), "Стартовые NPC записаны командами спауна")

	names := npcNames(s)
	assert.Equal(t, "colt#1", names[2])
	assert.Equal(t, "elprimo#1", names[3])

	assert.Equal(t, LocalPlayerID, s.HUD().Slot(1))
	assert.Equal(t, identity.ID(2), s.HUD().Slot(2))
	assert.Equal(t, identity.ID(3), s.HUD().Slot(3))

	layout := NewSpawnLayout(42, 8)
	for i, b := range s.Game().Brawlers()[1:] {
		assert.LessOrEqual(t, b.Position.DistanceTo(layout.Point(i)), SpawnJitter+1e-9,
			"Точка спауна смещается не больше чем на радиус разброса")
	}
}

func TestReplayReproducesIDs(t *testing.T) {
	s := newTestSession(t, 7)
	runTicks(s, 300)

	recorded := spawnedIDs(s)
	require.GreaterOrEqual(t, len(recorded), 2)
	namesAtEnd := npcNames(s)
	commands := s.History().Len()

	runReplay(t, s)

	assert.Equal(t, recorded, spawnedIDs(s), "Replay должен выдать те же ID в том же порядке")
	assert.Equal(t, namesAtEnd, npcNames(s), "Состав NPC после replay совпадает с записью")
	assert.Equal(t, commands, s.History().Len(), "Replay не добавляет команд")
	assert.Equal(t, LocalPlayerID, s.Game().Local().ID())
	assert.True(t, s.InputEnabled(), "Ввод включается после replay")
	assert.Equal(t, 1, s.ReplaysCompleted())
	assert.InDelta(t, 1.0, s.History().GetReplayProgress(), 1e-9)
}

func TestRestartAfterReplay(t *testing.T) {
	s := newTestSession(t, 11)
	runTicks(s, 120)
	runReplay(t, s)

	// Запись продолжается после replay и новые ID идут дальше
	runTicks(s, 120)
	recorded := spawnedIDs(s)
	for i := 1; i < len(recorded); i++ {
		assert.Greater(t, recorded[i], recorded[i-1], "ID спаунов возрастают")
	}

	runReplay(t, s)
	assert.Equal(t, recorded, spawnedIDs(s), "Повторный replay воспроизводит весь журнал")
	assert.Equal(t, 2, s.ReplaysCompleted())
	assert.Equal(t, LocalPlayerID, s.Local().ID(), "Локальный игрок сохраняет ID")
}

func TestStartReplayWhileReplayingRestarts(t *testing.T) {
	s := newTestSession(t, 3)
	runTicks(s, 60)

	s.StartReplay(context.Background())
	runTicks(s, 10)
	require.True(t, s.History().IsReplaying())

	s.StartReplay(context.Background())
	assert.Equal(t, 0, s.History().Cursor(), "Повторный старт начинает с начала")
	assert.Equal(t, 1, s.Game().Len(), "На арене остаётся только игрок")

	runReplay(t, s)
	assert.Equal(t, 1, s.ReplaysCompleted(), "Прерванный replay не считается завершённым")
}

func TestInputSuppressedDuringReplay(t *testing.T) {
	opts := testOptions(5)
	opts.Autopilot = false
	s, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, s.SetInput(Input{Move: vec.Vec2Float{X: 1}}))
	runTicks(s, 15)
	assert.Greater(t, s.Local().Position.X, 0.0, "Игрок движется по вводу")

	s.StartReplay(context.Background())
	assert.False(t, s.InputEnabled())
	assert.True(t, errors.Is(s.SetInput(Input{Fire: true}), history.ErrReplaying))
	assert.Equal(t, vec.Zero3, s.Local().Position, "Игрок возвращается в точку старта")

	s.StopReplay()
	assert.True(t, s.InputEnabled())
	assert.NoError(t, s.SetInput(Input{}))
	assert.Equal(t, 0, s.ReplaysCompleted())
}

func TestEmptyLogReplayCompletesImmediately(t *testing.T) {
	opts := testOptions(1)
	opts.NPCCount = 0
	s, err := New(opts)
	require.NoError(t, err)
	require.Equal(t, 0, s.History().Len())

	s.StartReplay(context.Background())
	runTicks(s, 1)
	assert.False(t, s.History().IsReplaying())
	assert.Equal(t, 1, s.ReplaysCompleted())
}

func TestArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, 99)
	runTicks(s, 200)

	a, err := s.Archive()
	require.NoError(t, err)
	assert.Equal(t, s.History().Len(), len(a.Records))
	assert.Equal(t, int64(99), a.Seed)
	assert.NotEmpty(t, a.ID)

	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(ctx, a))
	loaded, err := store.Load(ctx, a.ID)
	require.NoError(t, err)

	opts := testOptions(12345)
	opts.NPCCount = 0
	fresh, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, fresh.LoadArchive(loaded))
	assert.Equal(t, int64(99), fresh.Seed())
	assert.Equal(t, 1, fresh.Game().Len(), "После загрузки на арене только игрок")

	runReplay(t, fresh)
	assert.Equal(t, spawnedIDs(s), spawnedIDs(fresh), "Архив воспроизводится с теми же ID")
	assert.Equal(t, npcNames(s), npcNames(fresh))
}

func TestLoadArchiveRejectsBadRecords(t *testing.T) {
	s := newTestSession(t, 1)
	a, err := s.Archive()
	require.NoError(t, err)

	unknown := *a
	unknown.Records = append([]storage.Record{}, a.Records...)
	unknown.Records[0].Kind = "teleport"
	assert.True(t, errors.Is(s.LoadArchive(&unknown), command.ErrUnknownKind))

	unordered := *a
	unordered.Records = append([]storage.Record{}, a.Records...)
	unordered.Records = append(unordered.Records, storage.Record{Kind: "damage", Time: -1, Payload: []byte(`{"target":2,"amount":1}`)})
	assert.True(t, errors.Is(s.LoadArchive(&unordered), storage.ErrInvalidArchive))

	assert.Equal(t, 2, s.History().Len(), "Журнал не меняется при ошибке")
}

func TestVerifyArchive(t *testing.T) {
	s := newTestSession(t, 2024)
	runTicks(s, 150)
	a, err := s.Archive()
	require.NoError(t, err)

	report, err := Verify(a, testOptions(0))
	require.NoError(t, err)
	assert.True(t, report.Deterministic, report.Mismatch)
	assert.Equal(t, len(a.Records), report.Commands)
	assert.Equal(t, spawnedIDs(s), report.SpawnedIDs)
}

func TestSnapshot(t *testing.T) {
	s := newTestSession(t, 8)
	runTicks(s, 3)

	snap := s.Snapshot()
	assert.Equal(t, "test-session", snap.SessionID)
	assert.Equal(t, uint64(3), snap.Tick)
	assert.InDelta(t, 0.1, snap.Time, 1e-9)
	assert.Equal(t, "recording", snap.State)
	require.Len(t, snap.Brawlers, 3)
	assert.True(t, snap.Brawlers[0].Local)
	assert.Equal(t, 1, snap.Brawlers[0].HUDSlot)

	ids := make([]int, 0, len(snap.Brawlers))
	for _, b := range snap.Brawlers {
		ids = append(ids, int(b.ID))
	}
	assert.True(t, sort.IntsAreSorted(ids))
}

func TestSpawnLayoutDeterministic(t *testing.T) {
	a := NewSpawnLayout(77, 8)
	b := NewSpawnLayout(77, 8)

	for i := 0; i < 5; i++ {
		p := a.Next()
		assert.Equal(t, b.Point(i), p, "Точка зависит только от сида и индекса")
		assert.LessOrEqual(t, p.Length(), 8.0, "Точка внутри арены")
		assert.Greater(t, p.Length(), 0.0, "Точка не совпадает с центром")
	}

	b.Skip()
	b.Skip()
	assert.Equal(t, 2, b.Index())
	assert.Equal(t, a.Point(2), b.Next())

	a.Reset()
	assert.Equal(t, 0, a.Index())
	assert.Equal(t, vec.Zero3, a.LocalSpawn())
}
