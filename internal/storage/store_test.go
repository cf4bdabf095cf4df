package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore общий сценарий для всех реализаций Store
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	older := sampleArchive("older", base)
	newer := sampleArchive("newer", base.Add(time.Minute))
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID, "Новые архивы должны идти первыми")
	assert.Equal(t, "older", list[1].ID)
	assert.Equal(t, 3, list[0].Commands)

	loaded, err := store.Load(ctx, "older")
	require.NoError(t, err)
	assert.Equal(t, int64(42), loaded.Seed)
	assert.Len(t, loaded.Records, 3)

	_, err = store.Load(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "Отсутствующий архив должен давать ErrNotFound")

	invalid := sampleArchive("", base)
	assert.True(t, errors.Is(store.Save(ctx, invalid), ErrInvalidArchive))

	require.NoError(t, store.Delete(ctx, "older"))
	assert.True(t, errors.Is(store.Delete(ctx, "older"), ErrNotFound), "Повторное удаление должно давать ErrNotFound")

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	exerciseStore(t, store)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, sampleArchive("a", time.Now())), context.Canceled)
	_, err := store.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadgerStoreInMemory(t *testing.T) {
	store, err := NewInMemoryBadgerStore()
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestBadgerStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleArchive("persisted", time.Now().UTC())))
	require.NoError(t, store.Close())

	_, err = store.Load(ctx, "persisted")
	assert.Error(t, err, "Закрытое хранилище должно возвращать ошибку")

	reopened, err := NewBadgerStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted", loaded.ID, "Архив должен пережить переоткрытие")
}
