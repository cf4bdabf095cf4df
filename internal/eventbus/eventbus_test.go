package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brawlerPayload struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

func TestNewEnvelope(t *testing.T) {
	ev, err := NewEnvelope("session", TypeBrawlerAdded, "sess-1", 1, brawlerPayload{ID: 2, Name: "colt#1"})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, TypeBrawlerAdded, ev.EventType)
	assert.Equal(t, "sess-1", ev.CorrelationID)

	var p brawlerPayload
	require.NoError(t, ev.Decode(&p))
	assert.Equal(t, "colt#1", p.Name)

	other, _ := NewEnvelope("session", TypeBrawlerAdded, "", 1, nil)
	assert.NotEqual(t, ev.ID, other.ID, "ID событий уникальны")
}

func TestMemoryBusDelivery(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var mu sync.Mutex
	var got []string
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{TypeReplayStarted}}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)

	for _, typ := range []string{TypeBrawlerAdded, TypeReplayStarted} {
		ev, _ := NewEnvelope("test", typ, "", 5, nil)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond, "Фильтр должен пропустить только ReplayStarted")
	assert.Equal(t, uint64(2), bus.Metrics().Published)
}

func TestMemoryBusDropsLowPriority(t *testing.T) {
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, 1),
		capacity:    1,
		quit:        make(chan struct{}),
	}
	// dispatchLoop не запущен: буфер не разгружается
	ev, _ := NewEnvelope("test", TypeBrawlerAdded, "", 0, nil)
	require.NoError(t, mb.Publish(context.Background(), ev))
	require.NoError(t, mb.Publish(context.Background(), ev))
	assert.Equal(t, uint64(1), mb.Metrics().Dropped)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	high, _ := NewEnvelope("test", TypeReplayStarted, "", 9, nil)
	assert.ErrorIs(t, mb.Publish(ctx, high), context.Canceled)
}

func TestMemoryBusClose(t *testing.T) {
	bus := NewMemoryBus(4)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	ev, _ := NewEnvelope("test", TypeBrawlerAdded, "", 0, nil)
	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrClosed)
}

func TestMetricsExporterCollect(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()
	exp := NewMetricsExporter(bus, prometheus.NewRegistry())

	ev, _ := NewEnvelope("test", TypeBrawlerAdded, "", 0, nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Publish(context.Background(), ev))

	prev := exp.Collect(Stats{})
	assert.Equal(t, 2.0, testutil.ToFloat64(exp.published))

	exp.Collect(prev)
	assert.Equal(t, 2.0, testutil.ToFloat64(exp.published), "Повторный сбор не удваивает счётчик")
}

func TestGlobalPublish(t *testing.T) {
	Init(nil)
	ev, _ := NewEnvelope("test", TypeBrawlerAdded, "", 0, nil)
	assert.NoError(t, Publish(context.Background(), ev), "Без шины публикация игнорируется")

	bus := NewMemoryBus(4)
	defer bus.Close()
	Init(bus)
	defer Init(nil)
	require.NoError(t, Publish(context.Background(), ev))
	assert.Same(t, bus, Global())
}
