package command

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/brawl-replay/internal/identity"
	"github.com/annel0/brawl-replay/internal/vec"
)

// fakeWorld минимальная симуляция для проверки команд
type fakeWorld struct {
	spawned   []SpawnRequest
	positions map[identity.ID]vec.Vec3
	health    map[identity.ID]float64
	// locatorSeen фиксирует, был ли локатор заполнен к моменту спауна
	locator     *Locator
	locatorSeen []bool
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		positions: make(map[identity.ID]vec.Vec3),
		health:    make(map[identity.ID]float64),
	}
}

func (w *fakeWorld) SpawnBrawler(req SpawnRequest) error {
	if w.locator != nil {
		_, ok := w.locator.Lookup(req.ID)
		w.locatorSeen = append(w.locatorSeen, ok)
	}
	w.spawned = append(w.spawned, req)
	w.positions[req.ID] = req.Position
	w.health[req.ID] = 100
	return nil
}

func (w *fakeWorld) ApplyDamage(id identity.ID, amount float64) bool {
	hp, ok := w.health[id]
	if !ok {
		return false
	}
	w.health[id] = hp - amount
	return true
}

func (w *fakeWorld) SetTransform(id identity.ID, pos vec.Vec3, _ vec.Quat) bool {
	if _, ok := w.positions[id]; !ok {
		return false
	}
	w.positions[id] = pos
	return true
}

func TestSpawn(t *testing.T) {
	world := newFakeWorld()
	ctx := NewContext(world, 7)
	world.locator = ctx.Locator

	a := NewSpawn("colt", vec.Vec3{X: 1}, vec.Identity, false)
	b := NewSpawn("colt", vec.Vec3{X: 2}, vec.Identity, false)

	require.NoError(t, a.Execute(ctx))
	require.NoError(t, b.Execute(ctx))

	idA, ok := SpawnedID(a)
	require.True(t, ok)
	idB, _ := SpawnedID(b)
	assert.Equal(t, identity.ID(1), idA)
	assert.Equal(t, identity.ID(2), idB)

	t.Run("Локатор заполняется до объявления сущности", func(t *testing.T) {
		assert.Equal(t, []bool{true, true}, world.locatorSeen)
		found, ok := ctx.Locator.Lookup(idB)
		require.True(t, ok)
		assert.Same(t, b, found)
	})

	t.Run("Порядковые номера по классу", func(t *testing.T) {
		assert.Equal(t, 1, world.spawned[0].Ordinal)
		assert.Equal(t, 2, world.spawned[1].Ordinal)
	})

	t.Run("Reset очищает назначенный ID", func(t *testing.T) {
		a.Reset()
		_, ok := SpawnedID(a)
		assert.False(t, ok)
	})
}

func TestSpawnJitterIsDeterministic(t *testing.T) {
	run := func(seed int64) vec.Vec3 {
		world := newFakeWorld()
		ctx := NewContext(world, seed)
		cmd := New(&Spawn{Class: "colt", Rotation: vec.Identity, Jitter: 3})
		require.NoError(t, cmd.Execute(ctx))
		return world.spawned[0].Position
	}

	first := run(99)
	assert.Equal(t, first, run(99), "Одинаковый сид даёт одинаковую точку")
	assert.LessOrEqual(t, first.Length(), 3.0)
}

func TestDamageAndTransform(t *testing.T) {
	world := newFakeWorld()
	ctx := NewContext(world, 1)
	require.NoError(t, NewSpawn("elprimo", vec.Zero3, vec.Identity, false).Execute(ctx))

	require.NoError(t, NewDamage(identity.None, 1, 30).Execute(ctx))
	assert.InDelta(t, 70.0, world.health[1], 1e-9)

	require.NoError(t, NewTransform(1, vec.Vec3{X: 5}, vec.YawQuat(90)).Execute(ctx))
	assert.Equal(t, vec.Vec3{X: 5}, world.positions[1])

	t.Run("Отсутствующая цель", func(t *testing.T) {
		err := NewDamage(identity.None, 42, 10).Execute(ctx)
		assert.True(t, errors.Is(err, ErrTargetNotFound))

		err = NewTransform(42, vec.Zero3, vec.Identity).Execute(ctx)
		assert.True(t, errors.Is(err, ErrTargetNotFound))
	})
}

func TestExecuteErrors(t *testing.T) {
	cmd := NewDamage(identity.None, 1, 1)
	assert.ErrorIs(t, cmd.Execute(nil), ErrNoContext)

	unknown := &Command{Kind: "teleport"}
	assert.ErrorIs(t, unknown.Execute(NewContext(newFakeWorld(), 1)), ErrUnknownKind)
}

func TestCatalogDecode(t *testing.T) {
	assert.Equal(t, []Kind{KindDamage, KindSpawn, KindTransform}, Kinds())

	orig := NewSpawn("colt", vec.Vec3{X: 1, Z: -2}, vec.YawQuat(30), true)
	raw, err := EncodePayload(orig)
	require.NoError(t, err)

	decoded, err := Decode(KindSpawn, 1.5, raw)
	require.NoError(t, err)
	assert.Equal(t, KindSpawn, decoded.Kind)
	assert.Equal(t, 1.5, decoded.ExecutionTime)
	assert.Equal(t, orig.Payload, decoded.Payload)

	_, err = Decode("teleport", 0, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLocator(t *testing.T) {
	l := NewLocator()
	_, ok := l.Lookup(1)
	assert.False(t, ok, "Незарегистрированный ID не должен находиться")

	cmd := NewSpawn("colt", vec.Zero3, vec.Identity, false)
	l.RegisterCommandForModel(1, cmd)
	l.RegisterCommandForModel(1, cmd)
	assert.Equal(t, 1, l.Len())

	l.Unregister(1)
	assert.Equal(t, 0, l.Len())

	l.RegisterCommandForModel(2, cmd)
	l.Clear()
	_, ok = l.Lookup(2)
	assert.False(t, ok)
}
