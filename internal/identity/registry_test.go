package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubEntity struct{ id ID }

func (s *stubEntity) SetID(id ID) { s.id = id }

func TestRegistry(t *testing.T) {
	t.Run("Выдача начинается с 1", func(t *testing.T) {
		r := NewRegistry()
		assert.Equal(t, ID(1), r.NextID())
		assert.Equal(t, ID(2), r.NextID())
		assert.Equal(t, ID(3), r.NextID())
		assert.Equal(t, ID(4), r.Peek())
	})

	t.Run("ResetCounter возвращает к 1", func(t *testing.T) {
		r := NewRegistry()
		r.NextID()
		r.NextID()
		r.NextID()
		r.ResetCounter()
		assert.Equal(t, ID(1), r.NextID())
	})

	t.Run("Явный ID сдвигает счётчик", func(t *testing.T) {
		r := NewRegistry()
		e := &stubEntity{}
		r.AssignExplicitID(e, 5)
		assert.Equal(t, ID(5), e.id)
		assert.Equal(t, ID(6), r.NextID(), "Следующий ID должен быть за назначенным")
	})

	t.Run("Явный ID ниже счётчика не откатывает его", func(t *testing.T) {
		r := NewRegistry()
		for i := 0; i < 4; i++ {
			r.NextID()
		}
		e := &stubEntity{}
		r.AssignExplicitID(e, 2)
		assert.Equal(t, ID(2), e.id)
		assert.Equal(t, ID(5), r.NextID())
	})
}

func TestCounters(t *testing.T) {
	c := NewCounters()
	assert.Equal(t, 1, c.Next("colt"))
	assert.Equal(t, 2, c.Next("colt"))
	assert.Equal(t, 1, c.Next("elprimo"))
	assert.Equal(t, 2, c.Get("colt"))

	c.Reset()
	assert.Equal(t, 0, c.Get("colt"))
	assert.Equal(t, 1, c.Next("colt"))
}
