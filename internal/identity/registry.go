package identity

import "sync"

// ID уникальный идентификатор сущности в рамках сессии. 0 означает "не назначен".
type ID uint64

// None пустой идентификатор
const None ID = 0

// Identifiable сущность, которой реестр может выдать ID
type Identifiable interface {
	SetID(id ID)
}

// Registry выдаёт монотонно возрастающие ID начиная с 1.
// Сбрасывается только протоколом перезапуска replay.
type Registry struct {
	mu     sync.Mutex
	nextID ID
}

// NewRegistry создаёт реестр со счётчиком 1
func NewRegistry() *Registry {
	return &Registry{nextID: 1}
}

// NextID возвращает текущее значение счётчика и увеличивает его
func (r *Registry) NextID() ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	return id
}

// Peek возвращает ID, который будет выдан следующим
func (r *Registry) Peek() ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID
}

// ResetCounter возвращает счётчик к 1
func (r *Registry) ResetCounter() {
	r.mu.Lock()
	r.nextID = 1
	r.mu.Unlock()
}

// AssignExplicitID назначает сущности заданный ID.
// Счётчик сдвигается за него, чтобы NextID не выдал дубликат.
func (r *Registry) AssignExplicitID(entity Identifiable, id ID) {
	r.mu.Lock()
	if id >= r.nextID {
		r.nextID = id + 1
	}
	r.mu.Unlock()

	if entity != nil {
		entity.SetID(id)
	}
}
