package command

import (
	"sync"

	"github.com/annel0/brawl-replay/internal/identity"
)

// Locator связывает ID сущности с командой, которая её создала
type Locator struct {
	mu       sync.RWMutex
	commands map[identity.ID]*Command
}

// NewLocator создаёт пустой локатор
func NewLocator() *Locator {
	return &Locator{commands: make(map[identity.ID]*Command)}
}

// RegisterCommandForModel записывает (или перезаписывает) команду-источник сущности
func (l *Locator) RegisterCommandForModel(id identity.ID, cmd *Command) {
	l.mu.Lock()
	l.commands[id] = cmd
	l.mu.Unlock()
}

// Lookup возвращает команду-источник; (nil, false) если сущность не регистрировалась
func (l *Locator) Lookup(id identity.ID) (*Command, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cmd, ok := l.commands[id]
	return cmd, ok
}

// Unregister удаляет запись сущности
func (l *Locator) Unregister(id identity.ID) {
	l.mu.Lock()
	delete(l.commands, id)
	l.mu.Unlock()
}

// Clear удаляет все записи
func (l *Locator) Clear() {
	l.mu.Lock()
	l.commands = make(map[identity.ID]*Command)
	l.mu.Unlock()
}

// Len количество записей
func (l *Locator) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.commands)
}
