package command

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// ApplyFunc выполняет команду своего вида
type ApplyFunc func(ctx *Context, cmd *Command) error

// DecodeFunc восстанавливает полезную нагрузку из архива
type DecodeFunc func(raw json.RawMessage) (Payload, error)

type entry struct {
	Apply  ApplyFunc
	Decode DecodeFunc
}

var (
	catalogMu sync.RWMutex
	catalog   = make(map[Kind]entry)
)

// Register добавляет вид команды в каталог. Повторная регистрация заменяет обработчик.
func Register(kind Kind, apply ApplyFunc, decode DecodeFunc) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	catalog[kind] = entry{Apply: apply, Decode: decode}
}

func lookup(kind Kind) (entry, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	e, ok := catalog[kind]
	return e, ok
}

// IsRegistered проверяет, известен ли вид команды
func IsRegistered(kind Kind) bool {
	_, ok := lookup(kind)
	return ok
}

// Kinds возвращает зарегистрированные виды в стабильном порядке
func Kinds() []Kind {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	kinds := make([]Kind, 0, len(catalog))
	for k := range catalog {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// EncodePayload сериализует полезную нагрузку для архива
func EncodePayload(cmd *Command) (json.RawMessage, error) {
	data, err := json.Marshal(cmd.Payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации команды %s: %w", cmd.Kind, err)
	}
	return data, nil
}

// Decode восстанавливает команду из архивной записи
func Decode(kind Kind, executionTime float64, raw json.RawMessage) (*Command, error) {
	e, ok := lookup(kind)
	if !ok || e.Decode == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	p, err := e.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("ошибка десериализации команды %s: %w", kind, err)
	}
	return &Command{Kind: kind, ExecutionTime: executionTime, Payload: p}, nil
}

func decodeInto[T Payload](raw json.RawMessage, p T) (Payload, error) {
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, err
	}
	return p, nil
}
