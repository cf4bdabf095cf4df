package command

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetNotFound цель команды отсутствует в симуляции
	ErrTargetNotFound = errors.New("цель команды не найдена")
	// ErrUnknownKind для вида команды не зарегистрирован обработчик
	ErrUnknownKind = errors.New("неизвестный вид команды")
	// ErrNoContext команда выполнена без контекста
	ErrNoContext = errors.New("контекст команды не задан")
)

// Kind вид команды
type Kind string

const (
	KindSpawn     Kind = "spawn"
	KindDamage    Kind = "damage"
	KindTransform Kind = "transform"
)

// Payload данные команды конкретного вида
type Payload interface {
	Kind() Kind
}

// resettable полезная нагрузка с состоянием, накопленным при выполнении
type resettable interface {
	Reset()
}

// Command записанное игровое действие с меткой времени.
// ExecutionTime выставляет только история при записи.
type Command struct {
	Kind          Kind
	ExecutionTime float64
	Payload       Payload
}

// New создаёт команду по полезной нагрузке
func New(p Payload) *Command {
	return &Command{Kind: p.Kind(), Payload: p}
}

// Execute применяет команду к симуляции через контекст.
// Повторный вызов после Reset допустим, так работает replay.
func (c *Command) Execute(ctx *Context) error {
	if ctx == nil {
		return ErrNoContext
	}
	entry, ok := lookup(c.Kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, c.Kind)
	}
	return entry.Apply(ctx, c)
}

// Reset сбрасывает состояние экземпляра (например, назначенный ID спауна)
func (c *Command) Reset() {
	if r, ok := c.Payload.(resettable); ok {
		r.Reset()
	}
}

// String короткое описание для логов
func (c *Command) String() string {
	return fmt.Sprintf("%s@%.3fs", c.Kind, c.ExecutionTime)
}
