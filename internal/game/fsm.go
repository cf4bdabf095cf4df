package game

// State представляет состояние конечного автомата
type State[T any] interface {
	Enter(ctx T)
	Update(ctx T, dt float64) State[T]
	Exit(ctx T)
}

// healthListener состояние, реагирующее на изменение здоровья
type healthListener[T any] interface {
	OnHealthChanged(ctx T, prev, cur float64) State[T]
}

// Machine конечный автомат с контекстом T
type Machine[T any] struct {
	ctx     T
	current State[T]
}

// NewMachine создаёт автомат и входит в начальное состояние
func NewMachine[T any](ctx T, initial State[T]) *Machine[T] {
	m := &Machine[T]{ctx: ctx}
	m.SetState(initial)
	return m
}

// SetState принудительно переводит автомат в состояние
func (m *Machine[T]) SetState(state State[T]) {
	if m.current != nil {
		m.current.Exit(m.ctx)
	}

	m.current = state

	if m.current != nil {
		m.current.Enter(m.ctx)
	}
}

// Current текущее состояние
func (m *Machine[T]) Current() State[T] {
	return m.current
}

// Update обновляет текущее состояние
func (m *Machine[T]) Update(dt float64) {
	if m.current == nil {
		return
	}
	m.transition(m.current.Update(m.ctx, dt))
}

// HealthChanged передаёт изменение здоровья текущему состоянию
func (m *Machine[T]) HealthChanged(prev, cur float64) {
	if l, ok := m.current.(healthListener[T]); ok {
		m.transition(l.OnHealthChanged(m.ctx, prev, cur))
	}
}

func (m *Machine[T]) transition(next State[T]) {
	if next != nil && next != m.current {
		m.SetState(next)
	}
}
