package history

import (
	"sync"
	"time"
)

// Clock источник времени сессии в секундах
type Clock interface {
	Now() float64
}

// WallClock реальное время с момента создания
type WallClock struct {
	origin time.Time
}

// NewWallClock создаёт часы с началом отсчёта "сейчас"
func NewWallClock() *WallClock {
	return &WallClock{origin: time.Now()}
}

func (c *WallClock) Now() float64 {
	return time.Since(c.origin).Seconds()
}

// ManualClock часы, которые двигает симуляция фиксированным шагом тика
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

// NewManualClock создаёт часы на нуле
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает время вперёд на dt секунд
func (c *ManualClock) Advance(dt float64) {
	c.mu.Lock()
	c.now += dt
	c.mu.Unlock()
}

// Set устанавливает абсолютное время
func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
