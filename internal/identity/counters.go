package identity

import "sync"

// Counters счётчики порядковых номеров по доменам (например, сколько раз
// спаунился каждый класс бойца). Сбрасываются вместе с реестром.
type Counters struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounters создаёт пустой набор счётчиков
func NewCounters() *Counters {
	return &Counters{counts: make(map[string]int)}
}

// Next возвращает следующий порядковый номер домена, начиная с 1
func (c *Counters) Next(domain string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[domain]++
	return c.counts[domain]
}

// Get возвращает текущее значение счётчика домена
func (c *Counters) Get(domain string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[domain]
}

// Reset обнуляет все счётчики
func (c *Counters) Reset() {
	c.mu.Lock()
	c.counts = make(map[string]int)
	c.mu.Unlock()
}
