package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrNotFound архив не найден
	ErrNotFound = errors.New("архив не найден")
	// ErrInvalidArchive архив не прошёл проверку
	ErrInvalidArchive = errors.New("некорректный архив")
)

// Record запись одной команды журнала
type Record struct {
	Kind    string          `json:"kind"`
	Time    float64         `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// Archive сохранённая сессия: сид и упорядоченный журнал команд
type Archive struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
	Duration  float64   `json:"duration"`
	Records   []Record  `json:"records"`
}

// Summary краткое описание архива для списков
type Summary struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
	Duration  float64   `json:"duration"`
	Commands  int       `json:"commands"`
}

// Summary возвращает краткое описание архива
func (a *Archive) Summary() Summary {
	return Summary{
		ID:        a.ID,
		SessionID: a.SessionID,
		Seed:      a.Seed,
		CreatedAt: a.CreatedAt,
		Duration:  a.Duration,
		Commands:  len(a.Records),
	}
}

// Validate проверяет ID и порядок меток времени
func (a *Archive) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: пустой ID", ErrInvalidArchive)
	}
	for i, r := range a.Records {
		if r.Kind == "" {
			return fmt.Errorf("%w: запись %d без вида", ErrInvalidArchive, i)
		}
		if i > 0 && r.Time < a.Records[i-1].Time {
			return fmt.Errorf("%w: запись %d (%.3fs) раньше предыдущей", ErrInvalidArchive, i, r.Time)
		}
	}
	return nil
}

// Store хранилище архивов сессий.
type Store interface {
	// Save сохраняет (или перезаписывает) архив
	Save(ctx context.Context, a *Archive) error
	// Load возвращает архив или ErrNotFound
	Load(ctx context.Context, id string) (*Archive, error)
	// List возвращает описания архивов, новые первыми
	List(ctx context.Context) ([]Summary, error)
	// Delete удаляет архив или возвращает ErrNotFound
	Delete(ctx context.Context, id string) error
	// Close освобождает ресурсы
	Close() error
}

// sortSummaries сортирует описания: новые первыми, при равенстве по ID
func sortSummaries(list []Summary) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
