package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

const (
	archivePrefix = "archive:"
	summaryPrefix = "summary:"
)

// BadgerStore хранит архивы в BadgerDB.
// Ключи: archive:<id> → закодированный архив, summary:<id> → JSON описания.
type BadgerStore struct {
	db      *badger.DB
	dbPath  string
	codec   *Codec
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerStore открывает хранилище в каталоге dataPath
func NewBadgerStore(dataPath string) (*BadgerStore, error) {
	dbPath := filepath.Clean(dataPath)
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return openBadger(opts, dbPath)
}

// NewInMemoryBadgerStore открывает BadgerDB без диска (для тестов и CLI-проверок)
func NewInMemoryBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts, "")
}

func openBadger(opts badger.Options, dbPath string) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	codec, err := NewCodec()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BadgerStore{
		db:      db,
		dbPath:  dbPath,
		codec:   codec,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	return s.db.Close()
}

func (s *BadgerStore) ready() error {
	if !s.isReady {
		return fmt.Errorf("хранилище закрыто")
	}
	return nil
}

// Save сохраняет архив и его описание одной транзакцией
func (s *BadgerStore) Save(ctx context.Context, a *Archive) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}

	data, err := s.codec.Encode(a)
	if err != nil {
		return err
	}
	summary, err := encodeSummary(a.Summary())
	if err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(archivePrefix+a.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(summaryPrefix+a.ID), summary)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения архива %s: %w", a.ID, err)
	}
	return nil
}

// Load загружает архив
func (s *BadgerStore) Load(ctx context.Context, id string) (*Archive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(archivePrefix + id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки архива %s: %w", id, err)
	}
	return s.codec.Decode(data)
}

// List читает только описания, не распаковывая архивы
func (s *BadgerStore) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	list := []Summary{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(summaryPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				summary, err := decodeSummary(val)
				if err != nil {
					return fmt.Errorf("описание %s: %w", strings.TrimPrefix(string(item.Key()), summaryPrefix), err)
				}
				list = append(list, summary)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка архивов: %w", err)
	}
	sortSummaries(list)
	return list, nil
}

// Delete удаляет архив и описание
func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(archivePrefix + id)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(archivePrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(summaryPrefix + id))
	})
	if err == badger.ErrKeyNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("ошибка удаления архива %s: %w", id, err)
	}
	return nil
}
