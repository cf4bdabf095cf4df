package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MariaStore реализует Store для базы данных MariaDB/MySQL.
// Использует таблицу replay_archives: метаданные в колонках, журнал в BLOB.
type MariaStore struct {
	db    *sql.DB
	codec *Codec
}

// NewMariaStore создает новое хранилище архивов для MariaDB.
// Автоматически создает таблицу, если она не существует.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname?parseTime=true)
func NewMariaStore(ctx context.Context, dsn string) (*MariaStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	codec, err := NewCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	store := &MariaStore{db: db, codec: codec}

	// Создаем таблицу, если она не существует
	if err := store.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return store, nil
}

// createTable создает таблицу replay_archives, если она не существует.
func (s *MariaStore) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS replay_archives (
			id         VARCHAR(64)  PRIMARY KEY,
			session_id VARCHAR(64)  NOT NULL,
			seed       BIGINT       NOT NULL,
			created_at DATETIME(6)  NOT NULL,
			duration   DOUBLE       NOT NULL,
			commands   INT          NOT NULL,
			payload    MEDIUMBLOB   NOT NULL,
			INDEX idx_created_at (created_at)
		) ENGINE=InnoDB
	`

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы replay_archives: %w", err)
	}

	return nil
}

// Save сохраняет архив.
// Использует INSERT ... ON DUPLICATE KEY UPDATE для перезаписи существующих.
func (s *MariaStore) Save(ctx context.Context, a *Archive) error {
	if err := a.Validate(); err != nil {
		return err
	}
	data, err := s.codec.Encode(a)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO replay_archives (id, session_id, seed, created_at, duration, commands, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			session_id = VALUES(session_id),
			seed = VALUES(seed),
			created_at = VALUES(created_at),
			duration = VALUES(duration),
			commands = VALUES(commands),
			payload = VALUES(payload)
	`

	_, err = s.db.ExecContext(ctx, query, a.ID, a.SessionID, a.Seed, a.CreatedAt.UTC(), a.Duration, len(a.Records), data)
	if err != nil {
		return fmt.Errorf("ошибка сохранения архива %s: %w", a.ID, err)
	}
	return nil
}

// Load загружает архив
func (s *MariaStore) Load(ctx context.Context, id string) (*Archive, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM replay_archives WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки архива %s: %w", id, err)
	}
	return s.codec.Decode(data)
}

// List возвращает описания без чтения BLOB
func (s *MariaStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seed, created_at, duration, commands
		FROM replay_archives
		ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка архивов: %w", err)
	}
	defer rows.Close()

	list := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.SessionID, &sm.Seed, &sm.CreatedAt, &sm.Duration, &sm.Commands); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки: %w", err)
		}
		list = append(list, sm)
	}
	return list, rows.Err()
}

// Delete удаляет архив
func (s *MariaStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM replay_archives WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления архива %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (s *MariaStore) Close() error {
	return s.db.Close()
}
