package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// StateStore is the engine-owned persisted state, namespaced per
// authenticated user: the derived notification list, a couple of
// counters, and the last-reload timestamp. Everything else the engine
// touches stays owned by the upstream data service.
type StateStore interface {
	Close() error
	ApplyMigrations(dir string) error

	GetNotifications(userID string) ([]models.Notification, error)
	SaveNotifications(userID string, notifications []models.Notification) error

	IncrCounter(userID, name string) (int64, error)
	GetCounter(userID, name string) (int64, error)

	GetLastReload(userID string) (time.Time, error)
	SetLastReload(userID string, ts time.Time) error

	// Purge drops every key in the user's namespace. Called when the
	// authenticated identity changes between sessions.
	Purge(userID string) error
}

// BaseStore provides common functionality for the SQL-backed
// implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) getValue(userID, key string) (string, bool, error) {
	var value string
	query := s.Converter(`
		SELECT value
		FROM user_state
		WHERE user_id = ?
		AND key = ?
	`)

	err := s.DB.Get(&value, query, userID, key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get state %s/%s: %w", userID, key, err)
	}
	return value, true, nil
}

func (s *BaseStore) setValue(userID, key, value string) error {
	query := s.Converter(`
		INSERT INTO user_state (user_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value
	`)
	if _, err := s.DB.Exec(query, userID, key, value); err != nil {
		return fmt.Errorf("failed to set state %s/%s: %w", userID, key, err)
	}
	return nil
}

func (s *BaseStore) GetNotifications(userID string) ([]models.Notification, error) {
	value, found, err := s.getValue(userID, KeyNotifications)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var notifications []models.Notification
	if err := json.Unmarshal([]byte(value), &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode stored notifications: %w", err)
	}
	return notifications, nil
}

func (s *BaseStore) SaveNotifications(userID string, notifications []models.Notification) error {
	data, err := json.Marshal(notifications)
	if err != nil {
		return fmt.Errorf("failed to encode notifications: %w", err)
	}
	return s.setValue(userID, KeyNotifications, string(data))
}

func (s *BaseStore) IncrCounter(userID, name string) (int64, error) {
	query := s.Converter(`
		INSERT INTO user_counters (user_id, name, value)
		VALUES (?, ?, 1)
		ON CONFLICT(user_id, name) DO UPDATE SET value = user_counters.value + 1
	`)
	if _, err := s.DB.Exec(query, userID, name); err != nil {
		return 0, fmt.Errorf("failed to increment counter %s/%s: %w", userID, name, err)
	}
	return s.GetCounter(userID, name)
}

func (s *BaseStore) GetCounter(userID, name string) (int64, error) {
	var value int64
	query := s.Converter(`
		SELECT value
		FROM user_counters
		WHERE user_id = ?
		AND name = ?
	`)

	err := s.DB.Get(&value, query, userID, name)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get counter %s/%s: %w", userID, name, err)
	}
	return value, nil
}

func (s *BaseStore) GetLastReload(userID string) (time.Time, error) {
	value, found, err := s.getValue(userID, KeyLastReload)
	if err != nil || !found {
		return time.Time{}, err
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored reload timestamp: %w", err)
	}
	return ts, nil
}

func (s *BaseStore) SetLastReload(userID string, ts time.Time) error {
	return s.setValue(userID, KeyLastReload, ts.UTC().Format(time.RFC3339))
}

func (s *BaseStore) Purge(userID string) error {
	stateQuery := s.Converter(`DELETE FROM user_state WHERE user_id = ?`)
	if _, err := s.DB.Exec(stateQuery, userID); err != nil {
		return fmt.Errorf("failed to purge state for %s: %w", userID, err)
	}
	counterQuery := s.Converter(`DELETE FROM user_counters WHERE user_id = ?`)
	if _, err := s.DB.Exec(counterQuery, userID); err != nil {
		return fmt.Errorf("failed to purge counters for %s: %w", userID, err)
	}
	return nil
}
