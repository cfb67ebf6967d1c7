package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

// setupTestDB creates an in-memory SQLite database and initializes schema
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	schema := `
	CREATE TABLE IF NOT EXISTS user_state (
		user_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (user_id, key)
	);

	CREATE TABLE IF NOT EXISTS user_counters (
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		value INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, name)
	);`

	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err, "Failed to create store")

	_, err = s.DB.Exec(schema)
	require.NoError(t, err, "Failed to create schema")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

func TestNotificationRoundTrip(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := s.GetNotifications("user1")
	require.NoError(t, err)
	assert.Nil(t, got, "empty namespace reads as no notifications")

	notifications := []models.Notification{
		{ID: "sub_1", Title: "New submission", Read: false, CreatedAt: time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)},
		{ID: "sub_2", Title: "New submission", Read: true, CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, s.SaveNotifications("user1", notifications))

	got, err = s.GetNotifications("user1")
	require.NoError(t, err)
	assert.Equal(t, notifications, got)

	// overwrite replaces, not appends
	require.NoError(t, s.SaveNotifications("user1", notifications[:1]))
	got, err = s.GetNotifications("user1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCounters(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	value, err := s.GetCounter("user1", store.CounterMessagesSent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), value)

	for i := 1; i <= 3; i++ {
		value, err = s.IncrCounter("user1", store.CounterMessagesSent)
		require.NoError(t, err)
		assert.Equal(t, int64(i), value)
	}

	// другой пользователь считается отдельно
	value, err = s.IncrCounter("user2", store.CounterMessagesSent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)
}

func TestLastReload(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	ts, err := s.GetLastReload("user1")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	when := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetLastReload("user1", when))

	ts, err = s.GetLastReload("user1")
	require.NoError(t, err)
	assert.Equal(t, when, ts)
}

func TestPurgeDropsWholeNamespace(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.SaveNotifications("user1", []models.Notification{{ID: "sub_1"}}))
	_, err := s.IncrCounter("user1", store.CounterMessagesSent)
	require.NoError(t, err)
	require.NoError(t, s.SetLastReload("user1", time.Now()))

	require.NoError(t, s.SaveNotifications("user2", []models.Notification{{ID: "sub_9"}}))

	require.NoError(t, s.Purge("user1"))

	got, err := s.GetNotifications("user1")
	require.NoError(t, err)
	assert.Nil(t, got)

	count, err := s.GetCounter("user1", store.CounterMessagesSent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// the other user's namespace is untouched
	got, err = s.GetNotifications("user2")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
