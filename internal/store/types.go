package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
	DBTypeRedis    DatabaseType = "redis"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// state keys the engine persists per authenticated user
const (
	KeyNotifications = "notifications"
	KeyLastReload    = "last_reload"
)

// CounterMessagesSent counts review feedback messages sent by the user.
const CounterMessagesSent = "messages_sent"
