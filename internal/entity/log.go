package entity

import (
	"time"

	"github.com/gofrs/uuid"
)

// LogLevel mirrors the server config's zapfr.loglevel enum.
type LogLevel string

const (
	LogDebug   LogLevel = "debug"
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// Log is a diagnostic record, optionally scoped to a feed.
type Log struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	FeedID    uuid.UUID `json:"feedId,omitempty"`
}
