package server

import (
	"github.com/mehrguard/mehrguard/internal/engine"
	"github.com/mehrguard/mehrguard/internal/logging"
)

// Config holds the server's runtime settings.
type Config struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string

	// HistoryPath is the SQLite database file for scan history.
	// ":memory:" keeps history for the lifetime of the process only.
	HistoryPath string

	// HistoryLimitMax caps the limit query parameter on GET /history.
	HistoryLimitMax int

	// EngineConfig overrides the engine policy; nil uses defaults.
	EngineConfig *engine.Config

	// Logger defaults to a JSON stdout logger.
	Logger logging.Logger
}

// DefaultConfig returns development defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":8080",
		HistoryPath:     ":memory:",
		HistoryLimitMax: 200,
	}
}
