// Package config handles stamp client configuration.
//
// Settings are layered with increasing precedence:
//   - Built-in defaults
//   - A key = value config file
//   - GitHub Action inputs (INPUT_<KEY> environment variables)
//   - Command-line flags
package config

import (
	"time"
)

// Config holds the settings for one stamp run.
type Config struct {
	// Core inputs
	Path       string `conf:"path"`
	Node       string `conf:"node"`
	Mnemonic   string `conf:"mnemonic"`
	OTRAddress string `conf:"otr_address"`

	// Stamp economics
	Days          uint64 `conf:"days"`
	RequestAmount uint64 `conf:"request_amount"`

	Poll    PollConfig
	RPC     RPCConfig
	Upload  UploadConfig
	Archive ArchiveConfig
	State   StateConfig
	Metrics MetricsConfig
	Log     LogConfig
}

// PollConfig bounds the wait for a transaction to be consumed.
type PollConfig struct {
	Interval time.Duration `conf:"poll.interval"`
	Attempts int           `conf:"poll.attempts"`
}

// RPCConfig holds ledger client settings.
type RPCConfig struct {
	Timeout time.Duration `conf:"rpc.timeout"`
	Rate    int           `conf:"rpc.rate"` // Requests per second, 0 = unlimited.
}

// UploadConfig holds the file-hosting endpoint.
type UploadConfig struct {
	URL   string `conf:"upload.url"`
	Token string `conf:"upload.token"`
}

// ArchiveConfig holds archive settings.
type ArchiveConfig struct {
	Output string `conf:"archive.output"`
}

// StateConfig locates the run journal. An empty Dir keeps it in memory.
type StateConfig struct {
	Dir string `conf:"state.dir"`
}

// MetricsConfig holds the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `conf:"metrics.addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}
