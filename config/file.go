package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is prepended to upper-cased keys to form GitHub Action input
// variables, e.g. otr_address -> INPUT_OTR_ADDRESS.
const EnvPrefix = "INPUT_"

// Keys lists every settable key in file order.
var Keys = []string{
	"path", "node", "mnemonic", "otr_address",
	"days", "request_amount",
	"poll.interval", "poll.attempts",
	"rpc.timeout", "rpc.rate",
	"upload.url", "upload.token",
	"archive.output",
	"state.dir",
	"metrics.addr",
	"log.level", "log.json", "log.file",
}

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// EnvKey returns the environment variable carrying key.
func EnvKey(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return EnvPrefix + strings.ToUpper(r.Replace(key))
}

// LoadEnv collects the non-empty INPUT_* variables for every known key.
// The Actions runner sets unset optional inputs to "", so empty values are
// treated as absent.
func LoadEnv(getenv func(string) string) map[string]string {
	values := make(map[string]string)
	for _, key := range Keys {
		if v := strings.TrimSpace(getenv(EnvKey(key))); v != "" {
			values[key] = v
		}
	}
	return values
}

// ApplyValues applies key/value settings to a Config struct.
func ApplyValues(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	var err error
	switch key {
	// Core
	case "path":
		cfg.Path = value
	case "node":
		cfg.Node = value
	case "mnemonic":
		cfg.Mnemonic = value
	case "otr_address":
		cfg.OTRAddress = value

	// Stamp
	case "days":
		cfg.Days, err = strconv.ParseUint(value, 10, 64)
	case "request_amount":
		cfg.RequestAmount, err = strconv.ParseUint(value, 10, 64)

	// Polling
	case "poll.interval":
		cfg.Poll.Interval, err = time.ParseDuration(value)
	case "poll.attempts":
		cfg.Poll.Attempts, err = strconv.Atoi(value)

	// Ledger RPC
	case "rpc.timeout":
		cfg.RPC.Timeout, err = time.ParseDuration(value)
	case "rpc.rate":
		cfg.RPC.Rate, err = strconv.Atoi(value)

	// Upload and archive
	case "upload.url":
		cfg.Upload.URL = value
	case "upload.token":
		cfg.Upload.Token = value
	case "archive.output":
		cfg.Archive.Output = value

	case "state.dir":
		cfg.State.Dir = value
	case "metrics.addr":
		cfg.Metrics.Addr = value

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return err
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a commented configuration template.
func WriteDefaultConfig(path string) error {
	content := `# Klingnet stamp configuration
#
# Every key can also be set as a GitHub Action input (INPUT_<KEY>) or a
# command-line flag; flags win over inputs, inputs win over this file.

# Directory to archive and stamp
# path = ./dist

# Ledger node RPC endpoint
# node = http://127.0.0.1:8545

# Seed phrase of the paying wallet (prefer INPUT_MNEMONIC or the prompt)
# mnemonic =

# Counterparty request address
# otr_address =

days = 1
request_amount = 1000000

# ============================================================================
# Polling
# ============================================================================

poll.interval = 500ms
poll.attempts = 1200

# ============================================================================
# Ledger RPC
# ============================================================================

rpc.timeout = 10s
# Requests per second, 0 = unlimited
rpc.rate = 0

# ============================================================================
# Upload
# ============================================================================

# upload.url =
# upload.token =
archive.output = stamp.zip

# ============================================================================
# State and metrics
# ============================================================================

# Directory for the resumable run journal (memory when unset)
# state.dir =

# Prometheus listen address (disabled when unset)
# metrics.addr = 127.0.0.1:9100

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0o644)
}
