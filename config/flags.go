package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Config file path
	Config string

	// Values maps config keys to the flags explicitly set on the command
	// line. Defaults of unset flags never override lower layers.
	Values map[string]string

	// Remaining args
	Args []string
}

// flagName returns the command-line spelling of a config key.
func flagName(key string) string {
	return strings.NewReplacer(".", "-", "_", "-").Replace(key)
}

var flagUsage = map[string]string{
	"path":           "Directory to archive and stamp",
	"node":           "Ledger node RPC endpoint",
	"mnemonic":       "Seed phrase of the paying wallet (prompted when empty)",
	"otr_address":    "Counterparty request address",
	"days":           "Number of days to fund",
	"request_amount": "Amount sent with the stamp request",
	"poll.interval":  "Delay between confirmation queries",
	"poll.attempts":  "Confirmation queries before giving up",
	"rpc.timeout":    "Timeout of one ledger RPC round trip",
	"rpc.rate":       "Ledger RPC requests per second (0 = unlimited)",
	"upload.url":     "Upload endpoint",
	"upload.token":   "Upload project API key",
	"archive.output": "Archive file path",
	"state.dir":      "Run journal directory (memory when empty)",
	"metrics.addr":   "Prometheus listen address (disabled when empty)",
	"log.level":      "Log level (debug, info, warn, error)",
	"log.file":       "Log file path",
	"log.json":       "Output logs as JSON",
}

// ParseFlags parses command-line flags (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{Values: make(map[string]string)}
	fs := flag.NewFlagSet("klingnet-stamp", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	byFlag := make(map[string]string, len(Keys))
	for _, key := range Keys {
		name := flagName(key)
		byFlag[name] = key
		if key == "log.json" {
			fs.Bool(name, false, flagUsage[key])
			continue
		}
		fs.String(name, "", flagUsage[key])
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(fl *flag.Flag) {
		if key, ok := byFlag[fl.Name]; ok {
			f.Values[key] = fl.Value.String()
		}
	})
	f.Args = fs.Args()

	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}
	return f, nil
}

// Usage writes the command help to w.
func Usage(w io.Writer) {
	fmt.Fprint(w, `Klingnet Stamp - archive a directory and stamp it on the ledger

Usage:
  klingnet-stamp [options]
  klingnet-stamp --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Options:
  --config, -c    Config file path
`)
	for _, key := range Keys {
		fmt.Fprintf(w, "  --%-16s %s\n", flagName(key), flagUsage[key])
	}
	fmt.Fprint(w, `
Every option can also be set as INPUT_<KEY>, e.g. INPUT_OTR_ADDRESS.

Examples:
  # Stamp ./dist through a local devnet
  klingnet-stamp --path=./dist --node=http://127.0.0.1:8545 \
    --otr-address=<address> --upload-url=<url>
`)
}

// Load builds the configuration with the following precedence:
// 1. Default values
// 2. Config file (--config, or INPUT_CONFIG)
// 3. INPUT_* environment variables
// 4. Command-line flags
func Load(args []string, getenv func(string) string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	cfg := Default()

	configPath := flags.Config
	if configPath == "" {
		configPath = getenv(EnvPrefix + "CONFIG")
	}
	if configPath != "" {
		fileValues, err := LoadFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config file: %w", err)
		}
		if err := ApplyValues(cfg, fileValues); err != nil {
			return nil, nil, fmt.Errorf("applying config file: %w", err)
		}
	}

	if err := ApplyValues(cfg, LoadEnv(getenv)); err != nil {
		return nil, nil, fmt.Errorf("applying environment: %w", err)
	}
	if err := ApplyValues(cfg, flags.Values); err != nil {
		return nil, nil, fmt.Errorf("applying flags: %w", err)
	}
	return cfg, flags, nil
}
