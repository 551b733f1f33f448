package config

import (
	"github.com/Klingon-tech/klingnet-stamp/internal/archive"
	"github.com/Klingon-tech/klingnet-stamp/internal/poller"
	"github.com/Klingon-tech/klingnet-stamp/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-stamp/internal/stamp"
)

// Default returns the built-in configuration. The core inputs (path, node,
// mnemonic, otr_address) have no defaults.
func Default() *Config {
	return &Config{
		Days:          1,
		RequestAmount: stamp.DefaultRequestAmount,
		Poll: PollConfig{
			Interval: poller.DefaultInterval,
			Attempts: poller.DefaultAttempts,
		},
		RPC: RPCConfig{
			Timeout: rpcclient.DefaultTimeout,
		},
		Archive: ArchiveConfig{
			Output: archive.DefaultOutput,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
