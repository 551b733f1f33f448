package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/internal/wallet"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Validate checks the configuration for obvious operator mistakes. It
// normalizes whitespace in the core inputs.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	cfg.Path = strings.TrimSpace(cfg.Path)
	cfg.Node = strings.TrimSpace(cfg.Node)
	cfg.OTRAddress = strings.TrimSpace(cfg.OTRAddress)
	cfg.Mnemonic = wallet.NormalizeMnemonic(cfg.Mnemonic)

	for _, req := range []struct{ key, value string }{
		{"path", cfg.Path},
		{"node", cfg.Node},
		{"mnemonic", cfg.Mnemonic},
		{"otr_address", cfg.OTRAddress},
		{"upload.url", cfg.Upload.URL},
	} {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.key)
		}
	}

	if err := validateURL(cfg.Node); err != nil {
		return fmt.Errorf("node: %w", err)
	}
	if err := validateURL(cfg.Upload.URL); err != nil {
		return fmt.Errorf("upload.url: %w", err)
	}
	if _, err := types.ParseAddress(cfg.OTRAddress); err != nil {
		return fmt.Errorf("otr_address: %w", err)
	}

	if cfg.Days == 0 {
		return fmt.Errorf("days must be at least 1")
	}
	if cfg.RequestAmount == 0 {
		return fmt.Errorf("request_amount must be positive")
	}
	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if cfg.Poll.Attempts <= 0 {
		return fmt.Errorf("poll.attempts must be positive")
	}
	if cfg.RPC.Timeout <= 0 {
		return fmt.Errorf("rpc.timeout must be positive")
	}
	if cfg.RPC.Rate < 0 {
		return fmt.Errorf("rpc.rate must not be negative")
	}
	if cfg.Archive.Output == "" {
		return fmt.Errorf("archive.output is required")
	}
	if !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error")
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
