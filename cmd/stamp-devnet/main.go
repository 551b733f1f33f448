// Command stamp-devnet runs a local ledger node with a simulated stamp
// counterparty, so klingnet-stamp can be exercised end to end.
//
// Usage: go run ./cmd/stamp-devnet/ --fund=<address>=5000000
//
// The node serves the ledger JSON-RPC surface on --addr. The counterparty
// answers STAMP requests paid to its request address (printed at startup)
// and sweeps payments made to its funding address. Ctrl+C to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	klog "github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/internal/metrics"
	"github.com/Klingon-tech/klingnet-stamp/internal/node"
	"github.com/Klingon-tech/klingnet-stamp/internal/responder"
	"github.com/Klingon-tech/klingnet-stamp/internal/rpc"
	"github.com/Klingon-tech/klingnet-stamp/internal/storage"
	"github.com/Klingon-tech/klingnet-stamp/internal/wallet"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// allocation is one faucet grant.
type allocation struct {
	addr   types.Address
	amount uint64
}

type options struct {
	addr        string
	dataDir     string
	mnemonic    string
	fund        []allocation
	interval    time.Duration
	mint        uint64
	dailyCost   uint64
	metricsAddr string
	logLevel    string
}

func parseOptions(args []string) (*options, error) {
	o := &options{}
	var fund string
	fs := flag.NewFlagSet("stamp-devnet", flag.ContinueOnError)
	fs.StringVar(&o.addr, "addr", "127.0.0.1:8545", "RPC listen address")
	fs.StringVar(&o.dataDir, "datadir", "", "Ledger database directory (memory when empty)")
	fs.StringVar(&o.mnemonic, "counterparty-mnemonic", "", "Counterparty seed phrase (generated when empty)")
	fs.StringVar(&fund, "fund", "", "Faucet grants as comma-separated address=amount pairs")
	fs.DurationVar(&o.interval, "interval", time.Second, "Counterparty scan interval")
	fs.Uint64Var(&o.mint, "mint", responder.DefaultConfig().AmountToMint, "Quoted amount to mint")
	fs.Uint64Var(&o.dailyCost, "daily-cost", responder.DefaultConfig().DailyCost, "Quoted daily cost")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Prometheus listen address (disabled when empty)")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !klog.ValidLevel(o.logLevel) {
		return nil, fmt.Errorf("invalid log level %q", o.logLevel)
	}
	if o.interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}

	allocs, err := parseAllocations(fund)
	if err != nil {
		return nil, err
	}
	o.fund = allocs
	return o, nil
}

func parseAllocations(s string) ([]allocation, error) {
	var out []allocation
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		addrStr, amountStr, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("fund %q: expected address=amount", entry)
		}
		addr, err := types.ParseAddress(strings.TrimSpace(addrStr))
		if err != nil {
			return nil, fmt.Errorf("fund %q: %w", entry, err)
		}
		amount, err := strconv.ParseUint(strings.TrimSpace(amountStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("fund %q: %w", entry, err)
		}
		out = append(out, allocation{addr: addr, amount: amount})
	}
	return out, nil
}

func main() {
	o, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	klog.Init(o.logLevel, false, "")
	logger := klog.WithComponent("devnet")

	var db storage.DB
	if o.dataDir != "" {
		if err := os.MkdirAll(o.dataDir, 0o755); err != nil {
			logger.Fatal().Err(err).Msg("Create data dir")
		}
		bdb, err := storage.NewBadger(o.dataDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("Open ledger database")
		}
		defer bdb.Close()
		db = bdb
	} else {
		db = storage.NewMemory()
	}
	l := node.New(db, node.DefaultConfig())

	for _, a := range o.fund {
		if _, err := l.Faucet(a.addr, a.amount); err != nil {
			logger.Fatal().Err(err).Str("address", a.addr.Bech32(types.DevnetHRP)).Msg("Faucet grant")
		}
	}

	if o.mnemonic == "" {
		if o.mnemonic, err = wallet.GenerateMnemonic(); err != nil {
			logger.Fatal().Err(err).Msg("Generate counterparty mnemonic")
		}
		logger.Warn().Str("mnemonic", o.mnemonic).Msg("Generated counterparty mnemonic (devnet only)")
	}
	requests, err := wallet.NewSecretManagerAt(o.mnemonic, 0, 0)
	if err != nil {
		logger.Fatal().Err(err).Msg("Counterparty request key")
	}
	funding, err := wallet.NewSecretManagerAt(o.mnemonic, 0, 1)
	if err != nil {
		logger.Fatal().Err(err).Msg("Counterparty funding key")
	}
	reqAddr, _ := requests.Address()
	fundAddr, _ := funding.Address()

	srv := rpc.New(o.addr, l)
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Start RPC server")
	}
	defer srv.Stop()

	if o.metricsAddr != "" {
		ms := metrics.NewServer(o.metricsAddr)
		errc := make(chan error, 1)
		ms.Start(errc)
		go func() {
			if err := <-errc; err != nil {
				logger.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
		defer ms.Stop(context.Background())
	}

	logger.Info().
		Str("rpc", "http://"+srv.Addr()).
		Str("otr_address", reqAddr.Bech32(types.DevnetHRP)).
		Str("funding_address", fundAddr.Bech32(types.DevnetHRP)).
		Str("version", node.Version).
		Msg("Devnet ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := responder.New(l, requests, funding, responder.Config{
		AmountToMint: o.mint,
		DailyCost:    o.dailyCost,
	})
	r.Run(ctx, o.interval)
	logger.Info().Msg("Devnet stopped")
}
