package rpcclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-stamp/internal/ledger"
	klog "github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/internal/node"
	"github.com/Klingon-tech/klingnet-stamp/internal/rpc"
	"github.com/Klingon-tech/klingnet-stamp/internal/storage"
	"github.com/Klingon-tech/klingnet-stamp/internal/wallet"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type testEnv struct {
	client *Client
	ledger *node.Ledger
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	klog.Discard()

	l := node.New(storage.NewMemory(), node.DefaultConfig())
	srv := httptest.NewServer(rpc.New("", l).Handler())
	t.Cleanup(srv.Close)

	c := NewWithOptions(srv.URL, Options{Timeout: 5 * time.Second, Rate: 1000})
	t.Cleanup(func() { c.Close() })
	return &testEnv{client: c, ledger: l}
}

func TestClient_Info(t *testing.T) {
	env := setupTestEnv(t)
	info, err := env.client.Info(context.Background())
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	want, _ := env.ledger.Info(context.Background())
	if *info != *want {
		t.Errorf("Info() = %+v, want %+v", info, want)
	}
}

func TestClient_SendRoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	sm, err := wallet.NewSecretManager(testMnemonic)
	if err != nil {
		t.Fatalf("NewSecretManager() error: %v", err)
	}
	from, _ := sm.Address()
	if _, err := env.ledger.Faucet(from, 5_000_000); err != nil {
		t.Fatalf("Faucet() error: %v", err)
	}

	ids, err := env.client.BasicOutputIDs(ctx, from)
	if err != nil {
		t.Fatalf("BasicOutputIDs() error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("BasicOutputIDs() = %d ids, want 1", len(ids))
	}
	outs, err := env.client.Outputs(ctx, ids)
	if err != nil {
		t.Fatalf("Outputs() error: %v", err)
	}
	if outs[0].Amount != 5_000_000 || outs[0].Address != from {
		t.Errorf("output = %+v", outs[0])
	}

	to := types.Address{0x0c}
	blockID, err := wallet.NewSender(env.client, sm).Send(ctx, wallet.SendParams{
		To:       to,
		Amount:   1_000_000,
		Metadata: map[string]string{"k": "v"},
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	blk, err := env.client.Block(ctx, blockID)
	if err != nil {
		t.Fatalf("Block() error: %v", err)
	}
	if blk.ID() != blockID {
		t.Errorf("Block().ID() = %s, want %s", blk.ID(), blockID)
	}
	txID := blk.Payload.ID()

	included, err := env.client.IncludedBlock(ctx, txID)
	if err != nil {
		t.Fatalf("IncludedBlock() error: %v", err)
	}
	if included.ID() != blockID {
		t.Errorf("IncludedBlock() = %s, want %s", included.ID(), blockID)
	}

	meta, err := env.client.OutputMetadata(ctx, ids[0])
	if err != nil {
		t.Fatalf("OutputMetadata() error: %v", err)
	}
	if !meta.IsSpent || meta.TransactionIDSpent != txID {
		t.Errorf("metadata = %+v, want spent by %s", meta, txID)
	}
}

func TestClient_NotFound(t *testing.T) {
	env := setupTestEnv(t)
	_, err := env.client.OutputMetadata(context.Background(), types.NewOutputID(types.Hash{0x01}, 3))
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("OutputMetadata() error = %v, want ErrNotFound", err)
	}
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != rpc.CodeNotFound {
		t.Errorf("error = %#v, want *RPCError with CodeNotFound", err)
	}
	if errors.Is(err, ledger.ErrNetwork) {
		t.Error("not-found should not be a network error")
	}
}

func TestClient_Rejected(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	sm, _ := wallet.NewSecretManager(testMnemonic)
	from, _ := sm.Address()
	id, err := env.ledger.Faucet(from, 1_000_000)
	if err != nil {
		t.Fatalf("Faucet() error: %v", err)
	}
	consumed, _ := env.ledger.Outputs(ctx, []types.OutputID{id})
	payload, err := wallet.Assemble(wallet.AssembleParams{
		NetworkID: tx.NetworkIDFromName("some-other-network"),
		Inputs:    []types.OutputID{id},
		Consumed:  consumed,
		Outputs:   []*tx.Output{tx.NewOutput(1_000_000, from, nil)},
	}, sm)
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}

	_, err = env.client.SubmitPayload(ctx, payload)
	if !errors.Is(err, ledger.ErrRejected) {
		t.Fatalf("SubmitPayload() error = %v, want ErrRejected", err)
	}
}

func TestClient_NetworkErrors(t *testing.T) {
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer garbage.Close()

	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32603,"message":"db closed"},"id":1}`))
	}))
	defer internal.Close()

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	for _, tc := range []struct {
		name string
		url  string
	}{
		{"malformed response", garbage.URL},
		{"connection refused", downURL},
		{"internal server error", internal.URL},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := New(tc.url)
			_, err := c.Info(context.Background())
			if !errors.Is(err, ledger.ErrNetwork) {
				t.Fatalf("Info() error = %v, want ErrNetwork", err)
			}
			var netErr *ledger.NetworkError
			if !errors.As(err, &netErr) || netErr.Op != rpc.MethodGetInfo {
				t.Errorf("error = %#v, want *ledger.NetworkError for %s", err, rpc.MethodGetInfo)
			}
		})
	}
}

func TestClient_InternalErrorKeepsCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32603,"message":"db closed"},"id":1}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).OutputMetadata(context.Background(), types.NewOutputID(types.Hash{0x01}, 0))
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32603 {
		t.Fatalf("error = %#v, want *RPCError with code -32603", err)
	}
	if errors.Is(err, ledger.ErrNotFound) {
		t.Error("internal error should not read as not-found")
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := env.client.Info(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Info() error = %v, want context.Canceled", err)
	}
}
