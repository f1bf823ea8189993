package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/genesis"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/crypto"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/rpc"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/storage"
)

var (
	admin    = [20]byte{0xAD}
	business = [20]byte{0xB1}
)

func bech(addr [20]byte) string { return crypto.FromRaw(addr).String() }

func newTestEndpoint(t *testing.T) string {
	t.Helper()
	node, err := core.NewNode(storage.NewMemDB(), core.Options{Now: func() uint64 { return 1_000 }})
	require.NoError(t, err)
	_, err = node.ApplyGenesis(&genesis.Spec{
		Admin:    admin,
		Fee:      &genesis.Fee{Token: "USDC", Collector: [20]byte{0xC0}, BaseFee: big.NewInt(250), Enabled: true},
		Balances: []genesis.Balance{{Token: "USDC", Holder: business, Amount: big.NewInt(1_000)}},
	})
	require.NoError(t, err)
	srv := rpc.NewServer(node, rpc.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func runCLI(t *testing.T, c *client, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := dispatch(context.Background(), c, args, &out)
	return strings.TrimSpace(out.String()), err
}

func TestSubmitQuoteVerifyFlow(t *testing.T) {
	endpoint := newTestEndpoint(t)
	c := newClient(endpoint, bech(business), nil)

	out, err := runCLI(t, c, "quote", bech(business))
	require.NoError(t, err)
	require.Equal(t, "250", out)

	report := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(report, []byte("month,revenue\n2026-01,1000\n"), 0o600))
	root, err := runCLI(t, c, "hash-root", report)
	require.NoError(t, err)
	digest := crypto.HashRoot([]byte("month,revenue\n2026-01,1000\n"))
	require.Equal(t, hexutil.Encode(digest[:]), root)

	_, err = runCLI(t, c, "submit", bech(business), "2026-01", root, "--timestamp", "5")
	require.NoError(t, err)

	out, err = runCLI(t, c, "verify", bech(business), "2026-01", root)
	require.NoError(t, err)
	require.Equal(t, "true", out)

	_, err = runCLI(t, c, "submit", bech(business), "2026-01", root)
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 409, apiErr.Status)
	require.Equal(t, "attestation_exists", apiErr.Body.Code)

	other := newClient(endpoint, bech([20]byte{0x42}), nil)
	out, err = runCLI(t, other, "dispute-open", bech(business), "2026-01", "data_integrity", "mismatch")
	require.NoError(t, err)
	require.Equal(t, "dispute 1 opened", out)
}

func TestAdminCommandsUseToken(t *testing.T) {
	endpoint := newTestEndpoint(t)
	calls := 0
	c := newClient(endpoint, bech(admin), func() (string, error) {
		calls++
		return "", nil
	})

	out, err := runCLI(t, c, "nonce", bech(admin))
	require.NoError(t, err)
	require.Equal(t, "0", out)

	out, err = runCLI(t, c, "pause", "0")
	require.NoError(t, err)
	require.Equal(t, "paused=true", out)
	require.Equal(t, 1, calls)

	denied := newClient(endpoint, bech(admin), func() (string, error) { return "", errors.New("no terminal") })
	_, err = runCLI(t, denied, "unpause", "1")
	require.EqualError(t, err, "no terminal")
}

func TestDispatchUsageErrors(t *testing.T) {
	c := newClient("http://127.0.0.1:0", "", nil)
	_, err := runCLI(t, c, "bogus")
	require.ErrorIs(t, err, errUsage)
	_, err = runCLI(t, c, "verify", "only-one")
	require.ErrorIs(t, err, errUsage)
	_, err = runCLI(t, c, "pause", "x")
	require.Error(t, err)

	_, err = runCLI(t, c, "submit", "a", "b", "c")
	require.ErrorContains(t, err, "caller required")
}
