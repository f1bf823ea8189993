package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/crypto"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/rpc"
)

const (
	endpointEnv = "VERITASOR_RPC_URL"
	callerEnv   = "VERITASOR_CALLER"
	tokenEnv    = "VERITASOR_ADMIN_TOKEN"
)

var errUsage = errors.New("usage")

type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, c *client, args []string, out io.Writer) error
}

var commands = []command{
	{"quote", "<business>", "Show the fee the next submission would pay", runQuote},
	{"submit", "<business> <period> <root> [--version N] [--timestamp T] [--expiry T]", "Submit a single-period attestation", runSubmit},
	{"verify", "<business> <period> <root>", "Check a root against the stored attestation", runVerify},
	{"dispute-open", "<business> <period> <type> [evidence]", "Open a dispute as the caller", runDisputeOpen},
	{"pause", "<nonce>", "Pause attestation writes (admin token)", runPause},
	{"unpause", "<nonce>", "Resume attestation writes (admin token)", runUnpause},
	{"nonce", "<account>", "Show the next admin nonce of an account", runNonce},
	{"hash-root", "<file>", "Keccak-256 digest of a file, usable as a Merkle root", runHashRoot},
}

func main() {
	global := flag.NewFlagSet("veritasor-cli", flag.ContinueOnError)
	endpoint := global.String("rpc", envOr(endpointEnv, "http://localhost:8545"), "Node HTTP endpoint")
	caller := global.String("caller", os.Getenv(callerEnv), "Bech32 identity the request acts as")
	global.Usage = func() { printUsage(os.Stderr) }
	if err := global.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := newClient(*endpoint, *caller, newTokenSource(tokenEnv).Get)
	if err := dispatch(ctx, c, args, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, c *client, args []string, out io.Writer) error {
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(ctx, c, args[1:], out)
		}
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: veritasor-cli [--rpc URL] [--caller ADDRESS] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-14s %s\n      %s\n", cmd.name, cmd.args, cmd.summary)
	}
	fmt.Fprintf(w, "\nEnvironment: %s, %s, %s\n", endpointEnv, callerEnv, tokenEnv)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runQuote(ctx context.Context, c *client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	var quote rpc.QuoteResult
	if err := c.call(ctx, http.MethodGet, "/v1/fees/quote/"+url.PathEscape(args[0]), nil, &quote, requestOpts{}); err != nil {
		return err
	}
	fmt.Fprintln(out, quote.Amount)
	return nil
}

func runSubmit(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	version := fs.Uint("version", 1, "Attestation version")
	timestamp := fs.Uint64("timestamp", uint64(time.Now().Unix()), "Attestation timestamp (unix seconds)")
	expiry := fs.Uint64("expiry", 0, "Optional expiry (unix seconds)")
	if len(args) < 3 {
		return errUsage
	}
	if err := fs.Parse(args[3:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	body := rpc.SubmitAttestationRequest{
		Business:   args[0],
		Period:     args[1],
		MerkleRoot: args[2],
		Timestamp:  *timestamp,
		Version:    uint32(*version),
	}
	if *expiry > 0 {
		body.Expiry = expiry
	}
	var result rpc.AttestationResult
	if err := c.call(ctx, http.MethodPost, "/v1/attestations", body, &result, requestOpts{asCaller: true}); err != nil {
		return err
	}
	return printJSON(out, result)
}

func runVerify(ctx context.Context, c *client, args []string, out io.Writer) error {
	if len(args) != 3 {
		return errUsage
	}
	path := fmt.Sprintf("/v1/attestations/%s/%s/verify?root=%s",
		url.PathEscape(args[0]), url.PathEscape(args[1]), url.QueryEscape(args[2]))
	var result rpc.VerifyResult
	if err := c.call(ctx, http.MethodGet, path, nil, &result, requestOpts{}); err != nil {
		return err
	}
	fmt.Fprintln(out, result.Valid)
	return nil
}

func runDisputeOpen(ctx context.Context, c *client, args []string, out io.Writer) error {
	if len(args) < 3 || len(args) > 4 {
		return errUsage
	}
	body := rpc.OpenDisputeRequest{Business: args[0], Period: args[1], Type: args[2]}
	if len(args) == 4 {
		body.Evidence = args[3]
	}
	var result rpc.DisputeIDResult
	if err := c.call(ctx, http.MethodPost, "/v1/disputes", body, &result, requestOpts{asCaller: true}); err != nil {
		return err
	}
	fmt.Fprintf(out, "dispute %d opened\n", result.ID)
	return nil
}

func setPaused(ctx context.Context, c *client, args []string, out io.Writer, path string) error {
	if len(args) != 1 {
		return errUsage
	}
	nonce, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid nonce %q", args[0])
	}
	var status rpc.StatusResult
	if err := c.call(ctx, http.MethodPost, path, rpc.NonceRequest{Nonce: nonce}, &status, requestOpts{asCaller: true, admin: true}); err != nil {
		return err
	}
	fmt.Fprintf(out, "paused=%t\n", status.Paused)
	return nil
}

func runPause(ctx context.Context, c *client, args []string, out io.Writer) error {
	return setPaused(ctx, c, args, out, "/v1/admin/pause")
}

func runUnpause(ctx context.Context, c *client, args []string, out io.Writer) error {
	return setPaused(ctx, c, args, out, "/v1/admin/unpause")
}

func runNonce(ctx context.Context, c *client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	var result rpc.NonceResult
	if err := c.call(ctx, http.MethodGet, "/v1/admin/nonce/"+url.PathEscape(args[0]), nil, &result, requestOpts{}); err != nil {
		return err
	}
	fmt.Fprintln(out, result.Nonce)
	return nil
}

func runHashRoot(_ context.Context, _ *client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	root := crypto.HashRoot(data)
	fmt.Fprintln(out, hexutil.Encode(root[:]))
	return nil
}
