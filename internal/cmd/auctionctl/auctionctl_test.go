package auctionctl

import (
	"bytes"
	"context"
	"flag"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	server "github.com/louisbranch/auctionhouse/internal/services/auctionhouse/app"
)

func TestParseConfigSplitsCommand(t *testing.T) {
	t.Setenv("AUCTIONCTL_ADDR", "auctions:8095")

	fs := flag.NewFlagSet("auctionctl", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-key", "me.json", "mint", "abc"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "auctions:8095" || cfg.KeyPath != "me.json" {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Command != "mint" || len(cfg.Args) != 1 || cfg.Args[0] != "abc" {
		t.Fatalf("command = %q %v, want mint [abc]", cfg.Command, cfg.Args)
	}
	if cfg.Timeout <= 0 {
		t.Fatal("expected default timeout")
	}
}

func TestParseConfigDefaultsToLocalService(t *testing.T) {
	t.Setenv("AUCTIONCTL_ADDR", "")

	fs := flag.NewFlagSet("auctionctl", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"auctions"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "localhost:8095" {
		t.Fatalf("addr = %q, want localhost:8095", cfg.Addr)
	}
}

func TestParseConfigRejectsUnknownCommand(t *testing.T) {
	fs := flag.NewFlagSet("auctionctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, []string{"launch"}); err == nil {
		t.Fatal("expected unknown command error")
	}
	fs = flag.NewFlagSet("auctionctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected missing command error")
	}
}

func TestKeygenWritesLoadableKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys", "id.json")
	var out bytes.Buffer
	if err := Run(context.Background(), Config{Command: "keygen", Args: []string{"-out", path}}, &out); err != nil {
		t.Fatalf("keygen: %v", err)
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		t.Fatalf("load key: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != key.PublicKey().String() {
		t.Fatalf("printed %q, want %s", got, key.PublicKey())
	}
}

func TestParseRecipients(t *testing.T) {
	t.Parallel()

	key := solana.NewWallet().PublicKey().String()
	got, err := parseRecipients([]string{key + ":700:artist"})
	if err != nil {
		t.Fatalf("parse recipients: %v", err)
	}
	if len(got) != 1 || got[0].Recipient != key || got[0].BasisPoints != 700 || got[0].Type != "artist" {
		t.Fatalf("recipients = %+v", got)
	}
	for _, bad := range []string{key, key + ":x:artist", key + ":70000:artist"} {
		if _, err := parseRecipients([]string{bad}); err == nil {
			t.Fatalf("parseRecipients(%q) = nil error", bad)
		}
	}
}

func TestLedgerCommandsAgainstServer(t *testing.T) {
	srv, err := server.New(server.Config{
		Addr:   "127.0.0.1:0",
		DBPath: filepath.Join(t.TempDir(), "auctionhouse.db"),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})

	keyPath := filepath.Join(t.TempDir(), "id.json")
	if err := Run(context.Background(), Config{Command: "keygen", Args: []string{"-out", keyPath}}, nil); err != nil {
		t.Fatalf("keygen: %v", err)
	}
	run := func(command string, args ...string) string {
		t.Helper()

		var out bytes.Buffer
		cfg := Config{Addr: srv.Addr(), KeyPath: keyPath, Timeout: 5 * time.Second, Command: command, Args: args}
		if err := Run(context.Background(), cfg, &out); err != nil {
			t.Fatalf("%s: %v", command, err)
		}
		return out.String()
	}

	mint := solana.NewWallet().PublicKey().String()
	holding := solana.NewWallet().PublicKey().String()
	if out := run("mint-create", "-address", mint, "-decimals", "2"); !strings.Contains(out, "supply:    0.00") {
		t.Fatalf("mint-create output:\n%s", out)
	}
	run("holding-open", "-address", holding, "-mint", mint)
	run("mint-to", "-mint", mint, "-to", holding, "-amount", "12.5")

	if out := run("holding", holding); !strings.Contains(out, "amount:  12.50") {
		t.Fatalf("holding output:\n%s", out)
	}
	if out := run("journal", "-filter", `kind = "mint_to"`); !strings.Contains(out, "\tmint_to\t"+mint) {
		t.Fatalf("journal output:\n%s", out)
	}
}
