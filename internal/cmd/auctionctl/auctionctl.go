// Package auctionctl implements the auction house command-line client.
package auctionctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	entrypoint "github.com/louisbranch/auctionhouse/internal/platform/cmd"
	"github.com/louisbranch/auctionhouse/internal/platform/discovery"
	"github.com/louisbranch/auctionhouse/internal/platform/timeouts"
	"github.com/louisbranch/auctionhouse/internal/services/auctionhouse/client"
)

// Config holds auctionctl configuration.
type Config struct {
	Addr    string        `env:"AUCTIONCTL_ADDR"`
	KeyPath string        `env:"AUCTIONCTL_KEY"`
	Timeout time.Duration `env:"AUCTIONCTL_TIMEOUT"`
	Command string
	Args    []string
}

// ParseConfig parses environment and global flags; the first remaining
// argument names the subcommand.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Addr = discovery.OrLocalGRPCAddr(cfg.Addr, discovery.ServiceAuctionHouse)
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.GRPCRequest
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "auction house gRPC address")
	fs.StringVar(&cfg.KeyPath, "key", cfg.KeyPath, "keypair file used to sign requests")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "deadline for the whole command")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: auctionctl [flags] <command> [args]\n\ncommands:\n")
		for _, name := range commandNames() {
			fmt.Fprintf(fs.Output(), "  %-15s %s\n", name, commands[name].summary)
		}
		fmt.Fprintf(fs.Output(), "\nflags:\n")
		fs.PrintDefaults()
	}
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return Config{}, errors.New("a command is required")
	}
	if _, ok := commands[rest[0]]; !ok {
		return Config{}, fmt.Errorf("unknown command %q", rest[0])
	}
	cfg.Command = rest[0]
	cfg.Args = rest[1:]
	return cfg, nil
}

// Run executes the configured subcommand, writing results to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	cmd, ok := commands[cfg.Command]
	if !ok {
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
	fs := flag.NewFlagSet(cfg.Command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	run := cmd.bind(fs)
	if err := fs.Parse(cfg.Args); err != nil {
		return fmt.Errorf("%s: %w", cfg.Command, err)
	}
	if cmd.offline {
		return run(ctx, &session{out: out, args: fs.Args()})
	}

	var key solana.PrivateKey
	if strings.TrimSpace(cfg.KeyPath) != "" {
		loaded, err := solana.PrivateKeyFromSolanaKeygenFile(cfg.KeyPath)
		if err != nil {
			return fmt.Errorf("load key %s: %w", cfg.KeyPath, err)
		}
		key = loaded
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	c, err := client.Dial(ctx, cfg.Addr, key)
	if err != nil {
		return err
	}
	defer c.Close()
	return run(ctx, &session{out: out, client: c, args: fs.Args()})
}

// session carries what a subcommand needs at run time.
type session struct {
	out    io.Writer
	client *client.Client
	args   []string
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// arg returns the single positional argument named name.
func (s *session) arg(name string) (string, error) {
	if len(s.args) != 1 || strings.TrimSpace(s.args[0]) == "" {
		return "", fmt.Errorf("expected one %s argument", name)
	}
	return s.args[0], nil
}

type command struct {
	summary string
	// offline commands run without dialing the server.
	offline bool
	// bind registers the command's flags and returns its body.
	bind func(fs *flag.FlagSet) func(ctx context.Context, s *session) error
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// writeKeygenFile stores key as the JSON byte array solana-keygen produces.
func writeKeygenFile(path string, key solana.PrivateKey) error {
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create key dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	return nil
}
