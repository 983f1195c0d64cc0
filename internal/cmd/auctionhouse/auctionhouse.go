// Package auctionhouse parses auction house flags and launches the service.
package auctionhouse

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/auctionhouse/internal/platform/cmd"
	"github.com/louisbranch/auctionhouse/internal/platform/discovery"
	server "github.com/louisbranch/auctionhouse/internal/services/auctionhouse/app"
)

// Config holds auction house command configuration.
type Config struct {
	Port          int           `env:"AUCTIONHOUSE_PORT"`
	MetricsAddr   string        `env:"AUCTIONHOUSE_METRICS_ADDR" envDefault:":9095"`
	DBPath        string        `env:"AUCTIONHOUSE_DB_PATH" envDefault:"data/auctionhouse.db"`
	ProgramID     string        `env:"AUCTIONHOUSE_PROGRAM_ID"`
	AllowedAssets []string      `env:"AUCTIONHOUSE_ALLOWED_ASSETS" envSeparator:","`
	AuthzCacheTTL time.Duration `env:"AUCTIONHOUSE_AUTHZ_CACHE_TTL" envDefault:"1h"`
	SignatureSkew time.Duration `env:"AUCTIONHOUSE_SIGNATURE_SKEW" envDefault:"5m"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Port == 0 {
		cfg.Port = discovery.GRPCPort(discovery.ServiceAuctionHouse)
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The auction house gRPC server port")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Address serving /metrics (empty disables)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite ledger path")
	fs.StringVar(&cfg.ProgramID, "program-id", cfg.ProgramID, "Base58 escrow program identity")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) serverConfig() server.Config {
	return server.Config{
		Addr:          fmt.Sprintf(":%d", c.Port),
		MetricsAddr:   c.MetricsAddr,
		DBPath:        c.DBPath,
		ProgramID:     c.ProgramID,
		AllowedAssets: c.AllowedAssets,
		AuthzCacheTTL: c.AuthzCacheTTL,
		SignatureSkew: c.SignatureSkew,
	}
}

// Run starts the auction house gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAuctionHouse, func(ctx context.Context) error {
		return server.Run(ctx, cfg.serverConfig())
	})
}
