package auctionhouse

import (
	"flag"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("auctionhouse", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	want := Config{
		Port:          8095,
		MetricsAddr:   ":9095",
		DBPath:        "data/auctionhouse.db",
		AuthzCacheTTL: time.Hour,
		SignatureSkew: 5 * time.Minute,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("AUCTIONHOUSE_PORT", "9000")
	t.Setenv("AUCTIONHOUSE_ALLOWED_ASSETS", "a,b")
	t.Setenv("AUCTIONHOUSE_SIGNATURE_SKEW", "30s")

	fs := flag.NewFlagSet("auctionhouse", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "9100", "-metrics-addr", ""})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("port = %d, want 9100", cfg.Port)
	}
	if cfg.MetricsAddr != "" {
		t.Fatalf("metrics addr = %q, want empty", cfg.MetricsAddr)
	}
	if diff := cmp.Diff([]string{"a", "b"}, cfg.AllowedAssets); diff != "" {
		t.Fatalf("allowed assets mismatch (-want +got):\n%s", diff)
	}
	if cfg.SignatureSkew != 30*time.Second {
		t.Fatalf("skew = %v, want 30s", cfg.SignatureSkew)
	}
	if got := cfg.serverConfig().Addr; got != ":9100" {
		t.Fatalf("addr = %q, want :9100", got)
	}
}
