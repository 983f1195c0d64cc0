package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/auctionhouse/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("AUCTIONHOUSE_OTEL_ENDPOINT", "")
	t.Setenv("AUCTIONHOUSE_OTEL_ENABLED", "true")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("AUCTIONHOUSE_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("AUCTIONHOUSE_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupWithConfig_RejectsBadSampleRatio(t *testing.T) {
	_, err := otel.SetupWithConfig(context.Background(), "test-service", otel.Config{
		Enabled:     true,
		Endpoint:    "http://192.0.2.1:4318",
		SampleRatio: 2,
	})
	if err == nil {
		t.Fatal("expected sample ratio error")
	}
}

func TestSetupWithConfig_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no export happens.
	shutdown, err := otel.SetupWithConfig(context.Background(), "test-service", otel.Config{
		Enabled:     true,
		Endpoint:    "http://192.0.2.1:4318",
		SampleRatio: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
