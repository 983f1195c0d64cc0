package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOperationLabelsByCategory(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.ObserveOperation("bid", nil)
	reg.ObserveOperation("bid", apperrors.New(apperrors.CodeAuctionBidTooLow, "too low"))
	reg.ObserveOperation("bid", apperrors.New(apperrors.CodeAuctionExpired, "expired"))
	reg.ObserveOperation("bid", errors.New("boom"))

	if got := testutil.ToFloat64(reg.operations.WithLabelValues("bid", ResultOK)); got != 1 {
		t.Fatalf("ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.operations.WithLabelValues("bid", "state")); got != 2 {
		t.Fatalf("state count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(reg.operations.WithLabelValues("bid", "internal")); got != 1 {
		t.Fatalf("internal count = %v, want 1", got)
	}
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.ObserveSettlement("royalty")

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `auctionhouse_settlements_total{path="royalty"} 1`) {
		t.Fatalf("expected settlement counter in exposition:\n%s", body)
	}
}

func TestNilRegistryIsSafe(t *testing.T) {
	t.Parallel()

	var reg *Registry
	reg.ObserveOperation("bid", nil)
	reg.ObserveSettlement("direct")
}
