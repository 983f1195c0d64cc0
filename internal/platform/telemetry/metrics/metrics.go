package metrics

import (
	"net/http"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
)

const namespace = "auctionhouse"

// ResultOK labels operations that completed.
const ResultOK = "ok"

// Registry owns the Prometheus registry and the collectors the service
// records into.
type Registry struct {
	registry    *prometheus.Registry
	grpcServer  *grpcprom.ServerMetrics
	operations  *prometheus.CounterVec
	settlements *prometheus.CounterVec
}

// New creates a registry with runtime, gRPC and domain collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	grpcServer := grpcprom.NewServerMetrics(
		grpcprom.WithServerHandlingTimeHistogram(),
	)
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Escrow operations by outcome category.",
	}, []string{"operation", "result"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Completed sales by settlement path.",
	}, []string{"path"})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		grpcServer,
		operations,
		settlements,
	)
	return &Registry{
		registry:    reg,
		grpcServer:  grpcServer,
		operations:  operations,
		settlements: settlements,
	}
}

// UnaryServerInterceptor records per-method gRPC metrics.
func (r *Registry) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return r.grpcServer.UnaryServerInterceptor()
}

// InitializeServer pre-populates per-method series with zeros.
func (r *Registry) InitializeServer(server *grpc.Server) {
	r.grpcServer.InitializeMetrics(server)
}

// ObserveOperation counts one operation outcome. Failures are labeled by
// error category so label cardinality stays bounded.
func (r *Registry) ObserveOperation(operation string, err error) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, resultLabel(err)).Inc()
}

// ObserveSettlement counts one completed sale by path ("direct" or "royalty").
func (r *Registry) ObserveSettlement(path string) {
	if r == nil {
		return
	}
	r.settlements.WithLabelValues(path).Inc()
}

// Gatherer exposes the underlying registry for tests and custom handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func resultLabel(err error) string {
	if err == nil {
		return ResultOK
	}
	return string(apperrors.GetCode(err).Category())
}
