// Package server wires the auction house runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/auctionhouse/internal/escrow/auction"
	"github.com/louisbranch/auctionhouse/internal/escrow/authz"
	"github.com/louisbranch/auctionhouse/internal/escrow/custody"
	"github.com/louisbranch/auctionhouse/internal/escrow/program"
	"github.com/louisbranch/auctionhouse/internal/escrow/settlement"
	"github.com/louisbranch/auctionhouse/internal/platform/telemetry/metrics"
	"github.com/louisbranch/auctionhouse/internal/platform/timeouts"
	auctionhouse "github.com/louisbranch/auctionhouse/internal/services/auctionhouse/api/grpc/auctionhouse"
	ledgersqlite "github.com/louisbranch/auctionhouse/internal/services/auctionhouse/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Config controls what the server listens on and where it keeps state.
type Config struct {
	// Addr is the gRPC listen address.
	Addr string
	// MetricsAddr serves /metrics when set.
	MetricsAddr string
	DBPath      string
	// ProgramID is the base58 escrow program identity; empty selects the default.
	ProgramID string
	// AllowedAssets restricts tradeable asset mints; empty allows all.
	AllowedAssets []string
	AuthzCacheTTL time.Duration
	SignatureSkew time.Duration
}

// Server hosts the auction house gRPC API, its metrics endpoint and storage.
type Server struct {
	listener        net.Listener
	metricsListener net.Listener
	grpcServer      *grpc.Server
	httpServer      *http.Server
	health          *health.Server
	store           *ledgersqlite.Store
	verifier        *auctionhouse.Verifier
	oracle          *authz.Cached
	// expiring is set once the caches run their eviction loops; stopping
	// a loop that never started would block.
	expiring bool
}

// New creates a configured server listening on cfg.Addr.
func New(cfg Config) (*Server, error) {
	programID, err := program.ParseID(strings.TrimSpace(cfg.ProgramID))
	if err != nil {
		return nil, err
	}
	allowlist, err := authz.ParseAllowlist(cfg.AllowedAssets)
	if err != nil {
		return nil, err
	}
	custodian, err := custody.NewCustodian(programID)
	if err != nil {
		return nil, fmt.Errorf("derive custodian: %w", err)
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "auctionhouse.db")
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	var metricsListener net.Listener
	if strings.TrimSpace(cfg.MetricsAddr) != "" {
		metricsListener, err = net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.MetricsAddr, err)
		}
	}
	closeListeners := func() {
		_ = listener.Close()
		if metricsListener != nil {
			_ = metricsListener.Close()
		}
	}

	store, err := openLedgerStore(cfg.DBPath)
	if err != nil {
		closeListeners()
		return nil, err
	}

	oracle := authz.NewCached(allowlist, authz.WithTTL(cfg.AuthzCacheTTL))
	engine, err := auction.NewEngine(store, programID, custodian, oracle)
	if err != nil {
		closeListeners()
		_ = store.Close()
		return nil, err
	}
	executor, err := settlement.NewExecutor(store, programID, custodian, oracle)
	if err != nil {
		closeListeners()
		_ = store.Close()
		return nil, err
	}

	reg := metrics.New()
	verifier := auctionhouse.NewVerifier(auctionhouse.WithSkew(cfg.SignatureSkew))
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			reg.UnaryServerInterceptor(),
			verifier.UnaryServerInterceptor(),
		),
	)
	apiService := auctionhouse.NewService(auctionhouse.Deps{
		Ledger:     store,
		Journal:    store,
		Auctions:   engine,
		Settlement: executor,
		Metrics:    reg,
	})
	healthServer := health.NewServer()
	auctionhouse.RegisterAuctionHouseServer(grpcServer, apiService)
	auctionhouse.RegisterLedgerServer(grpcServer, apiService)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(auctionhouse.AuctionHouseServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(auctionhouse.LedgerServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reg.InitializeServer(grpcServer)

	var httpServer *http.Server
	if metricsListener != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		httpServer = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: timeouts.ReadHeader,
		}
	}

	return &Server{
		listener:        listener,
		metricsListener: metricsListener,
		grpcServer:      grpcServer,
		httpServer:      httpServer,
		health:          healthServer,
		store:           store,
		verifier:        verifier,
		oracle:          oracle,
	}, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// MetricsAddr returns the metrics listener address, or "" when disabled.
func (s *Server) MetricsAddr() string {
	if s == nil || s.metricsListener == nil {
		return ""
	}
	return s.metricsListener.Addr().String()
}

// Run creates and serves a server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the gRPC and metrics servers until context cancellation or the
// first serve error.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.verifier.Start()
	go s.oracle.Start()
	s.expiring = true

	g, gctx := errgroup.WithContext(ctx)
	log.Printf("auction house listening at %v", s.listener.Addr())
	g.Go(func() error {
		err := s.grpcServer.Serve(s.listener)
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	})
	if s.httpServer != nil {
		log.Printf("metrics listening at %v", s.metricsListener.Addr())
		g.Go(func() error {
			err := s.httpServer.Serve(s.metricsListener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve metrics: %w", err)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		if s.httpServer == nil {
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	} else if s.metricsListener != nil {
		_ = s.metricsListener.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.expiring {
		s.verifier.Stop()
		s.oracle.Stop()
		s.expiring = false
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close ledger store: %v", err)
		}
	}
}

func openLedgerStore(path string) (*ledgersqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := ledgersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger sqlite store: %w", err)
	}
	return store, nil
}
