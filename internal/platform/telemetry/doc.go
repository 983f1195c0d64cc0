// Package telemetry groups observability support for the auction house.
//
// Two concerns stay separate:
//
// # Ledger journal
//
// Every asset movement is journaled by the ledger itself (see
// internal/escrow/ledger). The journal is durable, queryable business data.
//
// # Operational metrics (telemetry/metrics)
//
// Prometheus metrics describe service health: gRPC request counts and
// latency, operation outcomes by failure category, and settlement paths.
// They are scraped from a separate HTTP listener.
package telemetry
