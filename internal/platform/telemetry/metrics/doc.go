// Package metrics provides operational metrics collection.
//
// Metrics are collected via gRPC interceptors and exposed in Prometheus
// format on the metrics listener:
//
//   - grpc_server_* request counters and handling-time histograms by method
//   - auctionhouse_operations_total by operation and result category
//   - auctionhouse_settlements_total by settlement path
//
// Go runtime and process collectors are registered as well.
package metrics
