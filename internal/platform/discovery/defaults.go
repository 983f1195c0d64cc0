// Package discovery centralizes service address conventions.
package discovery

import (
	"strconv"
	"strings"
)

// ServiceAuctionHouse is the auction house gRPC service identity.
const ServiceAuctionHouse = "auctionhouse"

var grpcPorts = map[string]int{
	ServiceAuctionHouse: 8095,
}

// GRPCPort returns the conventional gRPC port of a service, or 0.
func GRPCPort(service string) int {
	return grpcPorts[strings.TrimSpace(service)]
}

// DefaultGRPCAddr returns the canonical in-network gRPC address for a service.
func DefaultGRPCAddr(service string) string {
	service = strings.TrimSpace(service)
	return hostAddr(service, grpcPorts[service])
}

// LocalGRPCAddr returns the gRPC address of a service running on this host.
func LocalGRPCAddr(service string) string {
	return hostAddr("localhost", GRPCPort(service))
}

// OrLocalGRPCAddr returns value when set, otherwise the local convention.
func OrLocalGRPCAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return LocalGRPCAddr(service)
}

func hostAddr(host string, port int) string {
	if host == "" || port <= 0 {
		return ""
	}
	return host + ":" + strconv.Itoa(port)
}
