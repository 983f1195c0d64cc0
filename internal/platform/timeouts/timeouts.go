// Package timeouts defines shared timeout constants used across the server
// and its clients.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the auction house and waiting
// for its health check.
const GRPCDial = 5 * time.Second

// GRPCRequest caps the time allowed for a single CLI request.
const GRPCRequest = 10 * time.Second

// ReadHeader limits how long the metrics HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// SignatureSkew is the default tolerance between a signed request timestamp
// and the server clock.
const SignatureSkew = 5 * time.Minute
