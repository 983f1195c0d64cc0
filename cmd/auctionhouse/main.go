// Package main starts the auction house gRPC service process lifecycle.
package main

import (
	"flag"
	"log"
	"os"

	auctionhousecmd "github.com/louisbranch/auctionhouse/internal/cmd/auctionhouse"
	entrypoint "github.com/louisbranch/auctionhouse/internal/platform/cmd"
)

func main() {
	cfg, err := auctionhousecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[AUCTIONHOUSE] ")
	ctx, stop := entrypoint.SignalContext()
	defer stop()

	if err := auctionhousecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
