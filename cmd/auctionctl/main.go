// Package main runs the auction house command-line client.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/louisbranch/auctionhouse/internal/cmd/auctionctl"
	entrypoint "github.com/louisbranch/auctionhouse/internal/platform/cmd"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("auctionctl: ")
	cfg, err := auctionctl.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	ctx, stop := entrypoint.SignalContext()
	defer stop()

	err = entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAuctionCtl, func(ctx context.Context) error {
		return auctionctl.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		log.Fatal(err)
	}
}
