// Package main provides a CLI that mints and prints a wave of RSA puzzles.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	puzzlecmd "github.com/louisbranch/rsacity/internal/cmd/puzzle"
	"github.com/louisbranch/rsacity/internal/platform/config"
)

func main() {
	cfg, err := puzzlecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix("[PUZZLE] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := puzzlecmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
