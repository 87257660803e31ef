// Package main provides a CLI for running Lua RSA lessons.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	lessoncmd "github.com/louisbranch/rsacity/internal/cmd/lesson"
	"github.com/louisbranch/rsacity/internal/platform/config"
)

func main() {
	cfg, err := lessoncmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix("[LESSON] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := lessoncmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
