package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	bundlercmd "github.com/Daakon/stone-caster-2-sub004/internal/cmd/bundler"
)

func main() {
	cfg, err := bundlercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[BUNDLER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bundlercmd.Run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("assemble bundle: %v", err)
	}
}
