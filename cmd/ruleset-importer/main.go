package main

import (
	"context"
	"flag"
	"os"

	rulesetimporter "github.com/Daakon/stone-caster-2-sub004/internal/cmd/rulesetimporter"
	"github.com/Daakon/stone-caster-2-sub004/internal/platform/config"
)

func main() {
	cfg, err := rulesetimporter.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	if err := rulesetimporter.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
