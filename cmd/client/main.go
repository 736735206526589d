package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"KinkLink/internal/cli/commands"
	"KinkLink/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// единая конфигурация (env + флаги)
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// диспетчер команд
	exitCode := commands.Dispatch(ctx, cfg, flag.Args())
	if exitCode == 0 {
		return
	}
	os.Exit(exitCode)
}

func printVersion() {
	fmt.Printf("KinkLink CLI (kinkctl)\nVersion: %s\nBuild date: %s\n", version, buildDate)
}
