package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lei/datagov-gateway/pkg/proxy"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	// Load .env file (ignore error if file doesn't exist - env vars might be set externally)
	_ = godotenv.Load()

	// Without RESOURCES_FILE every built-in resource is exposed
	resourcesFile := os.Getenv("RESOURCES_FILE")

	var p *proxy.Proxy
	var err error
	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		p, err = proxy.NewFromFile(configFile, resourcesFile)
	} else {
		p, err = proxy.NewFromEnv(resourcesFile)
	}
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return p.Start(ctx)
}
