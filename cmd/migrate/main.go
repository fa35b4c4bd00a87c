package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/migrate"
	"github.com/abgdnv/storefront/pkg/config/configloader"
)

const serviceName = "storefront"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("migration failed: %v", err)
		os.Exit(1)
	}
	log.Println("migrations applied")
}

func run(ctx context.Context) error {
	cfg, err := configloader.Load[*config.Config](serviceName)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return migrate.Apply(ctx, cfg.Database.URL)
}
