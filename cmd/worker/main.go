// Worker deletes expired device authorization codes on an interval.
// Unredeemed codes stop working at expiry regardless; this just keeps the
// table from growing without bound.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timetrack-auth/internal/config"
	"timetrack-auth/internal/db"
	deviceauthrepo "timetrack-auth/internal/deviceauth/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	codes := deviceauthrepo.NewPostgresRepository(database)
	interval := cfg.CleanupInterval()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	log.Printf("worker: cleaning expired device authorization codes every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep := func() {
		n, err := codes.DeleteExpired(ctx, time.Now().UTC())
		if err != nil {
			log.Printf("worker: cleanup: %v", err)
			return
		}
		if n > 0 {
			log.Printf("worker: deleted %d expired authorization codes", n)
		}
	}

	sweep()
	for {
		select {
		case <-ctx.Done():
			log.Println("worker: stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
