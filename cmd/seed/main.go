// seed creates the initial super admin account from the environment.
// Idempotent: if an account with SEED_SUPERADMIN_EMAIL already exists, nothing is inserted.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"timetrack-auth/internal/config"
	"timetrack-auth/internal/db"
	"timetrack-auth/internal/security"
	superadmindomain "timetrack-auth/internal/superadmin/domain"
	superadminrepo "timetrack-auth/internal/superadmin/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	email := os.Getenv("SEED_SUPERADMIN_EMAIL")
	password := os.Getenv("SEED_SUPERADMIN_PASSWORD")
	name := os.Getenv("SEED_SUPERADMIN_NAME")
	if email == "" || password == "" {
		log.Fatal("seed: SEED_SUPERADMIN_EMAIL and SEED_SUPERADMIN_PASSWORD are required")
	}
	if name == "" {
		name = "Super Admin"
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	repo := superadminrepo.NewPostgresRepository(database)

	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("seed: lookup: %v", err)
	}
	if existing != nil {
		log.Printf("seed: super admin %s already exists (id=%d), nothing to do", email, existing.ID)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(password))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	id, err := repo.Create(ctx, &superadmindomain.SuperAdmin{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		log.Fatalf("seed: create: %v", err)
	}
	log.Printf("seed: created super admin %s (id=%d)", email, id)
}
