// Command seed bootstraps the first administrator account so the API can be
// logged into on a fresh database.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/repository"
	"github.com/alhisab/school-fees-api/pkg/config"
	"github.com/alhisab/school-fees-api/pkg/database"
)

func main() {
	var (
		email    string
		password string
		fullName string
	)

	flag.StringVar(&email, "email", "admin@example.com", "Administrator email")
	flag.StringVar(&password, "password", "", "Administrator password (required)")
	flag.StringVar(&fullName, "name", "Administrator", "Administrator display name")
	flag.Parse()

	if password == "" {
		log.Fatal("password is required")
	}
	if len(password) < 8 {
		log.Fatal("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)
	if existing, err := users.FindByEmail(ctx, email); err == nil && existing != nil {
		log.Fatalf("account %s already exists", email)
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("failed to check existing account: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create administrator: %v", err)
	}

	fmt.Printf("administrator %s created (id %s)\n", admin.Email, admin.ID)
}
