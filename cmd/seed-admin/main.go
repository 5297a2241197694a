// Command seed-admin creates the first administrator in the Mongo store.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	authsvc "hotelier/internal/app/services/auth"
	"hotelier/internal/infra/config"
	mongostore "hotelier/internal/infra/db/mongo"
	"hotelier/internal/infra/obs"
	"hotelier/internal/infra/security"
)

func main() {
	email := pflag.String("email", "", "administrator email")
	name := pflag.String("name", "Administrator", "administrator display name")
	password := pflag.String("password", "", "administrator password (defaults to ADMIN_PASSWORD)")
	envFile := pflag.String("env-file", ".env", "optional dotenv file")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	if *email == "" {
		*email = cfg.AdminEmail
	}
	if *password == "" {
		*password = cfg.AdminPassword
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "seed-admin: --email and --password are required")
		pflag.Usage()
		os.Exit(2)
	}
	if cfg.Storage != config.StorageMongo {
		logger.Error("seed-admin needs STORAGE=mongo; the in-memory API seeds its admin from ADMIN_EMAIL")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connect failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = client.Close(context.Background()) }()
	if err := mongostore.EnsureIndexes(ctx, client.DB); err != nil {
		logger.Error("mongo indexes failed", "error", err)
		os.Exit(1)
	}

	tokens, err := security.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.JWTIssuer)
	if err != nil {
		logger.Error("jwt issuer", "error", err)
		os.Exit(1)
	}
	service := &authsvc.Service{
		Users:     mongostore.NewUserRepository(client.DB),
		Passwords: security.BcryptHasher{Cost: cfg.BcryptCost},
		Tokens:    tokens,
		Logger:    logger,
	}
	admin, created, err := service.EnsureAdmin(ctx, authsvc.RegisterParams{Email: *email, Name: *name, Password: *password})
	if err != nil {
		logger.Error("admin seed failed", "error", err)
		os.Exit(1)
	}
	if created {
		logger.Info("admin created", "user_id", admin.ID, "email", admin.Email)
		return
	}
	logger.Info("admin already exists", "user_id", admin.ID, "email", admin.Email)
}
