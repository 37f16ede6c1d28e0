// Seeds a login account so report closing works on a fresh deployment.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"civicwatch/config"
	"civicwatch/database"
)

var (
	name     = flag.String("name", "Admin", "Display name for the account")
	email    = flag.String("email", "", "Login email (required)")
	password = flag.String("password", "", "Login password (required)")
	role     = flag.String("role", "admin", "Account role: citizen, government or admin")
)

func main() {
	flag.Parse()
	if *email == "" || *password == "" {
		log.Fatal("-email and -password are required")
	}
	switch *role {
	case "citizen", "government", "admin":
	default:
		log.Fatalf("Invalid role %q, want citizen, government or admin", *role)
	}

	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	auth := database.NewAuthService(db, cfg.JWTSecret)
	if err := auth.CreateUser(ctx, *name, *email, *password, *role); err != nil {
		log.Fatalf("Failed to create user %s: %v", *email, err)
	}
	log.Infof("Created %s account for %s", *role, *email)
}
