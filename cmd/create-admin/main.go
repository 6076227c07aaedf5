// Command create-admin inserts an admin account directly into MongoDB. It is
// how the first admin gets created; later admins can use /api/auth/register.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"aggies-attic/internal/auth"
	authdb "aggies-attic/internal/auth/db"
	"aggies-attic/internal/config"
	"aggies-attic/internal/database"
	"aggies-attic/internal/database/migrations"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/models"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email (default $ADMIN_EMAIL)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (default $ADMIN_PASSWORD)")
	flag.Parse()

	log := logger.NewWriterLogger(os.Stdout)
	if err := run(*email, *password, config.Load(), log); err != nil {
		log.Error("ADMIN", err.Error())
		os.Exit(1)
	}
}

func run(email, password string, cfg *config.Config, log *logger.Logger) error {
	if email == "" || password == "" {
		return fmt.Errorf("both -email and -password are required")
	}
	if cfg.Mongo.URI == "" {
		return fmt.Errorf("MONGO_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, db, err := database.Connect(ctx, cfg.Mongo, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	// The unique email index must exist before the insert.
	if err := migrations.NewRunner(db, log).Up(ctx); err != nil {
		return err
	}

	svc := auth.NewService(authdb.New(db), nil, log)
	admin, err := svc.Register(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	log.Info("ADMIN", fmt.Sprintf("✅ Admin %s created (%s)", admin.Email, admin.ID.Hex()))
	return nil
}
