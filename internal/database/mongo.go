package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aggies-attic/internal/config"
	"aggies-attic/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	EventsCollection   = "events"
	ListingsCollection = "listings"
	AdminsCollection   = "admins"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Connect dials MongoDB and pings the primary, retrying a few times so the
// service can start alongside a database container that is still booting.
func Connect(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(5 * time.Second)

	var (
		client *mongo.Client
		err    error
	)
	for i := 1; i <= connectAttempts; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to MongoDB (attempt %d/%d)", i, connectAttempts))

		client, err = mongo.Connect(ctx, opts)
		if err == nil {
			err = client.Ping(ctx, readpref.Primary())
			if err == nil {
				break
			}
			_ = client.Disconnect(ctx)
		}

		log.Error("DATABASE", fmt.Sprintf("MongoDB not reachable: %v", err))
		if i < connectAttempts {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(connectBackoff):
			}
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb after %d attempts: %w", connectAttempts, err)
	}

	log.Info("DATABASE", fmt.Sprintf("MongoDB connection successful (db=%s)", cfg.Database))
	return client, client.Database(cfg.Database), nil
}

// MapError translates driver errors into the package sentinels so stores
// can return them without leaking driver types.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
