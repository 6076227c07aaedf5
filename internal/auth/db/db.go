package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aggies-attic/internal/database"
	"aggies-attic/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type DB struct {
	Collection *mongo.Collection
}

func New(db *mongo.Database) *DB {
	return &DB{Collection: db.Collection(database.AdminsCollection)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *DB) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	err := d.Collection.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&a)
	if err != nil {
		return nil, database.MapError(err)
	}
	return &a, nil
}

// Create inserts a, returning database.ErrDuplicate when the email is taken.
func (d *DB) Create(ctx context.Context, a *models.Admin) error {
	a.Email = normalizeEmail(a.Email)
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if _, err := d.Collection.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert admin: %w", database.MapError(err))
	}
	return nil
}
