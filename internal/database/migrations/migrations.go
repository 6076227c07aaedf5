package migrations

import (
	"context"
	"fmt"

	"aggies-attic/internal/database"
	"aggies-attic/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index is one index the service expects to exist.
type Index struct {
	Collection string
	Model      mongo.IndexModel
}

// Indexes lists every index, in creation order.
func Indexes() []Index {
	return []Index{
		{
			Collection: database.AdminsCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("admins_email_unique"),
			},
		},
		{
			Collection: database.EventsCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "date", Value: 1}, {Key: "endDate", Value: 1}},
				Options: options.Index().SetName("events_date_end"),
			},
		},
		{
			Collection: database.EventsCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("events_created"),
			},
		},
		{
			Collection: database.ListingsCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("listings_created"),
			},
		},
	}
}

// Runner applies Indexes. Creating an index that already exists with the
// same spec is a no-op in MongoDB, so Up is safe to run on every start.
type Runner struct {
	db  *mongo.Database
	log *logger.Logger
}

func NewRunner(db *mongo.Database, log *logger.Logger) *Runner {
	return &Runner{db: db, log: log}
}

func (r *Runner) Up(ctx context.Context) error {
	for _, idx := range Indexes() {
		name, err := r.db.Collection(idx.Collection).Indexes().CreateOne(ctx, idx.Model)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idx.Collection, err)
		}
		r.log.Debug("MIGRATION", fmt.Sprintf("index %s.%s ready", idx.Collection, name))
	}
	r.log.Info("MIGRATION", fmt.Sprintf("%d indexes ensured", len(Indexes())))
	return nil
}
