package analytics

import (
	"context"
	"fmt"
	"time"

	"aggies-attic/internal/database"
	eventsdb "aggies-attic/internal/events/db"
	"aggies-attic/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB runs the read-only aggregations behind the admin summary.
type DB struct {
	events   *mongo.Collection
	listings *mongo.Collection
}

func NewDB(db *mongo.Database) *DB {
	return &DB{
		events:   db.Collection(database.EventsCollection),
		listings: db.Collection(database.ListingsCollection),
	}
}

func (d *DB) CountEvents(ctx context.Context) (int64, error) {
	n, err := d.events.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (d *DB) CountActiveEvents(ctx context.Context, now time.Time) (int64, error) {
	n, err := d.events.CountDocuments(ctx, eventsdb.ActiveFilter(now))
	if err != nil {
		return 0, fmt.Errorf("count active events: %w", err)
	}
	return n, nil
}

// EventSyncStates loads only the Page mirror of each event.
func (d *DB) EventSyncStates(ctx context.Context) ([]models.Event, error) {
	opts := options.Find().SetProjection(bson.M{"facebook": 1})
	cur, err := d.events.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find event sync states: %w", err)
	}
	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode event sync states: %w", err)
	}
	return events, nil
}

// ListingTotals is a single $group over the listings collection.
func (d *DB) ListingTotals(ctx context.Context) (ListingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"total":  bson.M{"$sum": 1},
			"posted": bson.M{"$sum": bson.M{"$cond": bson.A{"$postedToFacebook", 1, 0}}},
			"withoutImages": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$size": bson.M{"$ifNull": bson.A{"$images", bson.A{}}}}, 0}}, 1, 0,
			}}},
			"askingTotal": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$price", 0}}},
		}}},
	}
	cur, err := d.listings.Aggregate(ctx, pipeline)
	if err != nil {
		return ListingSummary{}, fmt.Errorf("aggregate listings: %w", err)
	}
	var rows []ListingSummary
	if err := cur.All(ctx, &rows); err != nil {
		return ListingSummary{}, fmt.Errorf("decode listing totals: %w", err)
	}
	if len(rows) == 0 {
		return ListingSummary{}, nil
	}
	return rows[0], nil
}

// DailyListings counts listings created per UTC day since the given time.
func (d *DB) DailyListings(ctx context.Context, since time.Time) ([]DailyCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cur, err := d.listings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily listings: %w", err)
	}
	var rows []DailyCount
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode daily listings: %w", err)
	}
	return rows, nil
}
