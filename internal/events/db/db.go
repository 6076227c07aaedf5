package db

import (
	"context"
	"fmt"
	"time"

	"aggies-attic/internal/database"
	"aggies-attic/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DB struct {
	Collection *mongo.Collection
	Now        func() time.Time
}

func New(db *mongo.Database) *DB {
	return &DB{Collection: db.Collection(database.EventsCollection), Now: time.Now}
}

// now is truncated to Mongo's millisecond precision so the documents we
// return match what a later read would give back.
func (d *DB) now() time.Time {
	return d.Now().UTC().Truncate(time.Millisecond)
}

// ActiveFilter matches evergreen events, events whose end date has not
// passed, and events without an end date that started at most
// models.ActiveGraceWindow ago.
func ActiveFilter(now time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"date": nil, "endDate": nil},
		bson.M{"endDate": bson.M{"$gte": now}},
		bson.M{"endDate": nil, "date": bson.M{"$gte": now.Add(-models.ActiveGraceWindow)}},
	}}
}

// ActivePipeline filters with ActiveFilter and sorts dated events first.
// A plain ascending sort on date would put nulls first.
func ActivePipeline(now time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: ActiveFilter(now)}},
		{{Key: "$addFields", Value: bson.M{
			"undated": bson.M{"$cond": bson.A{bson.M{"$ifNull": bson.A{"$date", false}}, 0, 1}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "undated", Value: 1},
			{Key: "date", Value: 1},
			{Key: "createdAt", Value: -1},
		}}},
		{{Key: "$project", Value: bson.M{"undated": 0}}},
	}
}

func (d *DB) ListActive(ctx context.Context) ([]models.Event, error) {
	cur, err := d.Collection.Aggregate(ctx, ActivePipeline(d.now()))
	if err != nil {
		return nil, fmt.Errorf("aggregate active events: %w", err)
	}
	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode active events: %w", err)
	}
	return events, nil
}

// ListSyncFailures returns events whose last Page sync failed, most
// recently updated first.
func (d *DB) ListSyncFailures(ctx context.Context) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := d.Collection.Find(ctx, bson.M{"facebook.lastError": bson.M{"$type": "string"}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find sync failures: %w", err)
	}
	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode sync failures: %w", err)
	}
	return events, nil
}

func (d *DB) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := d.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, database.MapError(err)
	}
	return &e, nil
}

// Create assigns the id and timestamps and inserts the event.
func (d *DB) Create(ctx context.Context, e *models.Event) error {
	if err := (models.EventFields{Date: e.Date, EndDate: e.EndDate}).CheckRange(); err != nil {
		return err
	}
	now := d.now()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Images == nil {
		e.Images = []models.EventImage{}
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := d.Collection.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert event: %w", database.MapError(err))
	}
	return nil
}

func (d *DB) UpdateFields(ctx context.Context, id primitive.ObjectID, f models.EventFields) (*models.Event, error) {
	if err := f.CheckRange(); err != nil {
		return nil, err
	}
	return d.findAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"title":       f.Title,
		"description": f.Description,
		"date":        f.Date,
		"endDate":     f.EndDate,
		"updatedAt":   d.now(),
	}})
}

func (d *DB) PushImages(ctx context.Context, id primitive.ObjectID, images []models.EventImage) (*models.Event, error) {
	return d.findAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"images": bson.M{"$each": images}},
		"$set":  bson.M{"updatedAt": d.now()},
	})
}

func (d *DB) PullImage(ctx context.Context, id, imageID primitive.ObjectID) (*models.Event, error) {
	return d.findAndUpdate(ctx, id, bson.M{
		"$pull": bson.M{"images": bson.M{"_id": imageID}},
		"$set":  bson.M{"updatedAt": d.now()},
	})
}

// SetFacebook overwrites the sync annotation without touching updatedAt.
func (d *DB) SetFacebook(ctx context.Context, id primitive.ObjectID, fb models.FacebookSync) (*models.Event, error) {
	return d.findAndUpdate(ctx, id, bson.M{"$set": bson.M{"facebook": fb}})
}

func (d *DB) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (d *DB) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Event, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e models.Event
	err := d.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&e)
	if err != nil {
		return nil, database.MapError(err)
	}
	return &e, nil
}
