package db

import (
	"context"
	"errors"
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
	return &DB{Collection: db.Collection(database.ListingsCollection), Now: time.Now}
}

func (d *DB) now() time.Time {
	return d.Now().UTC().Truncate(time.Millisecond)
}

// List returns every listing, newest first.
func (d *DB) List(ctx context.Context) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := d.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	listings := []models.Listing{}
	if err := cur.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return listings, nil
}

func (d *DB) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	var l models.Listing
	if err := d.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, database.MapError(err)
	}
	return &l, nil
}

func (d *DB) Create(ctx context.Context, l *models.Listing) error {
	now := d.now()
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	l.ClampMainImage()
	l.CreatedAt = now
	l.UpdatedAt = now

	if _, err := d.Collection.InsertOne(ctx, l); err != nil {
		return fmt.Errorf("insert listing: %w", database.MapError(err))
	}
	return nil
}

// Save writes the editable fields of l and bumps updatedAt, then reloads l
// from the stored document. The Page post fields are left alone so a
// background MarkPosted is never undone.
func (d *DB) Save(ctx context.Context, l *models.Listing) error {
	if l.Images == nil {
		l.Images = []string{}
	}
	l.ClampMainImage()

	update := bson.M{"$set": bson.M{
		"title":          l.Title,
		"description":    l.Description,
		"price":          l.Price,
		"images":         l.Images,
		"mainImageIndex": l.MainImageIndex,
		"updatedAt":      d.now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var saved models.Listing
	if err := d.Collection.FindOneAndUpdate(ctx, bson.M{"_id": l.ID}, update, opts).Decode(&saved); err != nil {
		if err = database.MapError(err); errors.Is(err, database.ErrNotFound) {
			return err
		}
		return fmt.Errorf("save listing: %w", err)
	}
	*l = saved
	return nil
}

// MarkPosted records a successful Page post. It is a targeted update so it
// cannot clobber edits made while the post was in flight.
func (d *DB) MarkPosted(ctx context.Context, id primitive.ObjectID, postID string) error {
	res, err := d.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"postedToFacebook": true,
		"facebookPostId":   postID,
	}})
	if err != nil {
		return fmt.Errorf("mark listing posted: %w", err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}
