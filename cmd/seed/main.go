// Command seed resets a development database and fills it with sample
// events and listings.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"aggies-attic/internal/config"
	"aggies-attic/internal/database"
	"aggies-attic/internal/database/migrations"
	eventsdb "aggies-attic/internal/events/db"
	listingsdb "aggies-attic/internal/listings/db"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/models"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	_ = godotenv.Load()
	reset := flag.Bool("reset", false, "drop the events and listings collections first")
	flag.Parse()

	log := logger.NewWriterLogger(os.Stdout)
	if err := run(*reset, config.Load(), log); err != nil {
		log.Error("SEED", err.Error())
		os.Exit(1)
	}
}

func run(reset bool, cfg *config.Config, log *logger.Logger) error {
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

	if reset {
		log.Info("SEED", "Dropping collections...")
		dropCollections(ctx, db)
	}
	if err := migrations.NewRunner(db, log).Up(ctx); err != nil {
		return err
	}

	log.Info("SEED", "Seeding sample data...")
	if err := seedData(ctx, db, time.Now()); err != nil {
		return err
	}
	log.Info("SEED", "✅ Done.")
	return nil
}

func dropCollections(ctx context.Context, db *mongo.Database) {
	for _, name := range []string{database.EventsCollection, database.ListingsCollection} {
		_ = db.Collection(name).Drop(ctx)
	}
}

// sampleEvents covers each kind the public list distinguishes: a dated
// one-day event, a multi-day range and an undated standing event.
func sampleEvents(now time.Time) []models.Event {
	day := func(offset int) *time.Time {
		d := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
		return &d
	}
	return []models.Event{
		{Title: "Saturday Bag Sale", Description: "Fill a bag for $5.", Date: day(3)},
		{Title: "Spring Furniture Drive", Description: "Drop off gently used furniture at the back dock.", Date: day(7), EndDate: day(10)},
		{Title: "Volunteer Orientation", Description: "Every first Monday. Ask at the front desk."},
	}
}

func sampleListings() []models.Listing {
	price := func(p float64) *float64 { return &p }
	return []models.Listing{
		{Title: "Oak Writing Desk", Description: "Solid oak, two drawers.", Price: price(40)},
		{Title: "Box of Paperbacks", Description: "Mixed fiction, about thirty books.", Price: price(5)},
		{Title: "Free Moving Boxes", Description: "Flattened, various sizes."},
	}
}

func seedData(ctx context.Context, db *mongo.Database, now time.Time) error {
	events := eventsdb.New(db)
	for _, e := range sampleEvents(now) {
		e := e
		if err := events.Create(ctx, &e); err != nil {
			return fmt.Errorf("seed event %q: %w", e.Title, err)
		}
	}
	listings := listingsdb.New(db)
	for _, l := range sampleListings() {
		l := l
		if err := listings.Create(ctx, &l); err != nil {
			return fmt.Errorf("seed listing %q: %w", l.Title, err)
		}
	}
	return nil
}
