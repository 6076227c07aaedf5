package db_test

import (
	"context"
	"testing"
	"time"

	"aggies-attic/internal/database"
	"aggies-attic/internal/database/mongotest"
	"aggies-attic/internal/listings/db"
	"aggies-attic/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListingLifecycle(t *testing.T) {
	ctx := context.Background()
	store := db.New(mongotest.Database(t))

	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return clock }

	price := 25.0
	first := models.Listing{Title: "Desk", Description: "Oak", Price: &price, Images: []string{"a", "b"}, MainImageIndex: 5}
	require.NoError(t, store.Create(ctx, &first))
	assert.Equal(t, 0, first.MainImageIndex, "out of range index is clamped on create")

	clock = clock.Add(time.Hour)
	second := models.Listing{Title: "Lamp", Description: "Brass"}
	require.NoError(t, store.Create(ctx, &second))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Lamp", all[0].Title)
	assert.Nil(t, all[0].Price)
	assert.NotNil(t, all[0].Images)

	got, err := store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	_, err = got.RemoveImage(0)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, got))

	got, err = store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Images)

	require.NoError(t, store.MarkPosted(ctx, first.ID, "99_100"))
	got, err = store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.PostedToFacebook)
	require.NotNil(t, got.FacebookPostID)
	assert.Equal(t, "99_100", *got.FacebookPostID)

	require.NoError(t, store.Delete(ctx, first.ID))
	_, err = store.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestSaveKeepsPostStatus(t *testing.T) {
	ctx := context.Background()
	store := db.New(mongotest.Database(t))

	l := models.Listing{Title: "Desk", Description: "Oak", Images: []string{"a", "b"}}
	require.NoError(t, store.Create(ctx, &l))

	stale, err := store.GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.False(t, stale.PostedToFacebook)

	require.NoError(t, store.MarkPosted(ctx, l.ID, "99_100"))

	stale.Title = "Oak desk"
	stale.MainImageIndex = 1
	require.NoError(t, store.Save(ctx, stale))
	assert.True(t, stale.PostedToFacebook, "saved listing is reloaded")

	got, err := store.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oak desk", got.Title)
	assert.Equal(t, 1, got.MainImageIndex)
	assert.True(t, got.PostedToFacebook)
	require.NotNil(t, got.FacebookPostID)
	assert.Equal(t, "99_100", *got.FacebookPostID)
}

func TestMissingListing(t *testing.T) {
	ctx := context.Background()
	store := db.New(mongotest.Database(t))
	id := primitive.NewObjectID()

	assert.ErrorIs(t, store.Save(ctx, &models.Listing{ID: id}), database.ErrNotFound)
	assert.ErrorIs(t, store.MarkPosted(ctx, id, "x"), database.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, id), database.ErrNotFound)
}
