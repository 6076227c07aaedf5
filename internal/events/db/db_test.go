package db_test

import (
	"context"
	"testing"
	"time"

	"aggies-attic/internal/database"
	"aggies-attic/internal/database/mongotest"
	"aggies-attic/internal/events/db"
	"aggies-attic/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestActiveFilterShape(t *testing.T) {
	f := db.ActiveFilter(now)
	clauses, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, clauses, 3)

	grace := clauses[2].(bson.M)["date"].(bson.M)["$gte"].(time.Time)
	assert.Equal(t, now.Add(-24*time.Hour), grace)
}

func TestActivePipelineSortsUndatedLast(t *testing.T) {
	p := db.ActivePipeline(now)
	require.Len(t, p, 4)
	assert.Equal(t, "$sort", p[2][0].Key)
	assert.Equal(t, bson.D{{Key: "undated", Value: 1}, {Key: "date", Value: 1}, {Key: "createdAt", Value: -1}}, p[2][0].Value)
}

func newStore(t *testing.T, clock time.Time) *db.DB {
	store := db.New(mongotest.Database(t))
	store.Now = func() time.Time { return clock }
	return store
}

func TestListActiveBoundaries(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, now)

	seed := []models.Event{
		{Title: "ended one second ago", Date: ptr(now.Add(-48 * time.Hour)), EndDate: ptr(now.Add(-time.Second))},
		{Title: "started 23h ago", Date: ptr(now.Add(-23 * time.Hour))},
		{Title: "started 25h ago", Date: ptr(now.Add(-25 * time.Hour))},
		{Title: "evergreen"},
		{Title: "next week", Date: ptr(now.Add(7 * 24 * time.Hour))},
		{Title: "running", Date: ptr(now.Add(-72 * time.Hour)), EndDate: ptr(now.Add(time.Hour))},
	}
	for i := range seed {
		require.NoError(t, store.Create(ctx, &seed[i]))
	}

	events, err := store.ListActive(ctx)
	require.NoError(t, err)

	var titles []string
	for _, e := range events {
		titles = append(titles, e.Title)
		assert.True(t, e.IsActive(now), e.Title)
	}
	assert.Equal(t, []string{"running", "started 23h ago", "next week", "evergreen"}, titles)
}

func TestCreateRejectsEndBeforeStart(t *testing.T) {
	store := newStore(t, now)
	e := models.Event{Title: "bad", Date: ptr(now), EndDate: ptr(now.Add(-time.Hour))}

	err := store.Create(context.Background(), &e)
	assert.ErrorIs(t, err, models.ErrEndBeforeStart)
}

func TestImagesAndFacebookLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, now)

	e := models.Event{Title: "Open house", Description: "Come by"}
	require.NoError(t, store.Create(ctx, &e))
	assert.NotNil(t, e.Images)

	img := models.EventImage{ID: primitive.NewObjectID(), URL: "https://img/a.jpg", PublicID: "events/a", UploadedAt: now}
	updated, err := store.PushImages(ctx, e.ID, []models.EventImage{img})
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	assert.Equal(t, "events/a", updated.Images[0].PublicID)

	postID := "1_2"
	updated, err = store.SetFacebook(ctx, e.ID, models.FacebookSync{PostID: &postID, LastSyncedAt: ptr(now)})
	require.NoError(t, err)
	assert.Equal(t, models.SyncSynced, updated.SyncState().Status)

	updated, err = store.PullImage(ctx, e.ID, img.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Images)

	require.NoError(t, store.Delete(ctx, e.ID))
	_, err = store.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, e.ID), database.ErrNotFound)
}

func TestUpdateFieldsClearsDates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, now)

	e := models.Event{Title: "Sale", Date: ptr(now)}
	require.NoError(t, store.Create(ctx, &e))

	updated, err := store.UpdateFields(ctx, e.ID, models.EventFields{Title: "Sale!", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "Sale!", updated.Title)
	assert.Nil(t, updated.Date)

	_, err = store.UpdateFields(ctx, primitive.NewObjectID(), models.EventFields{Title: "x"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestListSyncFailures(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, now)

	ok := models.Event{Title: "synced"}
	bad := models.Event{Title: "failed"}
	require.NoError(t, store.Create(ctx, &ok))
	require.NoError(t, store.Create(ctx, &bad))

	msg := "graph down"
	_, err := store.SetFacebook(ctx, bad.ID, models.FacebookSync{LastError: &msg})
	require.NoError(t, err)

	failed, err := store.ListSyncFailures(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, bad.ID, failed[0].ID)
}
