package migrations

import (
	"context"
	"testing"
	"time"

	"aggies-attic/internal/database"
	"aggies-attic/internal/database/mongotest"
	"aggies-attic/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIndexesAreNamed(t *testing.T) {
	seen := map[string]bool{}
	for _, idx := range Indexes() {
		require.NotNil(t, idx.Model.Options)
		require.NotNil(t, idx.Model.Options.Name)
		name := *idx.Model.Options.Name
		assert.False(t, seen[name], "duplicate index name %s", name)
		seen[name] = true
	}
}

func TestRunnerUpIsRepeatableAndEnforcesUniqueEmail(t *testing.T) {
	db := mongotest.Database(t)
	ctx := context.Background()
	r := NewRunner(db, logger.NewWriterLogger(nil))

	require.NoError(t, r.Up(ctx))
	require.NoError(t, r.Up(ctx))

	admins := db.Collection(database.AdminsCollection)
	_, err := admins.InsertOne(ctx, bson.M{"email": "a@example.org", "createdAt": time.Now()})
	require.NoError(t, err)
	_, err = admins.InsertOne(ctx, bson.M{"email": "a@example.org", "createdAt": time.Now()})
	assert.True(t, mongo.IsDuplicateKeyError(err))
	assert.ErrorIs(t, database.MapError(err), database.ErrDuplicate)
}
