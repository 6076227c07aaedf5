package facebook

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"aggies-attic/internal/logger"
	"aggies-attic/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockPoster struct {
	mock.Mock
}

func (m *MockPoster) PostFeedMessage(ctx context.Context, p FeedPost) (PostResult, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(PostResult), args.Error(1)
}

func (m *MockPoster) PostPhotoByURL(ctx context.Context, p PhotoPost) (PostResult, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(PostResult), args.Error(1)
}

func (m *MockPoster) DeletePost(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func day(y int, mo time.Month, d int) *time.Time {
	t := time.Date(y, mo, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildEventMessage(t *testing.T) {
	id, _ := primitive.ObjectIDFromHex("665f1c2a9b1e8a0012345678")
	e := models.Event{
		ID:          id,
		Title:       "  Spring Sale ",
		Description: "Everything half off.",
		Date:        day(2025, time.June, 1),
		EndDate:     day(2025, time.June, 3),
	}

	msg := BuildEventMessage(e, "https://example.org/")
	assert.Equal(t, "Spring Sale\nWhen: Sun, Jun 1, 2025 – Tue, Jun 3, 2025\n\nEverything half off.\n\nhttps://example.org/events/665f1c2a9b1e8a0012345678", msg.Message)
	assert.Equal(t, "https://example.org/events/665f1c2a9b1e8a0012345678", msg.Link)
}

func TestBuildEventMessageWhenVariants(t *testing.T) {
	same := BuildEventMessage(models.Event{Title: "A", Date: day(2025, time.June, 1), EndDate: day(2025, time.June, 1)}, "")
	assert.Equal(t, "A\nWhen: Sun, Jun 1, 2025\n\nhttps://aggiesattic.org", same.Message)

	through := BuildEventMessage(models.Event{EndDate: day(2025, time.June, 3)}, "")
	assert.Equal(t, "New Event\nWhen: Through Tue, Jun 3, 2025\n\nhttps://aggiesattic.org", through.Message)

	evergreen := BuildEventMessage(models.Event{Title: "Always open"}, "")
	assert.Equal(t, "Always open\n\nhttps://aggiesattic.org", evergreen.Message)
}

func TestBuildEventMessageTruncatesDescription(t *testing.T) {
	long := strings.Repeat("é", 1000)
	msg := BuildEventMessage(models.Event{Title: "T", Description: long}, "")

	lines := strings.Split(msg.Message, "\n")
	require.Len(t, lines, 5)
	body := []rune(lines[2])
	assert.Len(t, body, 900)
	assert.Equal(t, '…', body[899])

	exact := strings.Repeat("a", 900)
	msg = BuildEventMessage(models.Event{Title: "T", Description: exact}, "")
	assert.Contains(t, msg.Message, exact)
	assert.NotContains(t, msg.Message, "…")
}

func TestBuildListingCaption(t *testing.T) {
	price := 25.5
	assert.Equal(t, "Desk — $25.5", BuildListingCaption(models.Listing{Title: "Desk", Price: &price}))
	whole := 40.0
	assert.Equal(t, "Lamp — $40", BuildListingCaption(models.Listing{Title: "Lamp", Price: &whole}))
	assert.Equal(t, "New listing", BuildListingCaption(models.Listing{}))
}

func TestReplaceDeletesBeforeCreateAndContinuesOnDeleteFailure(t *testing.T) {
	poster := new(MockPoster)
	var calls []string
	poster.On("DeletePost", mock.Anything, "old_1").
		Run(func(mock.Arguments) { calls = append(calls, "delete") }).
		Return(errors.New("(#100) post not found"))
	poster.On("PostFeedMessage", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { calls = append(calls, "create") }).
		Return(PostResult{PostID: "new_2"}, nil)

	p := NewPublisher(poster, "https://example.org", logger.NewWriterLogger(nil))
	id, err := p.ReplaceEventPost(context.Background(), "old_1", models.Event{Title: "x"})

	require.NoError(t, err)
	assert.Equal(t, "new_2", id)
	assert.Equal(t, []string{"delete", "create"}, calls)
	poster.AssertExpectations(t)
}

func TestCreateEventPostPrefersPhoto(t *testing.T) {
	poster := new(MockPoster)
	poster.On("PostPhotoByURL", mock.Anything, mock.MatchedBy(func(p PhotoPost) bool {
		return p.ImageURL == "https://img/1.jpg" && strings.HasPrefix(p.Caption, "Fair")
	})).Return(PostResult{PostID: "9_9"}, nil)

	p := NewPublisher(poster, "", logger.NewWriterLogger(nil))
	e := models.Event{Title: "Fair", Images: []models.EventImage{{URL: "https://img/1.jpg"}, {URL: "https://img/2.jpg"}}}

	id, err := p.CreateEventPost(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, "9_9", id)
	poster.AssertNotCalled(t, "PostFeedMessage", mock.Anything, mock.Anything)
}

func TestEmptyPostIDIsAnError(t *testing.T) {
	poster := new(MockPoster)
	poster.On("PostFeedMessage", mock.Anything, mock.Anything).Return(PostResult{}, nil)

	p := NewPublisher(poster, "", logger.NewWriterLogger(nil))
	_, err := p.CreateEventPost(context.Background(), models.Event{Title: "x"})
	assert.ErrorIs(t, err, ErrEmptyPostID)

	_, err = p.PostListing(context.Background(), models.Listing{Title: "x"})
	assert.ErrorIs(t, err, ErrEmptyPostID)
}

func TestPostListingUsesMainImage(t *testing.T) {
	poster := new(MockPoster)
	poster.On("PostPhotoByURL", mock.Anything, PhotoPost{ImageURL: "b", Caption: "Chair"}).Return(PostResult{PostID: "1_1"}, nil)

	p := NewPublisher(poster, "", logger.NewWriterLogger(nil))
	id, err := p.PostListing(context.Background(), models.Listing{Title: "Chair", Images: []string{"a", "b"}, MainImageIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, "1_1", id)
}
