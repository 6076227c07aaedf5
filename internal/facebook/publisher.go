package facebook

import (
	"context"
	"errors"

	"aggies-attic/internal/logger"
	"aggies-attic/internal/models"
)

// ErrEmptyPostID is returned when the Graph API accepted a post but the
// response carried no usable id.
var ErrEmptyPostID = errors.New("facebook returned no post id")

// Publisher turns events and listings into Page posts.
type Publisher struct {
	Poster  Poster
	BaseURL string
	Logger  *logger.Logger
}

func NewPublisher(p Poster, baseURL string, log *logger.Logger) *Publisher {
	return &Publisher{Poster: p, BaseURL: baseURL, Logger: log}
}

// CreateEventPost posts the event: a photo post of the first image when
// there is one, otherwise a feed post with the permalink attached.
func (p *Publisher) CreateEventPost(ctx context.Context, e models.Event) (string, error) {
	msg := BuildEventMessage(e, p.BaseURL)

	var (
		res PostResult
		err error
	)
	if img := e.FirstImageURL(); img != "" {
		res, err = p.Poster.PostPhotoByURL(ctx, PhotoPost{ImageURL: img, Caption: msg.Message})
	} else {
		res, err = p.Poster.PostFeedMessage(ctx, FeedPost{Message: msg.Message, Link: msg.Link})
	}
	if err != nil {
		return "", err
	}
	if res.PostID == "" {
		return "", ErrEmptyPostID
	}
	return res.PostID, nil
}

// ReplaceEventPost deletes previousPostID, if any, then creates a fresh
// post. A failed delete is logged and does not stop the create, so the old
// post may survive next to the new one.
func (p *Publisher) ReplaceEventPost(ctx context.Context, previousPostID string, e models.Event) (string, error) {
	if previousPostID != "" {
		if err := p.Poster.DeletePost(ctx, previousPostID); err != nil {
			p.Logger.LogSync("event", e.ID.Hex(), "delete-old-post", err)
		}
	}
	return p.CreateEventPost(ctx, e)
}

// PostListing posts a photo of the listing's main image, or a text post
// when it has no images.
func (p *Publisher) PostListing(ctx context.Context, l models.Listing) (string, error) {
	caption := BuildListingCaption(l)

	var (
		res PostResult
		err error
	)
	if img := l.MainImageURL(); img != "" {
		res, err = p.Poster.PostPhotoByURL(ctx, PhotoPost{ImageURL: img, Caption: caption})
	} else {
		res, err = p.Poster.PostFeedMessage(ctx, FeedPost{Message: caption})
	}
	if err != nil {
		return "", err
	}
	if res.PostID == "" {
		return "", ErrEmptyPostID
	}
	return res.PostID, nil
}

func (p *Publisher) DeletePost(ctx context.Context, postID string) error {
	return p.Poster.DeletePost(ctx, postID)
}
