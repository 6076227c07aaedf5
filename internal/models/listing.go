package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrImageIndexOutOfRange = errors.New("image index out of range")

type Listing struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Title            string              `bson:"title" json:"title"`
	Description      string              `bson:"description" json:"description"`
	Price            *float64            `bson:"price" json:"price"`
	Images           []string            `bson:"images" json:"images"`
	MainImageIndex   int                 `bson:"mainImageIndex" json:"mainImageIndex"`
	PostedToFacebook bool                `bson:"postedToFacebook" json:"postedToFacebook"`
	FacebookPostID   *string             `bson:"facebookPostId" json:"facebookPostId"`
	CreatedBy        *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ListingInput is used for both create and partial update. On update, nil
// or empty fields keep the stored value; a non-nil ImageURLs replaces the
// image list.
type ListingInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	ImageURLs   []string `json:"imageUrls"`
}

type MainImageInput struct {
	Index *int `json:"index"`
}

func (l *Listing) MainImageURL() string {
	if l.MainImageIndex >= 0 && l.MainImageIndex < len(l.Images) {
		return l.Images[l.MainImageIndex]
	}
	if len(l.Images) > 0 {
		return l.Images[0]
	}
	return ""
}

// ClampMainImage resets an index that no longer points into Images.
func (l *Listing) ClampMainImage() {
	if l.MainImageIndex < 0 || l.MainImageIndex >= len(l.Images) {
		l.MainImageIndex = 0
	}
}

func (l *Listing) SetMainImage(index int) error {
	if index < 0 || index >= len(l.Images) {
		return ErrImageIndexOutOfRange
	}
	l.MainImageIndex = index
	return nil
}

// RemoveImage splices out image i and keeps MainImageIndex pointing at the
// same image when possible: removing the main image resets it to 0, removing
// one before it shifts it down.
func (l *Listing) RemoveImage(i int) (string, error) {
	if i < 0 || i >= len(l.Images) {
		return "", ErrImageIndexOutOfRange
	}
	removed := l.Images[i]
	l.Images = append(l.Images[:i:i], l.Images[i+1:]...)

	switch {
	case l.MainImageIndex == i:
		l.MainImageIndex = 0
	case l.MainImageIndex > i:
		l.MainImageIndex--
	}
	return removed, nil
}
