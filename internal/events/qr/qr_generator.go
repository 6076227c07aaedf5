package qr

import (
	"errors"

	"aggies-attic/internal/utils"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MaxSize     = 1024
)

type QRGenerator struct {
	baseURL string
}

func NewQRGenerator(baseURL string) *QRGenerator {
	return &QRGenerator{baseURL: baseURL}
}

// EventPNG encodes the public permalink of an event as a PNG QR code, for
// printing on flyers. size is clamped to [64, MaxSize].
func (q *QRGenerator) EventPNG(eventID string, size int) ([]byte, error) {
	if eventID == "" {
		return nil, errors.New("event id is required")
	}
	switch {
	case size <= 0:
		size = DefaultSize
	case size < 64:
		size = 64
	case size > MaxSize:
		size = MaxSize
	}
	return qrcode.Encode(utils.EventPermalink(q.baseURL, eventID), qrcode.Medium, size)
}
