package plate

import (
	"context"
	"errors"
)

// ErrOCRUnavailable is returned when this build has no OCR engine.
var ErrOCRUnavailable = errors.New("ocr engine unavailable")

// Fragment is one text region recognized by an OCR engine.
type Fragment struct {
	Text       string
	Confidence float64
}

// Engine recognizes text in an encoded image (PNG).
// Fragments are returned in reading order.
type Engine interface {
	Recognize(ctx context.Context, img []byte) ([]Fragment, error)
	Close() error
}
