package plate

import (
	"bytes"
	"context"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"speedguard/internal/config"
	"speedguard/internal/logger"
	"speedguard/internal/model"
)

// Resolver reads plate text from a detection's region of a frame.
type Resolver struct {
	engine    Engine
	minHeight int
	timeout   time.Duration
	logger    *logger.Logger
}

func NewResolver(engine Engine, config *config.Config, logger *logger.Logger) *Resolver {
	return &Resolver{
		engine:    engine,
		minHeight: config.OCRMinHeight,
		timeout:   config.OCRTimeout,
		logger:    logger,
	}
}

// Resolve returns the normalized plate text inside box, or "" when the frame
// is nil, the crop is empty, or the engine fails or reads nothing.
func (r *Resolver) Resolve(ctx context.Context, frame image.Image, box model.Box) string {
	if frame == nil || !box.Valid() {
		return ""
	}

	rect := box.Rect().Intersect(frame.Bounds())
	if rect.Empty() {
		return ""
	}

	crop := imaging.Crop(frame, rect)
	if r.minHeight > 0 && crop.Bounds().Dy() < r.minHeight {
		crop = imaging.Resize(crop, 0, r.minHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, crop, imaging.PNG); err != nil {
		r.logger.Error("Failed to encode plate crop: %v", err)
		return ""
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	fragments, err := r.engine.Recognize(ctx, buf.Bytes())
	if err != nil {
		r.logger.Warning("⚠️  OCR failed for box %v: %v", rect, err)
		return ""
	}

	return Normalize(fragments)
}

// Normalize joins fragment texts with single spaces, trims the result and
// strips every remaining whitespace character.
func Normalize(fragments []Fragment) string {
	if len(fragments) == 0 {
		return ""
	}

	texts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		texts = append(texts, f.Text)
	}
	joined := strings.TrimSpace(strings.Join(texts, " "))

	return strings.Join(strings.Fields(joined), "")
}
