//go:build !gocv

package vision

import (
	"errors"

	"speedguard/internal/services/pipeline"
)

// ErrVisionUnavailable is returned when the binary was built without the gocv tag.
var ErrVisionUnavailable = errors.New("gocv build tag is not enabled")

type VideoIO struct{}

func NewVideoIO() *VideoIO {
	return &VideoIO{}
}

func (v *VideoIO) OpenSource(_ string) (pipeline.FrameSource, error) {
	return nil, ErrVisionUnavailable
}

func (v *VideoIO) CreateSink(_ string, _ float64, _, _ int) (pipeline.FrameSink, error) {
	return nil, ErrVisionUnavailable
}
