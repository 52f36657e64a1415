//go:build gocv

package vision

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"gocv.io/x/gocv"

	"speedguard/internal/model"
	"speedguard/internal/services/pipeline"
)

const (
	outputCodec = "mp4v"
	fontScale   = 0.6
	lineWidth   = 2
)

// VideoIO decodes and encodes video files with OpenCV.
type VideoIO struct{}

func NewVideoIO() *VideoIO {
	return &VideoIO{}
}

func (v *VideoIO) OpenSource(path string) (pipeline.FrameSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture is not opened: %s", path)
	}
	return &source{capture: capture}, nil
}

func (v *VideoIO) CreateSink(path string, fps float64, width, height int) (pipeline.FrameSink, error) {
	writer, err := gocv.VideoWriterFile(path, outputCodec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open video writer: %w", err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer is not opened: %s", path)
	}
	return &sink{writer: writer}, nil
}

type source struct {
	capture *gocv.VideoCapture
}

func (s *source) Next() (pipeline.Frame, error) {
	mat := gocv.NewMat()
	for {
		if ok := s.capture.Read(&mat); !ok {
			mat.Close()
			return nil, io.EOF
		}
		// Puste klatki zdarzają się na początku niektórych plików
		if !mat.Empty() {
			return &frame{mat: mat}, nil
		}
	}
}

func (s *source) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

func (s *source) Size() (int, int) {
	return int(s.capture.Get(gocv.VideoCaptureFrameWidth)), int(s.capture.Get(gocv.VideoCaptureFrameHeight))
}

func (s *source) Close() error {
	return s.capture.Close()
}

type sink struct {
	writer *gocv.VideoWriter
}

func (s *sink) Write(f pipeline.Frame) error {
	fr, ok := f.(*frame)
	if !ok {
		return fmt.Errorf("unsupported frame type %T", f)
	}
	return s.writer.Write(fr.mat)
}

func (s *sink) Close() error {
	return s.writer.Close()
}

type frame struct {
	mat gocv.Mat
}

func (f *frame) Image() (image.Image, error) {
	return f.mat.ToImage()
}

// BoxLabel rysuje ramkę i etykietę nad nią
func (f *frame) BoxLabel(box model.Box, label string, c color.RGBA) error {
	rect := box.Rect()
	if err := gocv.Rectangle(&f.mat, rect, c, lineWidth); err != nil {
		return fmt.Errorf("failed to draw rectangle: %v", err)
	}

	size := gocv.GetTextSize(label, gocv.FontHersheySimplex, fontScale, lineWidth)
	y := rect.Min.Y - 5
	if y < size.Y {
		y = rect.Max.Y + size.Y + 5
	}
	if err := gocv.PutText(&f.mat, label, image.Pt(rect.Min.X, y), gocv.FontHersheySimplex, fontScale, c, lineWidth); err != nil {
		return fmt.Errorf("failed to draw text: %v", err)
	}
	return nil
}

func (f *frame) Close() error {
	return f.mat.Close()
}
