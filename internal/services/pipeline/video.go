package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/sync/errgroup"

	"speedguard/internal/logger"
	"speedguard/internal/model"
)

// DefaultFPS is used when a source does not report its frame rate.
const DefaultFPS = 30.0

// Frame is one decoded video frame that can be read as an image and drawn on.
type Frame interface {
	Annotator
	Image() (image.Image, error)
	Close() error
}

// FrameSource yields frames until io.EOF.
type FrameSource interface {
	Next() (Frame, error)
	FPS() float64
	Size() (width, height int)
	Close() error
}

// FrameSink encodes annotated frames.
type FrameSink interface {
	Write(f Frame) error
	Close() error
}

// VideoIO opens sources and sinks for file paths.
type VideoIO interface {
	OpenSource(path string) (FrameSource, error)
	CreateSink(path string, fps float64, width, height int) (FrameSink, error)
}

// Tracker provides per-frame tracked detections and track-end signals.
type Tracker interface {
	Detections(frame int) []model.Detection
	Ended(frame int) []int
}

// Broadcaster receives a JSON message per processed frame.
type Broadcaster interface {
	Broadcast(message []byte)
}

// FrameUpdate is the live-feed message of one processed frame.
type FrameUpdate struct {
	JobID   string              `json:"job_id"`
	Frame   int                 `json:"frame"`
	Results []model.FrameResult `json:"results"`
}

type emptyTracker struct{}

func (emptyTracker) Detections(int) []model.Detection { return nil }
func (emptyTracker) Ended(int) []int                  { return nil }

// VideoRunner processes a whole video file: decode, track, decide, annotate,
// encode. A reader goroutine decodes ahead into a bounded channel while the
// processing loop consumes frames in order.
type VideoRunner struct {
	video       VideoIO
	newDriver   func() *Driver
	loadTracks  func(path string) (Tracker, error)
	broadcaster Broadcaster
	bufferSize  int
	logger      *logger.Logger
}

func NewVideoRunner(video VideoIO, newDriver func() *Driver, loadTracks func(path string) (Tracker, error), broadcaster Broadcaster, logger *logger.Logger) *VideoRunner {
	return &VideoRunner{
		video:       video,
		newDriver:   newDriver,
		loadTracks:  loadTracks,
		broadcaster: broadcaster,
		bufferSize:  8,
		logger:      logger,
	}
}

// Run implements Runner.
func (r *VideoRunner) Run(ctx context.Context, job Job, progress func(frames int)) error {
	var tracker Tracker = emptyTracker{}
	if job.TracksPath != "" {
		t, err := r.loadTracks(job.TracksPath)
		if err != nil {
			return fmt.Errorf("failed to load tracker output: %w", err)
		}
		tracker = t
	} else {
		r.logger.Warning("⚠️  Job %s has no tracker output, video will only be re-encoded", job.ID)
	}

	src, err := r.video.OpenSource(job.InputPath)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer src.Close()

	fps := src.FPS()
	if fps <= 0 {
		fps = DefaultFPS
	}
	width, height := src.Size()

	sink, err := r.video.CreateSink(job.OutputPath, fps, width, height)
	if err != nil {
		return fmt.Errorf("failed to create output video: %w", err)
	}
	defer sink.Close()

	driver := r.newDriver()
	frames := make(chan Frame, r.bufferSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(frames)
		for {
			f, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read frame: %w", err)
			}
			select {
			case frames <- f:
			case <-gctx.Done():
				f.Close()
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		index := 0
		for f := range frames {
			err := r.processFrame(gctx, driver, tracker, sink, f, job.ID, index)
			f.Close()
			if err != nil {
				return err
			}
			index++
			if progress != nil {
				progress(index)
			}
		}
		return nil
	})

	err = g.Wait()
	// Frames decoded ahead of a failed processing step.
	for f := range frames {
		f.Close()
	}
	return err
}

// processFrame timestamps detections with the driver's clock at processing
// time, so speeds are measured between processing passes.
func (r *VideoRunner) processFrame(ctx context.Context, driver *Driver, tracker Tracker, sink FrameSink, f Frame, jobID string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	driver.EndTracks(tracker.Ended(index))

	img, err := f.Image()
	if err != nil {
		r.logger.Warning("⚠️  Frame %d of job %s could not be converted for OCR: %v", index, jobID, err)
		img = nil
	}

	results := driver.ProcessFrame(ctx, img, f, tracker.Detections(index))

	if err := sink.Write(f); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", index, err)
	}

	if r.broadcaster != nil && len(results) > 0 {
		msg, err := json.Marshal(FrameUpdate{JobID: jobID, Frame: index, Results: results})
		if err != nil {
			r.logger.Error("Failed to encode frame update: %v", err)
			return nil
		}
		r.broadcaster.Broadcast(msg)
	}
	return nil
}
