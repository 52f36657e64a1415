package pipeline

import (
	"context"
	"image"
	"image/color"
	"time"

	"golang.org/x/sync/errgroup"

	"speedguard/internal/logger"
	"speedguard/internal/model"
	"speedguard/internal/services/tracking"
	"speedguard/internal/services/violation"
)

// Annotator draws a labelled bounding box on the current frame.
type Annotator interface {
	BoxLabel(box model.Box, label string, c color.RGBA) error
}

// PlateReader extracts normalized plate text from a region of a frame.
type PlateReader interface {
	Resolve(ctx context.Context, frame image.Image, box model.Box) string
}

// Driver runs the per-frame decision pipeline for one video stream. It owns
// the stream's track memory, so one Driver must not be shared between streams.
type Driver struct {
	store      *tracking.Store
	estimator  *tracking.Estimator
	plates     PlateReader
	classifier *violation.Classifier
	recorder   *violation.Recorder
	className  func(index int) string
	ocrWorkers int
	now        func() time.Time
	logger     *logger.Logger
}

// DriverDeps are the collaborators shared by every Driver.
type DriverDeps struct {
	Plates     PlateReader
	Classifier *violation.Classifier
	Saver      violation.Saver
	Recorder   []violation.RecorderOption
	ClassName  func(index int) string
	OCRWorkers int
	// TrackCapacity bounds the track memory; 0 means unbounded.
	TrackCapacity int
	Logger        *logger.Logger
}

// NewDriver creates a Driver with its own track store.
func NewDriver(deps DriverDeps) *Driver {
	store := tracking.NewStore(deps.TrackCapacity)

	workers := deps.OCRWorkers
	if workers <= 0 {
		workers = 1
	}
	className := deps.ClassName
	if className == nil {
		className = func(int) string { return "" }
	}

	return &Driver{
		store:      store,
		estimator:  tracking.NewEstimator(),
		plates:     deps.Plates,
		classifier: deps.Classifier,
		recorder:   violation.NewRecorder(store, deps.Saver, deps.Logger, deps.Recorder...),
		className:  className,
		ocrWorkers: workers,
		now:        time.Now,
		logger:     deps.Logger,
	}
}

// Store exposes the driver's track memory.
func (d *Driver) Store() *tracking.Store {
	return d.store
}

// ProcessFrame runs ProcessFrameAt with the wall clock.
func (d *Driver) ProcessFrame(ctx context.Context, frame image.Image, annotator Annotator, detections []model.Detection) []model.FrameResult {
	return d.ProcessFrameAt(ctx, frame, d.now(), annotator, detections)
}

// ProcessFrameAt processes the tracked detections of one frame taken at ts
// and returns one result per detection, in input order.
//
// Track updates and speed estimation run sequentially, plate reading runs in
// parallel, then classification, annotation and recording run sequentially
// again so that each track id has a single writer.
func (d *Driver) ProcessFrameAt(ctx context.Context, frame image.Image, ts time.Time, annotator Annotator, detections []model.Detection) []model.FrameResult {
	results := make([]model.FrameResult, 0, len(detections))
	if len(detections) == 0 {
		return results
	}

	states := make([]tracking.TrackState, len(detections))
	for i, det := range detections {
		states[i] = d.store.Observe(det.TrackID, det.Box, ts, func(st *tracking.TrackState) {
			d.estimator.Estimate(st, det.Box, ts)
		})
	}

	plates := d.readPlates(ctx, frame, detections)

	fc := d.classifier.ForFrame(ctx)
	for i, det := range detections {
		st := states[i]
		plate := plates[i]
		className := d.className(det.ClassIndex)

		verdict := fc.Classify(ctx, plate, st.Speed)

		if annotator != nil {
			if err := annotator.BoxLabel(det.Box, verdict.Label, verdict.Color); err != nil {
				d.logger.Warning("⚠️  Failed to annotate track %d: %v", det.TrackID, err)
			}
		}

		d.recorder.Record(ctx, violation.Candidate{
			TrackID:   det.TrackID,
			ClassName: className,
			Speed:     st.Speed,
			HasSpeed:  st.HasSpeed,
			Logged:    st.Logged,
			Plate:     plate,
			Status:    verdict.Status,
		})

		results = append(results, model.FrameResult{
			TrackID:     det.TrackID,
			ClassName:   className,
			Speed:       st.Speed,
			Numberplate: plate,
			Status:      verdict.Status,
		})
	}

	return results
}

func (d *Driver) readPlates(ctx context.Context, frame image.Image, detections []model.Detection) []string {
	plates := make([]string, len(detections))
	if d.plates == nil || frame == nil {
		return plates
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.ocrWorkers)
	for i, det := range detections {
		g.Go(func() error {
			plates[i] = d.plates.Resolve(gctx, frame, det.Box)
			return nil
		})
	}
	_ = g.Wait() // workers never fail; an unreadable plate is ""

	return plates
}

// EndTracks forgets tracks the tracker reported as finished.
func (d *Driver) EndTracks(ids []int) {
	for _, id := range ids {
		d.store.End(id)
	}
}
