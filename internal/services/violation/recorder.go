package violation

import (
	"context"
	"time"

	"speedguard/internal/logger"
	"speedguard/internal/model"
)

// Claimer marks a track as logged exactly once.
type Claimer interface {
	ClaimLog(trackID int) bool
}

// Saver persists violation records.
type Saver interface {
	Insert(ctx context.Context, rec *model.ViolationRecord) (int64, error)
}

// Notifier delivers an alert about a violating vehicle.
type Notifier interface {
	Notify(ctx context.Context, alert model.Alert) error
}

// Publisher forwards persisted records to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, rec model.ViolationRecord) error
}

// Candidate is what the frame loop knows about a detection when it asks the
// recorder to log it.
type Candidate struct {
	TrackID   int
	ClassName string
	Speed     float64
	HasSpeed  bool
	Logged    bool
	Plate     string
	Status    model.Status
}

// Eligible reports whether the candidate passes the logging gate: not yet
// logged, a plate was read and a speed has been committed.
func (c Candidate) Eligible() bool {
	return !c.Logged && c.Plate != "" && c.HasSpeed
}

// Recorder logs each track once and alerts on its first logged violation.
// Every failure is logged and swallowed; nothing is retried.
type Recorder struct {
	claims    Claimer
	saver     Saver
	notifier  Notifier
	publisher Publisher

	dbTimeout     time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	logger        *logger.Logger
}

// RecorderOption customizes a Recorder.
type RecorderOption func(*Recorder)

// WithNotifier sets where alerts go. Without one no alerts are sent.
func WithNotifier(n Notifier) RecorderOption {
	return func(r *Recorder) { r.notifier = n }
}

// WithPublisher sets where persisted records are published.
func WithPublisher(p Publisher) RecorderOption {
	return func(r *Recorder) { r.publisher = p }
}

// WithTimeouts bounds database and notification calls.
func WithTimeouts(db, notify time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.dbTimeout = db
		r.notifyTimeout = notify
	}
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(claims Claimer, saver Saver, logger *logger.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		claims: claims,
		saver:  saver,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record logs c if it passes the gate and its track has not been claimed yet.
// It reports whether this call claimed the track. The track stays claimed
// even when persisting fails.
func (r *Recorder) Record(ctx context.Context, c Candidate) bool {
	if !c.Eligible() {
		return false
	}
	if !r.claims.ClaimLog(c.TrackID) {
		return false
	}

	now := r.now()
	rec := model.NewViolationRecord(now, c.TrackID, c.ClassName, c.Speed, c.Plate, c.Status)

	saved := r.save(ctx, &rec)

	if c.Status.IsViolation() {
		r.notify(ctx, model.Alert{Numberplate: c.Plate, Speed: c.Speed, Status: c.Status, Time: now})
	}

	if saved {
		r.publish(ctx, rec)
	}

	return true
}

func (r *Recorder) save(ctx context.Context, rec *model.ViolationRecord) bool {
	if r.saver == nil {
		r.logger.Warning("⚠️  Database not available, skipping save of track %d", rec.TrackID)
		return false
	}

	ctx, cancel := withTimeout(ctx, r.dbTimeout)
	defer cancel()

	id, err := r.saver.Insert(ctx, rec)
	if err != nil {
		r.logger.Error("Error saving track %d (%s) to database: %v", rec.TrackID, rec.Numberplate, err)
		return false
	}
	rec.ID = id
	r.logger.Info("💾 Logged track %d: %s %.2f km/h %s", rec.TrackID, rec.Numberplate, rec.Speed, rec.Status)
	return true
}

func (r *Recorder) notify(ctx context.Context, alert model.Alert) {
	if r.notifier == nil {
		return
	}

	ctx, cancel := withTimeout(ctx, r.notifyTimeout)
	defer cancel()

	if err := r.notifier.Notify(ctx, alert); err != nil {
		r.logger.Error("Failed to send alert for %s: %v", alert.Numberplate, err)
		return
	}
	r.logger.Info("📧 Alert sent for %s vehicle: %s", alert.Status, alert.Numberplate)
}

func (r *Recorder) publish(ctx context.Context, rec model.ViolationRecord) {
	if r.publisher == nil {
		return
	}

	ctx, cancel := withTimeout(ctx, r.notifyTimeout)
	defer cancel()

	if err := r.publisher.Publish(ctx, rec); err != nil {
		r.logger.Error("Failed to publish record of track %d: %v", rec.TrackID, err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
