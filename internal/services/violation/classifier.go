package violation

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"speedguard/internal/logger"
	"speedguard/internal/model"
	"speedguard/internal/repository"
)

// Display colors of the three verdicts.
var (
	ColorNone        = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	ColorBlacklisted = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	ColorOverSpeed   = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// ThresholdSource provides the current speed limit in km/h.
type ThresholdSource interface {
	GetThreshold(ctx context.Context) (float64, error)
}

// BlacklistChecker answers blacklist membership for a normalized plate.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, numberplate string) (bool, error)
}

// Verdict is the classification of a single detection.
type Verdict struct {
	Status model.Status
	Color  color.RGBA
	Label  string
}

// Decide applies the classification rules: a blacklisted plate wins over
// speeding, and speeding means strictly above the threshold.
func Decide(plate string, speed, threshold float64, blacklisted bool) Verdict {
	switch {
	case plate != "" && blacklisted:
		return Verdict{Status: model.StatusBlacklisted, Color: ColorBlacklisted, Label: Label(plate, model.StatusBlacklisted, speed)}
	case speed > threshold:
		return Verdict{Status: model.StatusOverSpeed, Color: ColorOverSpeed, Label: Label(plate, model.StatusOverSpeed, speed)}
	default:
		return Verdict{Status: model.StatusNone, Color: ColorNone, Label: Label(plate, model.StatusNone, speed)}
	}
}

// Label renders "{plate} | {status} | {speed} km/h", leaving the status
// segment out when there is no violation.
func Label(plate string, status model.Status, speed float64) string {
	if status == model.StatusNone {
		return fmt.Sprintf("%s | %.2f km/h", plate, speed)
	}
	return fmt.Sprintf("%s | %s | %.2f km/h", plate, status, speed)
}

// Classifier looks up the threshold and blacklist and turns them into verdicts.
// Lookup failures never surface: the threshold falls back to its default and
// an unreadable blacklist counts as "not blacklisted".
type Classifier struct {
	thresholds       ThresholdSource
	blacklist        BlacklistChecker
	defaultThreshold float64
	timeout          time.Duration
	logger           *logger.Logger
}

func NewClassifier(thresholds ThresholdSource, blacklist BlacklistChecker, defaultThreshold float64, timeout time.Duration, logger *logger.Logger) *Classifier {
	return &Classifier{
		thresholds:       thresholds,
		blacklist:        blacklist,
		defaultThreshold: defaultThreshold,
		timeout:          timeout,
		logger:           logger,
	}
}

// Threshold reads the current limit, falling back to the default.
func (c *Classifier) Threshold(ctx context.Context) float64 {
	if c.thresholds == nil {
		return c.defaultThreshold
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	v, err := c.thresholds.GetThreshold(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			c.logger.Warning("⚠️  Threshold fetch failed, using %.2f km/h: %v", c.defaultThreshold, err)
		}
		return c.defaultThreshold
	}
	return v
}

// IsBlacklisted reports membership, treating errors and empty plates as false.
func (c *Classifier) IsBlacklisted(ctx context.Context, plate string) bool {
	if plate == "" || c.blacklist == nil {
		return false
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	ok, err := c.blacklist.IsBlacklisted(ctx, plate)
	if err != nil {
		c.logger.Error("Blacklist check error for %s: %v", plate, err)
		return false
	}
	return ok
}

// Classify looks up plate and classifies it against threshold.
func (c *Classifier) Classify(ctx context.Context, plate string, speed, threshold float64) Verdict {
	return Decide(plate, speed, threshold, c.IsBlacklisted(ctx, plate))
}

// ForFrame snapshots the threshold and memoizes blacklist answers for the
// duration of one frame. The result is not safe for concurrent use.
func (c *Classifier) ForFrame(ctx context.Context) *FrameClassifier {
	return &FrameClassifier{
		classifier: c,
		threshold:  c.Threshold(ctx),
		seen:       make(map[string]bool),
	}
}

// FrameClassifier classifies the detections of a single frame.
type FrameClassifier struct {
	classifier *Classifier
	threshold  float64
	seen       map[string]bool
}

// Threshold returns the limit in effect for this frame.
func (f *FrameClassifier) Threshold() float64 {
	return f.threshold
}

func (f *FrameClassifier) Classify(ctx context.Context, plate string, speed float64) Verdict {
	blacklisted, ok := f.seen[plate]
	if !ok {
		blacklisted = f.classifier.IsBlacklisted(ctx, plate)
		f.seen[plate] = blacklisted
	}
	return Decide(plate, speed, f.threshold, blacklisted)
}
