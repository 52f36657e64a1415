package violation

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"speedguard/internal/logger"
	"speedguard/internal/model"
	"speedguard/internal/repository"
)

type fakeThreshold struct {
	value float64
	err   error
	calls int
}

func (f *fakeThreshold) GetThreshold(context.Context) (float64, error) {
	f.calls++
	return f.value, f.err
}

type fakeBlacklist struct {
	plates map[string]bool
	err    error
	calls  int
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, plate string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.plates[plate], nil
}

func quietLogger() *logger.Logger {
	return logger.NewWriter(io.Discard)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name        string
		plate       string
		speed       float64
		blacklisted bool
		want        Verdict
	}{
		{
			name: "no violation", plate: "AB12", speed: 40,
			want: Verdict{Status: model.StatusNone, Color: ColorNone, Label: "AB12 | 40.00 km/h"},
		},
		{
			name: "equal to threshold is not speeding", plate: "AB12", speed: 50,
			want: Verdict{Status: model.StatusNone, Color: ColorNone, Label: "AB12 | 50.00 km/h"},
		},
		{
			name: "over speed", plate: "AB12", speed: 61.5,
			want: Verdict{Status: model.StatusOverSpeed, Color: ColorOverSpeed, Label: "AB12 | OVER SPEED | 61.50 km/h"},
		},
		{
			name: "blacklist wins over speed", plate: "AB12", speed: 120, blacklisted: true,
			want: Verdict{Status: model.StatusBlacklisted, Color: ColorBlacklisted, Label: "AB12 | BLACKLISTED | 120.00 km/h"},
		},
		{
			name: "empty plate is never blacklisted", plate: "", speed: 10, blacklisted: true,
			want: Verdict{Status: model.StatusNone, Color: ColorNone, Label: " | 10.00 km/h"},
		},
		{
			name: "empty plate can still speed", plate: "", speed: 70,
			want: Verdict{Status: model.StatusOverSpeed, Color: ColorOverSpeed, Label: " | OVER SPEED | 70.00 km/h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.plate, tt.speed, 50, tt.blacklisted))
		})
	}
}

func TestClassifier_ThresholdFallback(t *testing.T) {
	ctx := context.Background()

	c := NewClassifier(&fakeThreshold{value: 30}, nil, 50, 0, quietLogger())
	assert.Equal(t, 30.0, c.Threshold(ctx))

	c = NewClassifier(&fakeThreshold{err: errors.New("db down")}, nil, 50, 0, quietLogger())
	assert.Equal(t, 50.0, c.Threshold(ctx))

	c = NewClassifier(&fakeThreshold{err: repository.ErrNotFound}, nil, 50, 0, quietLogger())
	assert.Equal(t, 50.0, c.Threshold(ctx))

	c = NewClassifier(nil, nil, 50, 0, quietLogger())
	assert.Equal(t, 50.0, c.Threshold(ctx))
}

func TestClassifier_BlacklistErrorCountsAsFalse(t *testing.T) {
	bl := &fakeBlacklist{err: errors.New("timeout")}
	c := NewClassifier(nil, bl, 50, 0, quietLogger())

	v := c.Classify(context.Background(), "AB12", 10, 50)
	assert.Equal(t, model.StatusNone, v.Status)
	assert.Equal(t, 1, bl.calls)
}

func TestClassifier_EmptyPlateSkipsLookup(t *testing.T) {
	bl := &fakeBlacklist{plates: map[string]bool{"": true}}
	c := NewClassifier(nil, bl, 50, 0, quietLogger())

	assert.False(t, c.IsBlacklisted(context.Background(), ""))
	assert.Zero(t, bl.calls)
}

func TestClassifier_Idempotent(t *testing.T) {
	bl := &fakeBlacklist{plates: map[string]bool{"XY99": true}}
	c := NewClassifier(nil, bl, 50, 0, quietLogger())
	ctx := context.Background()

	first := c.Classify(ctx, "XY99", 80, 50)
	second := c.Classify(ctx, "XY99", 80, 50)
	assert.Equal(t, first, second)
	assert.Equal(t, model.StatusBlacklisted, first.Status)
}

func TestFrameClassifier_ReadsThresholdOnceAndMemoizes(t *testing.T) {
	th := &fakeThreshold{value: 30}
	bl := &fakeBlacklist{plates: map[string]bool{"BAD1": true}}
	c := NewClassifier(th, bl, 50, 0, quietLogger())
	ctx := context.Background()

	fc := c.ForFrame(ctx)
	assert.Equal(t, 30.0, fc.Threshold())

	assert.Equal(t, model.StatusOverSpeed, fc.Classify(ctx, "OK1", 40).Status)
	assert.Equal(t, model.StatusBlacklisted, fc.Classify(ctx, "BAD1", 10).Status)
	assert.Equal(t, model.StatusBlacklisted, fc.Classify(ctx, "BAD1", 10).Status)
	assert.Equal(t, model.StatusNone, fc.Classify(ctx, "OK1", 20).Status)

	assert.Equal(t, 1, th.calls)
	assert.Equal(t, 2, bl.calls)
}

func TestFrameClassifier_ThresholdChangeAppliesToNextFrame(t *testing.T) {
	th := &fakeThreshold{value: 50}
	c := NewClassifier(th, nil, 50, 0, quietLogger())
	ctx := context.Background()

	before := c.ForFrame(ctx)
	th.value = 30
	assert.Equal(t, model.StatusNone, before.Classify(ctx, "AB", 40).Status)

	after := c.ForFrame(ctx)
	assert.Equal(t, model.StatusOverSpeed, after.Classify(ctx, "AB", 40).Status)
}
