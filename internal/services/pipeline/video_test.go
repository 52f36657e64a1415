package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speedguard/internal/logger"
	"speedguard/internal/model"
)

type fakeFrame struct {
	index  int
	drawn  []string
	closed bool
}

func (f *fakeFrame) BoxLabel(_ model.Box, label string, _ color.RGBA) error {
	f.drawn = append(f.drawn, label)
	return nil
}

func (f *fakeFrame) Image() (image.Image, error) { return testImage, nil }

func (f *fakeFrame) Close() error {
	f.closed = true
	return nil
}

type fakeSource struct {
	frames []*fakeFrame
	next   int
	fps    float64
	err    error
	closed bool
}

func (s *fakeSource) Next() (Frame, error) {
	if s.next >= len(s.frames) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *fakeSource) FPS() float64     { return s.fps }
func (s *fakeSource) Size() (int, int) { return 640, 480 }

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeSink struct {
	written  []int
	failAt   int
	closed   bool
	openedAt float64
}

func (s *fakeSink) Write(f Frame) error {
	ff := f.(*fakeFrame)
	if s.failAt > 0 && ff.index == s.failAt {
		return errors.New("disk full")
	}
	s.written = append(s.written, ff.index)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

type fakeVideo struct {
	src      *fakeSource
	sink     *fakeSink
	sinkPath string
}

func (v *fakeVideo) OpenSource(string) (FrameSource, error) { return v.src, nil }

func (v *fakeVideo) CreateSink(path string, fps float64, _, _ int) (FrameSink, error) {
	v.sinkPath = path
	v.sink.openedAt = fps
	return v.sink, nil
}

type staticTracker map[int][]model.Detection

func (t staticTracker) Detections(frame int) []model.Detection { return t[frame] }
func (t staticTracker) Ended(int) []int                        { return nil }

type hub struct {
	mu       sync.Mutex
	messages [][]byte
}

func (h *hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func frames(n int) []*fakeFrame {
	out := make([]*fakeFrame, n)
	for i := range out {
		out[i] = &fakeFrame{index: i}
	}
	return out
}

func newTestRunner(t *testing.T, video *fakeVideo, tracker Tracker, h *hub) (*VideoRunner, *driverFixture) {
	fx := newDriverFixture(t, nil)
	var b Broadcaster
	if h != nil {
		b = h
	}
	r := NewVideoRunner(video, func() *Driver { return fx.driver }, func(string) (Tracker, error) { return tracker, nil }, b, logger.NewWriter(io.Discard))
	return r, fx
}

func TestVideoRunner_ProcessesEveryFrame(t *testing.T) {
	src := &fakeSource{frames: frames(4)}
	video := &fakeVideo{src: src, sink: &fakeSink{}}
	tracker := staticTracker{
		1: {{Box: box(0, 10), TrackID: 1}},
		2: {{Box: box(30, 10), TrackID: 1}},
	}
	h := &hub{}
	r, fx := newTestRunner(t, video, tracker, h)
	fx.plates.byHeight[10] = "AB12"

	var progress []int
	err := r.Run(context.Background(), Job{ID: "job-1", InputPath: "in.mp4", TracksPath: "in.csv", OutputPath: "results/job-1.mp4"}, func(n int) {
		progress = append(progress, n)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3}, video.sink.written)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)
	assert.Equal(t, DefaultFPS, video.sink.openedAt, "fps falls back when unknown")
	assert.Equal(t, "results/job-1.mp4", video.sinkPath)
	assert.True(t, src.closed)
	assert.True(t, video.sink.closed)

	for _, f := range src.frames {
		assert.True(t, f.closed)
	}
	assert.Equal(t, []string{"AB12 | 0.00 km/h"}, src.frames[1].drawn)
	assert.Len(t, src.frames[2].drawn, 1)
	assert.Empty(t, src.frames[0].drawn)

	require.Len(t, h.messages, 2, "only frames with detections are broadcast")
	var update FrameUpdate
	require.NoError(t, json.Unmarshal(h.messages[0], &update))
	assert.Equal(t, "job-1", update.JobID)
	assert.Equal(t, 1, update.Frame)
	require.Len(t, update.Results, 1)
	assert.Equal(t, "AB12", update.Results[0].Numberplate)
}

func TestVideoRunner_UsesSourceFPS(t *testing.T) {
	video := &fakeVideo{src: &fakeSource{frames: frames(1), fps: 25}, sink: &fakeSink{}}
	r, _ := newTestRunner(t, video, staticTracker{}, nil)

	require.NoError(t, r.Run(context.Background(), Job{ID: "j", TracksPath: "t.csv"}, nil))
	assert.Equal(t, 25.0, video.sink.openedAt)
}

func TestVideoRunner_NoTrackerOutput(t *testing.T) {
	video := &fakeVideo{src: &fakeSource{frames: frames(3)}, sink: &fakeSink{}}
	fx := newDriverFixture(t, nil)
	r := NewVideoRunner(video, func() *Driver { return fx.driver }, func(string) (Tracker, error) {
		t.Fatal("tracker must not be loaded without a path")
		return nil, nil
	}, nil, logger.NewWriter(io.Discard))

	require.NoError(t, r.Run(context.Background(), Job{ID: "j"}, nil))
	assert.Equal(t, []int{0, 1, 2}, video.sink.written)
}

func TestVideoRunner_Errors(t *testing.T) {
	video := &fakeVideo{src: &fakeSource{frames: frames(5)}, sink: &fakeSink{failAt: 2}}
	r, _ := newTestRunner(t, video, staticTracker{}, nil)

	err := r.Run(context.Background(), Job{ID: "j", TracksPath: "t.csv"}, nil)
	assert.ErrorContains(t, err, "disk full")
	for _, f := range video.src.frames[:video.src.next] {
		assert.True(t, f.closed, "frame %d closed", f.index)
	}

	video = &fakeVideo{src: &fakeSource{frames: frames(1), err: errors.New("corrupt stream")}, sink: &fakeSink{}}
	r, _ = newTestRunner(t, video, staticTracker{}, nil)
	assert.ErrorContains(t, r.Run(context.Background(), Job{ID: "j", TracksPath: "t.csv"}, nil), "corrupt stream")

	fx := newDriverFixture(t, nil)
	r = NewVideoRunner(&fakeVideo{src: &fakeSource{}, sink: &fakeSink{}}, func() *Driver { return fx.driver },
		func(string) (Tracker, error) { return nil, errors.New("bad csv") }, nil, logger.NewWriter(io.Discard))
	assert.ErrorContains(t, r.Run(context.Background(), Job{ID: "j", TracksPath: "t.csv"}, nil), "bad csv")
}

func TestVideoRunner_Cancelled(t *testing.T) {
	video := &fakeVideo{src: &fakeSource{frames: frames(50)}, sink: &fakeSink{}}
	r, _ := newTestRunner(t, video, staticTracker{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Run(ctx, Job{ID: "j", TracksPath: "t.csv"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
