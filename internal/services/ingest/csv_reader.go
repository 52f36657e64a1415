package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"speedguard/internal/logger"
	"speedguard/internal/model"
)

// Columns every tracker export must carry, in any order.
var requiredColumns = []string{"frame", "track_id", "class", "x1", "y1", "x2", "y2"}

// TrackFile holds tracker output indexed by frame number.
type TrackFile struct {
	frames   map[int][]model.Detection
	ended    map[int][]int // frame -> ids last seen in frame-1
	maxFrame int
	rows     int
	skipped  int
}

// LoadFile reads a tracker CSV from path.
func LoadFile(path string, logger *logger.Logger) (*TrackFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracker output: %w", err)
	}
	defer file.Close()

	return Load(file, logger)
}

// Load parses tracker output with header frame,track_id,class,x1,y1,x2,y2.
// Rows that fail to parse are skipped with a warning.
func Load(r io.Reader, logger *logger.Logger) (*TrackFile, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[col] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("missing column %q in tracker header %v", col, header)
		}
	}

	tf := &TrackFile{
		frames:   make(map[int][]model.Detection),
		ended:    make(map[int][]int),
		maxFrame: -1,
	}
	lastSeen := make(map[int]int)

	line := 1
	for {
		row, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warning("⚠️  Tracker row %d: %v", line, err)
			tf.skipped++
			continue
		}

		frame, det, err := parseRow(row, colMap)
		if err != nil {
			logger.Warning("⚠️  Tracker row %d skipped: %v", line, err)
			tf.skipped++
			continue
		}

		tf.frames[frame] = append(tf.frames[frame], det)
		tf.rows++
		if frame > tf.maxFrame {
			tf.maxFrame = frame
		}
		if prev, ok := lastSeen[det.TrackID]; !ok || frame > prev {
			lastSeen[det.TrackID] = frame
		}
	}

	for id, last := range lastSeen {
		tf.ended[last+1] = append(tf.ended[last+1], id)
	}
	for frame := range tf.ended {
		sort.Ints(tf.ended[frame])
	}

	logger.Info("📄 Loaded %d tracker rows over %d frames (%d skipped)", tf.rows, len(tf.frames), tf.skipped)
	return tf, nil
}

func parseRow(row []string, colMap map[string]int) (int, model.Detection, error) {
	get := func(col string) (string, error) {
		i := colMap[col]
		if i >= len(row) {
			return "", fmt.Errorf("missing %s", col)
		}
		return row[i], nil
	}

	ints := make(map[string]int, 3)
	for _, col := range []string{"frame", "track_id", "class"} {
		s, err := get(col)
		if err != nil {
			return 0, model.Detection{}, err
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, model.Detection{}, fmt.Errorf("invalid %s %q", col, s)
		}
		ints[col] = v
	}

	coords := make([]float64, 0, 4)
	for _, col := range []string{"x1", "y1", "x2", "y2"} {
		s, err := get(col)
		if err != nil {
			return 0, model.Detection{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, model.Detection{}, fmt.Errorf("invalid %s %q", col, s)
		}
		coords = append(coords, v)
	}

	if ints["frame"] < 0 {
		return 0, model.Detection{}, fmt.Errorf("negative frame %d", ints["frame"])
	}

	return ints["frame"], model.Detection{
		Box:        model.Box{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]},
		TrackID:    ints["track_id"],
		ClassIndex: ints["class"],
	}, nil
}

// Detections returns the tracked detections of frame, in file order.
func (tf *TrackFile) Detections(frame int) []model.Detection {
	return tf.frames[frame]
}

// Ended returns the ids whose last appearance was frame-1.
func (tf *TrackFile) Ended(frame int) []int {
	return tf.ended[frame]
}

// MaxFrame returns the highest frame number present, or -1 when empty.
func (tf *TrackFile) MaxFrame() int {
	return tf.maxFrame
}

// Rows returns the number of accepted and skipped rows.
func (tf *TrackFile) Rows() (accepted, skipped int) {
	return tf.rows, tf.skipped
}
