package model

import (
	"image"
	"math"
)

// Box is an axis-aligned bounding box in pixel coordinates (x1,y1 top-left, x2,y2 bottom-right).
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the midpoint of the box.
func (b Box) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Distance returns the Euclidean distance between the centers of two boxes.
func (b Box) Distance(other Box) float64 {
	x1, y1 := b.Center()
	x2, y2 := other.Center()
	return math.Hypot(x2-x1, y2-y1)
}

// Rect truncates the box to integer pixels.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

// Valid reports whether the box has positive area.
func (b Box) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Detection is one tracked object in a frame, as produced by the external tracker.
type Detection struct {
	Box        Box `json:"box"`
	TrackID    int `json:"track_id"`
	ClassIndex int `json:"class"`
}
