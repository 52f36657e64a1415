package model

import "time"

// Status is the violation classification of a detection.
type Status string

const (
	StatusNone        Status = ""
	StatusOverSpeed   Status = "OVER SPEED"
	StatusBlacklisted Status = "BLACKLISTED"
)

// IsViolation reports whether the status should trigger an alert.
func (s Status) IsViolation() bool {
	return s == StatusOverSpeed || s == StatusBlacklisted
}

// ViolationRecord is a row of the my_data table.
type ViolationRecord struct {
	ID          int64   `json:"id,omitempty"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	TrackID     int     `json:"track_id"`
	ClassName   string  `json:"class_name"`
	Speed       float64 `json:"speed"`
	Numberplate string  `json:"numberplate"`
	Status      Status  `json:"status"`
}

// NewViolationRecord stamps a record with the date and time of t.
func NewViolationRecord(t time.Time, trackID int, className string, speed float64, plate string, status Status) ViolationRecord {
	return ViolationRecord{
		Date:        t.Format("2006-01-02"),
		Time:        t.Format("15:04:05"),
		TrackID:     trackID,
		ClassName:   className,
		Speed:       speed,
		Numberplate: plate,
		Status:      status,
	}
}

// FrameResult is the per-detection output of a processed frame.
type FrameResult struct {
	TrackID     int     `json:"track_id"`
	ClassName   string  `json:"class_name"`
	Speed       float64 `json:"speed"`
	Numberplate string  `json:"numberplate"`
	Status      Status  `json:"status"`
}

// Alert is the payload handed to notifiers for a violating track.
type Alert struct {
	Numberplate string
	Speed       float64
	Status      Status
	Time        time.Time
}
