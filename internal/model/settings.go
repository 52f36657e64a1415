package model

import "time"

// BlacklistEntry represents a row of blacklisted_vehicles.
type BlacklistEntry struct {
	Numberplate string    `json:"numberplate"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmailConfig is the single active alert mailbox configuration.
type EmailConfig struct {
	SenderEmail    string    `json:"sender_email"`
	SenderPassword string    `json:"-"`
	ReceiverEmail  string    `json:"receiver_email"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TopViolator is a plate with its number of recorded violations.
type TopViolator struct {
	Numberplate    string `json:"numberplate"`
	ViolationCount int    `json:"violation_count"`
}

// Stats contains aggregated statistics over my_data.
type Stats struct {
	TotalVehicles int           `json:"total_vehicles"`
	AverageSpeed  float64       `json:"average_speed"`
	Overspeeding  int           `json:"overspeeding"`
	Blacklisted   int           `json:"blacklisted"`
	TopViolators  []TopViolator `json:"top_violators"`
}
