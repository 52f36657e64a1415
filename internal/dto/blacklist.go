package dto

import "strings"

const defaultBlacklistReason = "Added via API"

// BlacklistRequest is the body of POST /blacklist.
type BlacklistRequest struct {
	Action      string `json:"action"`
	Numberplate string `json:"numberplate"`
	Reason      string `json:"reason,omitempty"`
}

// Plate returns the plate with all whitespace removed, the form stored in the database.
func (r BlacklistRequest) Plate() string {
	return strings.Join(strings.Fields(r.Numberplate), "")
}

func (r BlacklistRequest) ReasonOrDefault() string {
	if reason := strings.TrimSpace(r.Reason); reason != "" {
		return reason
	}
	return defaultBlacklistReason
}
