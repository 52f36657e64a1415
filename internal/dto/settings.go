package dto

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ThresholdRequest is the body of POST /threshold. The value may be sent as
// a JSON number or as a numeric string.
type ThresholdRequest struct {
	Threshold json.RawMessage `json:"threshold"`
}

var (
	ErrMissingThreshold = errors.New("threshold is required")
	ErrInvalidThreshold = errors.New("invalid threshold value")
)

func (r ThresholdRequest) Value() (float64, error) {
	raw := strings.TrimSpace(string(r.Threshold))
	if raw == "" || raw == "null" {
		return 0, ErrMissingThreshold
	}

	var v float64
	if err := json.Unmarshal(r.Threshold, &v); err != nil {
		var s string
		if err := json.Unmarshal(r.Threshold, &s); err != nil {
			return 0, ErrInvalidThreshold
		}
		if v, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, ErrInvalidThreshold
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidThreshold
	}
	return v, nil
}

type ThresholdResponse struct {
	Threshold float64 `json:"threshold"`
}

// EmailConfigRequest is the body of POST /email-config. All fields are required.
type EmailConfigRequest struct {
	SenderEmail    string `json:"sender_email"`
	SenderPassword string `json:"sender_password"`
	ReceiverEmail  string `json:"receiver_email"`
}

func (r EmailConfigRequest) Complete() bool {
	return strings.TrimSpace(r.SenderEmail) != "" &&
		r.SenderPassword != "" &&
		strings.TrimSpace(r.ReceiverEmail) != ""
}
