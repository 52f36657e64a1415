package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"speedguard/internal/dto"
	"speedguard/internal/logger"
	"speedguard/internal/model"
	"speedguard/internal/repository"
)

// ThresholdReader returns the effective threshold, default included.
type ThresholdReader interface {
	Threshold(ctx context.Context) float64
}

func GetThresholdHandler(thresholds ThresholdReader, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, dto.ThresholdResponse{Threshold: thresholds.Threshold(r.Context())})
	}
}

func SetThresholdHandler(settings repository.SettingsRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.ThresholdRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid request format")
			return
		}

		threshold, err := req.Value()
		if errors.Is(err, dto.ErrMissingThreshold) {
			writeError(w, logger, http.StatusBadRequest, "Invalid request format")
			return
		}
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid threshold value")
			return
		}

		if err := settings.SetThreshold(r.Context(), threshold); err != nil {
			logger.Error("Failed to update threshold: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Database operation failed")
			return
		}

		logger.Info("⚙️  Threshold updated to %v km/h", threshold)
		writeJSON(w, logger, http.StatusOK, dto.MessageResponse{
			Message: fmt.Sprintf("Threshold updated to %s km/h", strconv.FormatFloat(threshold, 'f', -1, 64)),
		})
	}
}

func SetEmailConfigHandler(emails repository.EmailConfigRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.EmailConfigRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid request format")
			return
		}
		if !req.Complete() {
			writeError(w, logger, http.StatusBadRequest, "All email fields are required")
			return
		}

		cfg := &model.EmailConfig{
			SenderEmail:    req.SenderEmail,
			SenderPassword: req.SenderPassword,
			ReceiverEmail:  req.ReceiverEmail,
		}
		if err := emails.Replace(r.Context(), cfg); err != nil {
			logger.Error("Failed to store email config: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Database operation failed")
			return
		}

		logger.Info("📧 Email configuration updated (receiver %s)", req.ReceiverEmail)
		writeJSON(w, logger, http.StatusOK, dto.MessageResponse{Message: "Email configuration updated successfully"})
	}
}

// GetEmailConfigHandler returns the active configuration without the password.
func GetEmailConfigHandler(emails repository.EmailConfigRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := emails.Get(r.Context())
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, logger, http.StatusNotFound, "Email configuration not set")
			return
		}
		if err != nil {
			logger.Error("Failed to read email config: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Database operation failed")
			return
		}
		writeJSON(w, logger, http.StatusOK, cfg)
	}
}
