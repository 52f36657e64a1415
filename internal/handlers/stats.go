package handlers

import (
	"net/http"
	"strconv"

	"speedguard/internal/logger"
	"speedguard/internal/repository"
)

const (
	defaultViolationLimit = 50
	maxViolationLimit     = 500
)

func GetStatsHandler(violations repository.ViolationRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := violations.GetStats(r.Context())
		if err != nil {
			logger.Error("Failed to compute stats: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Database operation failed")
			return
		}
		writeJSON(w, logger, http.StatusOK, stats)
	}
}

func GetViolationsHandler(violations repository.ViolationRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || err != nil {
			limit = defaultViolationLimit
		}
		if limit > maxViolationLimit {
			limit = maxViolationLimit
		}

		records, err := violations.GetLatest(r.Context(), limit)
		if err != nil {
			logger.Error("Failed to list violations: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Database operation failed")
			return
		}
		writeJSON(w, logger, http.StatusOK, records)
	}
}

func HealthHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
