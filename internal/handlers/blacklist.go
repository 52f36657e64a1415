package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"speedguard/internal/dto"
	"speedguard/internal/logger"
	"speedguard/internal/repository"
)

func GetBlacklistHandler(blacklist repository.BlacklistRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := blacklist.GetAll(r.Context())
		if err != nil {
			logger.Error("Failed to list blacklist: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Database operation failed")
			return
		}
		writeJSON(w, logger, http.StatusOK, entries)
	}
}

// ManageBlacklistHandler adds or removes a plate depending on the request action.
func ManageBlacklistHandler(blacklist repository.BlacklistRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.BlacklistRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid request format")
			return
		}

		plate := req.Plate()
		if req.Action != "add" && req.Action != "remove" {
			writeError(w, logger, http.StatusBadRequest, "Invalid action")
			return
		}
		if plate == "" {
			writeError(w, logger, http.StatusBadRequest, "Number plate is required")
			return
		}

		if req.Action == "add" {
			if err := blacklist.Add(r.Context(), plate, req.ReasonOrDefault()); err != nil {
				logger.Error("Failed to blacklist %s: %v", plate, err)
				writeError(w, logger, http.StatusInternalServerError, "Database operation failed")
				return
			}
			logger.Info("🚫 %s added to blacklist", plate)
			writeJSON(w, logger, http.StatusOK, dto.MessageResponse{Message: fmt.Sprintf("%s added to blacklist", plate)})
			return
		}

		err := blacklist.Remove(r.Context(), plate)
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, logger, http.StatusNotFound, fmt.Sprintf("%s is not blacklisted", plate))
			return
		}
		if err != nil {
			logger.Error("Failed to remove %s from blacklist: %v", plate, err)
			writeError(w, logger, http.StatusInternalServerError, "Database operation failed")
			return
		}
		logger.Info("%s removed from blacklist", plate)
		writeJSON(w, logger, http.StatusOK, dto.MessageResponse{Message: fmt.Sprintf("%s removed from blacklist", plate)})
	}
}
