package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"speedguard/internal/logger"
	"speedguard/internal/services/pipeline"
	"speedguard/internal/services/storage"
)

func JobStatusHandler(jobs JobQueue, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := jobs.Job(mux.Vars(r)["id"])
		if errors.Is(err, pipeline.ErrJobNotFound) {
			writeError(w, logger, http.StatusNotFound, "Job not found")
			return
		}
		if err != nil {
			writeError(w, logger, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, logger, http.StatusOK, job)
	}
}

// ResultVideoHandler serves an annotated video from the result directory.
func ResultVideoHandler(files *storage.FileService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := files.ResultPath(mux.Vars(r)["filename"])
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid file name")
			return
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			writeError(w, logger, http.StatusNotFound, "Result not found")
			return
		}
		http.ServeFile(w, r, path)
	}
}
