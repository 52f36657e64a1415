package handlers

import (
	"context"
	"errors"
	"net/http"

	"speedguard/internal/config"
	"speedguard/internal/dto"
	"speedguard/internal/logger"
	"speedguard/internal/services/pipeline"
	"speedguard/internal/services/storage"
)

// JobQueue is the part of the job manager used by the HTTP layer.
type JobQueue interface {
	Submit(req pipeline.JobRequest) (pipeline.Job, error)
	Job(id string) (pipeline.Job, error)
	Wait(ctx context.Context, id string) (pipeline.Job, error)
}

// UploadHandler stores the uploaded video (and optional tracker CSV), queues a
// job and waits for it. With ?async=true it answers 202 right after queueing.
func UploadHandler(jobs JobQueue, files *storage.FileService, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, (cfg.MaxUploadMB+1)<<20)

		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, logger, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			writeError(w, logger, http.StatusBadRequest, "No file uploaded")
			return
		}
		defer file.Close()

		if header.Filename == "" {
			writeError(w, logger, http.StatusBadRequest, "No selected file")
			return
		}

		videoPath, err := files.SaveUpload(header.Filename, file)
		if err != nil {
			logger.Error("Upload error: %v", err)
			if errors.Is(err, storage.ErrTooLarge) {
				writeError(w, logger, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			writeError(w, logger, http.StatusInternalServerError, "Internal server error")
			return
		}

		var tracksPath string
		if tracks, tracksHeader, err := r.FormFile("detections"); err == nil {
			tracksPath, err = files.SaveUpload(tracksHeader.Filename, tracks)
			tracks.Close()
			if err != nil {
				files.Remove(videoPath)
				logger.Error("Upload error: %v", err)
				writeError(w, logger, http.StatusInternalServerError, "Internal server error")
				return
			}
		}

		job, err := jobs.Submit(pipeline.JobRequest{InputPath: videoPath, TracksPath: tracksPath})
		if err != nil {
			files.Remove(videoPath)
			files.Remove(tracksPath)
			if errors.Is(err, pipeline.ErrQueueFull) || errors.Is(err, pipeline.ErrStopped) {
				writeError(w, logger, http.StatusServiceUnavailable, "Processing queue is full, try again later")
				return
			}
			writeError(w, logger, http.StatusInternalServerError, "Internal server error")
			return
		}

		if r.URL.Query().Get("async") == "true" {
			go removeWhenDone(jobs, files, logger, job.ID, videoPath, tracksPath)
			writeJSON(w, logger, http.StatusAccepted, job)
			return
		}

		done, err := jobs.Wait(r.Context(), job.ID)
		if err != nil {
			// Klient się rozłączył, zadanie działa dalej
			logger.Warning("⚠️  Stopped waiting for job %s: %v", job.ID, err)
			go removeWhenDone(jobs, files, logger, job.ID, videoPath, tracksPath)
			return
		}
		files.Remove(videoPath)
		files.Remove(tracksPath)

		if done.State != pipeline.JobDone {
			writeError(w, logger, http.StatusInternalServerError, "Video processing failed")
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.UploadResponse{
			Message:     "Video processed successfully",
			ResultVideo: "/results/" + done.ResultFile,
			JobID:       done.ID,
		})
	}
}

// removeWhenDone deletes the job's uploads once nobody is waiting on the request.
func removeWhenDone(jobs JobQueue, files *storage.FileService, logger *logger.Logger, id string, paths ...string) {
	if _, err := jobs.Wait(context.Background(), id); err != nil {
		logger.Warning("⚠️  Uploads of job %s left for retention cleanup: %v", id, err)
		return
	}
	for _, path := range paths {
		files.Remove(path)
	}
}
