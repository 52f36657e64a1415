package dto

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadResponse is returned once an uploaded video has been processed.
type UploadResponse struct {
	Message     string `json:"message"`
	ResultVideo string `json:"result_video"`
	JobID       string `json:"job_id"`
}
