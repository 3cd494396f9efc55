package models

// StatusResponse is the body returned by operations that have nothing else to report.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
