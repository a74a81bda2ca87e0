package server

import "SignalScanner/internal/model"

// ScanResponse is the body of POST /api/scan.
type ScanResponse struct {
	Status      string        `json:"status"`
	Data        *model.Report `json:"data,omitempty"`
	Error       string        `json:"error,omitempty"`
	NotifyError string        `json:"notify_error,omitempty"`
}

// NotifyResponse is the body of POST /api/notify.
type NotifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
