package models

import "time"

// ExportFormat selects the rendering of an agenda export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks the lifecycle of an async export job.
type ExportStatus string

const (
	ExportStatusQueued ExportStatus = "queued"
	ExportStatusDone   ExportStatus = "done"
	ExportStatusFailed ExportStatus = "failed"
)

// ExportJob describes one agenda export request and its artifact.
type ExportJob struct {
	ID        string       `json:"id"`
	VetID     int64        `json:"vet_id"`
	Date      string       `json:"date"`
	Format    ExportFormat `json:"format"`
	Status    ExportStatus `json:"status"`
	FilePath  string       `json:"-"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
