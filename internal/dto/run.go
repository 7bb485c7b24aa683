package dto

import (
	"time"

	"github.com/noah-isme/term-timeline/internal/models"
)

// RunListResponse wraps GET /runs.
type RunListResponse struct {
	Runs []models.RunSummary `json:"runs"`
}

// DownloadLinkQuery captures GET /runs/:id/download parameters.
type DownloadLinkQuery struct {
	Artifact string `form:"artifact" validate:"omitempty,oneof=output summary"`
}

// DownloadLinkResponse is a signed artifact link.
type DownloadLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
