package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/term-timeline/internal/dto"
	"github.com/noah-isme/term-timeline/internal/models"
	"github.com/noah-isme/term-timeline/internal/service"
	appErrors "github.com/noah-isme/term-timeline/pkg/errors"
	"github.com/noah-isme/term-timeline/pkg/response"
)

type runService interface {
	Trigger(ctx context.Context, requestedBy string) (*models.RunSummary, error)
	Get(ctx context.Context, id string) (*models.RunSummary, error)
	List(ctx context.Context) ([]models.RunSummary, error)
	DownloadURL(ctx context.Context, id, artifact string) (string, time.Time, error)
	ResolveDownload(ctx context.Context, token string) (*service.RunDownload, error)
}

// RunHandler exposes timeline run endpoints.
type RunHandler struct {
	runs      runService
	validator *validator.Validate
}

// NewRunHandler constructs the handler.
func NewRunHandler(runs runService) *RunHandler {
	return &RunHandler{runs: runs, validator: validator.New()}
}

// Trigger godoc
// @Summary Queue a timeline run
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /runs [post]
func (h *RunHandler) Trigger(c *gin.Context) {
	run, err := h.runs.Trigger(c.Request.Context(), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}

// List godoc
// @Summary List recent timeline runs
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /runs [get]
func (h *RunHandler) List(c *gin.Context) {
	runs, err := h.runs.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.RunListResponse{Runs: runs}, map[string]interface{}{"count": len(runs)})
}

// Get godoc
// @Summary Timeline run status and statistics
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /runs/{id} [get]
func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, run)
}

// DownloadLink godoc
// @Summary Signed link to a run artifact
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param artifact query string false "output or summary"
// @Success 200 {object} response.Envelope
// @Router /runs/{id}/download [get]
func (h *RunHandler) DownloadLink(c *gin.Context) {
	var query dto.DownloadLinkQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "artifact must be output or summary"))
		return
	}
	url, expiresAt, err := h.runs.DownloadURL(c.Request.Context(), c.Param("id"), query.Artifact)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.DownloadLinkResponse{URL: url, ExpiresAt: expiresAt})
}

// Download godoc
// @Summary Download a run artifact via signed token
// @Tags Runs
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /downloads/{token} [get]
func (h *RunHandler) Download(c *gin.Context) {
	token := c.Param("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.runs.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat run artifact"))
		return
	}
	contentType := "text/csv"
	if strings.HasSuffix(result.Filename, ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, result.File, nil)
}
