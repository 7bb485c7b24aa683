package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/term-timeline/pkg/errors"
	"github.com/noah-isme/term-timeline/pkg/response"
)

type dictionaryCache interface {
	Invalidate(ctx context.Context) error
}

// DictionaryHandler manages the cached program dictionaries.
type DictionaryHandler struct {
	dictionaries dictionaryCache
}

// NewDictionaryHandler constructs the handler.
func NewDictionaryHandler(dictionaries dictionaryCache) *DictionaryHandler {
	return &DictionaryHandler{dictionaries: dictionaries}
}

// Invalidate godoc
// @Summary Drop cached program dictionaries
// @Tags Dictionaries
// @Security BearerAuth
// @Success 204
// @Router /dictionaries/cache [delete]
func (h *DictionaryHandler) Invalidate(c *gin.Context) {
	if err := h.dictionaries.Invalidate(c.Request.Context()); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate dictionary cache"))
		return
	}
	c.Status(http.StatusNoContent)
}
