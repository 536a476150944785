package server

import (
	"errors"
	"net/http"

	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"github.com/Lllllllleong/financialstatementflow/internal/render"
	"github.com/Lllllllleong/financialstatementflow/internal/services"
	"github.com/Lllllllleong/financialstatementflow/internal/store"
	"github.com/gin-gonic/gin"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalidFile      = "invalid_file"
	CodeMissingFile      = "missing_file"
	CodeRenderFailed     = "render_failed"
	CodeNotFound         = "not_found"
	CodeStoreUnavailable = "store_unavailable"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal"
)

// MsgNotPDF is returned for any upload without a .pdf extension.
const MsgNotPDF = "File must be a PDF"

// abortWithError maps a pipeline or store error onto the error envelope.
func abortWithError(c *gin.Context, err error) {
	status, resp := classify(err)
	resp.RequestID = GetRequestID(c)
	c.AbortWithStatusJSON(status, resp)
}

func classify(err error) (int, models.ErrorResponse) {
	var (
		renderErr  *render.RenderError
		stageErr   *services.StageError
		persistErr *store.PersistenceError
	)
	switch {
	case errors.As(err, &renderErr):
		return http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: err.Error(),
			Code:  CodeRenderFailed,
			Stage: services.StageRender,
		}
	case errors.As(err, &stageErr):
		return http.StatusBadGateway, models.ErrorResponse{
			Error: err.Error(),
			Code:  stageErr.Stage + "_failed",
			Stage: stageErr.Stage,
		}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, models.ErrorResponse{Error: "Not found", Code: CodeNotFound}
	case errors.As(err, &persistErr):
		return http.StatusServiceUnavailable, models.ErrorResponse{
			Error: err.Error(),
			Code:  CodeStoreUnavailable,
			Stage: services.StagePersist,
		}
	default:
		return http.StatusInternalServerError, models.ErrorResponse{Error: err.Error(), Code: CodeInternal}
	}
}

func abortBadRequest(c *gin.Context, code, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: GetRequestID(c),
	})
}
