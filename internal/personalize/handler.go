package personalize

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolpress-backend/internal/shared/server/middleware"
	"schoolpress-backend/internal/shared/server/respond"
	"schoolpress-backend/internal/shared/util"
	"schoolpress-backend/internal/worksheets"
)

// Handler serves personalized worksheet downloads.
type Handler struct {
	Svc        *Service
	Worksheets *worksheets.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, wsSvc *worksheets.Service) *Handler {
	return &Handler{Svc: svc, Worksheets: wsSvc}
}

// RegisterRoutes registers the personalized delivery route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/worksheets/:id/personalized", h.deliver)
}

func (h *Handler) deliver(c *gin.Context) {
	worksheetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || worksheetID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid worksheet id", nil)
		return
	}
	c.Set("worksheetId", worksheetID)

	disposition := c.DefaultQuery("disposition", "view")
	if disposition != "view" && disposition != "download" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "disposition must be view or download", nil)
		return
	}

	ws, err := h.Worksheets.Get(c.Request.Context(), worksheetID)
	if err != nil {
		switch {
		case errors.Is(err, worksheets.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "worksheet not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch worksheet", nil)
		}
		return
	}

	userID := middleware.UserIDFromContext(c)
	allowed, err := h.Worksheets.CanAccess(c.Request.Context(), userID, middleware.UserRoleFromContext(c), ws)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check access", nil)
		return
	}
	if !allowed {
		respond.Error(c, http.StatusForbidden, "forbidden", "worksheet access denied", nil)
		return
	}

	result, err := h.Svc.Deliver(c.Request.Context(), ws, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileMissing):
			respond.Error(c, http.StatusNotFound, "not_found", "worksheet file not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to deliver worksheet", nil)
		}
		return
	}

	fileName, sanitizeErr := util.SanitizeFileName(ws.Title)
	if sanitizeErr != nil || fileName == "" {
		fileName = fmt.Sprintf("worksheet-%d", ws.ID)
	}
	fileName += ".pdf"

	c.Set("personalized", result.Personalized)
	c.Header("X-Personalized", strconv.FormatBool(result.Personalized))
	if disposition == "download" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	} else {
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", fileName))
	}
	c.Data(http.StatusOK, "application/pdf", result.Data)
}
