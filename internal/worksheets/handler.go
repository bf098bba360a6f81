package worksheets

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolpress-backend/internal/shared/server/middleware"
	"schoolpress-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches worksheet routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/worksheets", h.create)
	rg.GET("/worksheets", h.list)
	rg.GET("/worksheets/:id", h.get)
	rg.DELETE("/worksheets/:id", middleware.RequireAdmin(), h.delete)
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWorksheetBytes+4096)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	var subjectTitleID int64
	if raw := c.PostForm("subjectTitleId"); raw != "" {
		subjectTitleID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || subjectTitleID < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid subjectTitleId", nil)
			return
		}
	}

	ws, err := h.Svc.Create(c.Request.Context(), userID, c.PostForm("title"), subjectTitleID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create worksheet", nil)
		}
		return
	}
	c.Set("worksheetId", ws.ID)
	respond.Created(c, toResponse(ws))
}

func (h *Handler) get(c *gin.Context) {
	worksheetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || worksheetID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid worksheet id", nil)
		return
	}
	c.Set("worksheetId", worksheetID)

	ws, err := h.Svc.Get(c.Request.Context(), worksheetID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "worksheet not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch worksheet", nil)
		}
		return
	}

	allowed, err := h.Svc.CanAccess(c.Request.Context(), middleware.UserIDFromContext(c), middleware.UserRoleFromContext(c), ws)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check access", nil)
		return
	}
	if !allowed {
		respond.Error(c, http.StatusForbidden, "forbidden", "worksheet access denied", nil)
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(ws))
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	sheets, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list worksheets", nil)
		return
	}

	resp := make([]gin.H, 0, len(sheets))
	for _, ws := range sheets {
		resp = append(resp, toResponse(ws))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) delete(c *gin.Context) {
	worksheetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || worksheetID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid worksheet id", nil)
		return
	}
	c.Set("worksheetId", worksheetID)

	if err := h.Svc.Delete(c.Request.Context(), worksheetID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "worksheet not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete worksheet", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"ok": true})
}

func toResponse(ws Worksheet) gin.H {
	return gin.H{
		"worksheetId":    ws.ID,
		"title":          ws.Title,
		"subjectTitleId": ws.SubjectTitleID,
		"pageCount":      ws.PageCount,
		"hasText":        ws.HasText,
		"createdBy":      ws.CreatedBy,
		"createdAt":      ws.CreatedAt,
	}
}
