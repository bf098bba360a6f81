package subjects

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"schoolpress-backend/internal/shared/server/middleware"
	"schoolpress-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the repo.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches subject routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/subjects", h.list)
	rg.POST("/subjects", middleware.RequireAdmin(), h.create)
	rg.POST("/subjects/:id/approve/:userId", middleware.RequireAdmin(), h.approve)
}

func (h *Handler) list(c *gin.Context) {
	titles, err := h.Repo.ListTitles(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list subjects", nil)
		return
	}
	if titles == nil {
		titles = []SubjectTitle{}
	}
	respond.JSON(c, http.StatusOK, titles)
}

type createRequest struct {
	Name string `json:"name"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	title, err := h.Repo.CreateTitle(c.Request.Context(), req.Name)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create subject", nil)
		return
	}
	respond.Created(c, title)
}

func (h *Handler) approve(c *gin.Context) {
	subjectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || subjectID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid subject id", nil)
		return
	}
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid user id", nil)
		return
	}

	if err := h.Repo.Approve(c.Request.Context(), userID, subjectID); err != nil {
		if err == ErrNotFound {
			respond.Error(c, http.StatusNotFound, "not_found", "subject title not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to approve access", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"ok": true})
}
