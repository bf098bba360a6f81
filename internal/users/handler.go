package users

import (
	"errors"
	"net/http"

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

// RegisterRoutes attaches user routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/me", h.me)
	rg.PUT("/users/me/branding", h.updateBranding)
	rg.POST("/users/me/logo", h.uploadLogo)
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch user", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(user))
}

type brandingRequest struct {
	SchoolName       *string  `json:"schoolName"`
	WatermarkOpacity *float64 `json:"worksheetWatermarkOpacity"`
}

func (h *Handler) updateBranding(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req brandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	user, err := h.Svc.UpdateBranding(c.Request.Context(), userID, BrandingUpdate{
		SchoolName:       req.SchoolName,
		WatermarkOpacity: req.WatermarkOpacity,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update branding", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(user))
}

func (h *Handler) uploadLogo(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxLogoBytes+4096)

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

	user, err := h.Svc.SaveLogo(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save logo", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(user))
}

func toResponse(user User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"fullName":   user.FullName,
		"role":       user.Role,
		"schoolName": user.SchoolName,
		"logo":       user.Logo,
		"logoUrl":    user.LogoURL,
		"worksheetWatermarkOpacity": user.WatermarkOpacity,
		"createdAt":  user.CreatedAt,
	}
}
