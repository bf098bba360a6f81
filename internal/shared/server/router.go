package server

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"schoolpress-backend/internal/auth"
	"schoolpress-backend/internal/personalize"
	"schoolpress-backend/internal/shared/config"
	"schoolpress-backend/internal/shared/metrics"
	"schoolpress-backend/internal/shared/server/middleware"
	"schoolpress-backend/internal/shared/server/respond"
	"schoolpress-backend/internal/subjects"
	"schoolpress-backend/internal/users"
	"schoolpress-backend/internal/worksheets"
)

const personalizeRateGroup = "PERSONALIZE"

// RouterDeps carries the handlers the router mounts. Bootstrap builds
// them once and hands them over; the router owns only HTTP wiring.
type RouterDeps struct {
	Config             config.Config
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	SubjectsHandler    *subjects.Handler
	WorksheetsHandler  *worksheets.Handler
	PersonalizeHandler *personalize.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
	)

	// Logos are public static assets; worksheet files never are, they
	// only leave through the personalized delivery route.
	r.Static("/uploads/logos", filepath.Join(deps.Config.UploadsDir, "logos"))

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "env": deps.Config.Env})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.SubjectsHandler != nil {
		deps.SubjectsHandler.RegisterRoutes(api)
	}
	if deps.WorksheetsHandler != nil {
		deps.WorksheetsHandler.RegisterRoutes(api)
	}
	if deps.PersonalizeHandler != nil {
		limited := api.Group("", middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				personalizeRateGroup: {Rate: 2, Burst: 8},
			},
			DefaultGroup: personalizeRateGroup,
		}))
		deps.PersonalizeHandler.RegisterRoutes(limited)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
