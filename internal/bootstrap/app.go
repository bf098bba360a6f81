package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"schoolpress-backend/internal/auth"
	"schoolpress-backend/internal/personalize"
	"schoolpress-backend/internal/shared/config"
	"schoolpress-backend/internal/shared/server"
	"schoolpress-backend/internal/shared/storage/db"
	"schoolpress-backend/internal/shared/storage/object"
	localstore "schoolpress-backend/internal/shared/storage/object/local"
	"schoolpress-backend/internal/subjects"
	"schoolpress-backend/internal/users"
	"schoolpress-backend/internal/worksheets"
)

// App holds the wired application graph.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Cache  *personalize.Cache

	UsersRepo      users.Repo
	SubjectsRepo   subjects.Repo
	WorksheetsRepo worksheets.Repo

	UsersService       *users.Service
	WorksheetsService  *worksheets.Service
	PersonalizeService *personalize.Service

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	SubjectsHandler    *subjects.Handler
	WorksheetsHandler  *worksheets.Handler
	PersonalizeHandler *personalize.Handler
}

// Build prepares the full dependency graph and the router. A missing or
// unreachable database degrades to in-memory repositories outside
// production.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  localstore.New(cfg.UploadsDir),
		Cache:  personalize.NewCache(time.Duration(cfg.Personalization.CacheTTLSeconds) * time.Second),
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		AuthHandler:        app.AuthHandler,
		UsersHandler:       app.UsersHandler,
		SubjectsHandler:    app.SubjectsHandler,
		WorksheetsHandler:  app.WorksheetsHandler,
		PersonalizeHandler: app.PersonalizeHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildServices(app *App) {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.SubjectsRepo = &subjects.PGRepo{DB: app.DB}
		app.WorksheetsRepo = &worksheets.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.SubjectsRepo = subjects.NewMemoryRepo()
		app.WorksheetsRepo = worksheets.NewMemoryRepo()
	}

	app.UsersService = users.NewService(app.UsersRepo, app.Store, app.Cache, app.Config.AdminEmails)
	app.WorksheetsService = &worksheets.Service{
		Repo:         app.WorksheetsRepo,
		Store:        app.Store,
		Approvals:    app.SubjectsRepo,
		Invalidator:  app.Cache,
		StrictAccess: app.Config.StrictAccess,
	}

	paths := personalize.NewTrustedPathResolver(app.Config.UploadsDir)
	branding := &personalize.BrandingResolver{Users: app.UsersRepo, Paths: paths}
	engine := personalize.NewEngine(app.Config.Personalization)
	app.PersonalizeService = personalize.NewService(
		branding,
		engine,
		app.Cache,
		paths.Root(),
		app.Config.Personalization.TimeoutSeconds,
	)

	app.AuthHandler = auth.NewHandler(app.UsersService)
	app.UsersHandler = users.NewHandler(app.UsersService)
	app.SubjectsHandler = subjects.NewHandler(app.SubjectsRepo)
	app.WorksheetsHandler = worksheets.NewHandler(app.WorksheetsService)
	app.PersonalizeHandler = personalize.NewHandler(app.PersonalizeService, app.WorksheetsService)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
