package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	UploadsDir      string
	DatabaseURL     string
	Env             string
	StrictAccess    bool
	AdminEmails     []string

	Personalization Personalization
}

// Personalization holds the worksheet branding knobs. Loaded once at
// startup and read-only afterwards.
type Personalization struct {
	HeaderHeightMm  float64
	LogoMaxHeightMm float64
	CacheTTLSeconds int
	TimeoutSeconds  int
	// MaxPages caps how many leading pages get the header and watermark.
	// Zero (or negative) brands no pages; later pages always pass through
	// untouched.
	MaxPages          int
	DefaultSchoolName string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		UploadsDir:      getEnv("UPLOADS_DIR", "./data/uploads"),
		DatabaseURL:     dbURL,
		Env:             env,
		StrictAccess:    getEnvBool("STRICT_WORKSHEET_ACCESS", false),
		AdminEmails:     splitAndTrim(os.Getenv("ADMIN_EMAILS")),
		Personalization: Personalization{
			HeaderHeightMm:    getEnvFloat("PERSONALIZATION_HEADER_MM", 18),
			LogoMaxHeightMm:   getEnvFloat("PERSONALIZATION_LOGO_MAX_MM", 12),
			CacheTTLSeconds:   getEnvInt("PERSONALIZATION_CACHE_TTL_SECONDS", 600),
			TimeoutSeconds:    getEnvInt("PERSONALIZATION_TIMEOUT_SECONDS", 8),
			MaxPages:          getEnvInt("PERSONALIZATION_MAX_PAGES", 30),
			DefaultSchoolName: getEnv("DEFAULT_SCHOOL_NAME", "SchoolPress"),
		},
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s=%q is not an integer; using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val <= 0 {
		log.Printf("config: %s=%q is not a positive number; using %g", key, raw, def)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
