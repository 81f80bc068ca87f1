package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CORS environment variables.
const (
	EnvCORSAllowedOrigins   = "NETZERO_CORS_ALLOWED_ORIGINS"
	EnvCORSAllowCredentials = "NETZERO_CORS_ALLOW_CREDENTIALS"
	EnvCORSMaxAge           = "NETZERO_CORS_MAX_AGE"
)

const defaultCORSMaxAge = 86400

// CORSConfig controls cross-origin access to the API. CORS is disabled when
// neither AllowAllOrigins nor AllowedOrigins is set.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowAllOrigins  bool
	AllowCredentials bool
	MaxAge           time.Duration
}

// Enabled reports whether CORS headers should be served.
func (c CORSConfig) Enabled() bool {
	return c.AllowAllOrigins || len(c.AllowedOrigins) > 0
}

// ParseCORSConfig reads the CORS settings from the environment.
func ParseCORSConfig(logger zerolog.Logger) (CORSConfig, error) {
	var config CORSConfig

	if origins := os.Getenv(EnvCORSAllowedOrigins); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed == "*" {
				config.AllowAllOrigins = true
				continue
			}
			if trimmed != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, trimmed)
			}
		}

		if config.AllowAllOrigins {
			logger.Warn().Msg("CORS wildcard origin (*) is insecure; use specific origins in production")
			config.AllowedOrigins = nil
		}
	}

	if strings.ToLower(os.Getenv(EnvCORSAllowCredentials)) == "true" {
		config.AllowCredentials = true
	}

	if config.AllowAllOrigins && config.AllowCredentials {
		return CORSConfig{}, fmt.Errorf("cannot enable credentials with wildcard origin (*); security risk")
	}

	maxAge := defaultCORSMaxAge
	if maxAgeStr := os.Getenv(EnvCORSMaxAge); maxAgeStr != "" {
		if parsed, err := strconv.Atoi(maxAgeStr); err == nil && parsed >= 0 {
			maxAge = parsed
		} else {
			logger.Warn().Str("value", maxAgeStr).Msg("invalid " + EnvCORSMaxAge + ", using default")
		}
	}
	config.MaxAge = time.Duration(maxAge) * time.Second

	logger.Debug().
		Strs("allowed_origins", config.AllowedOrigins).
		Bool("allow_all_origins", config.AllowAllOrigins).
		Int("max_age", maxAge).
		Msg("CORS configuration applied")

	return config, nil
}

func (c CORSConfig) middleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     c.AllowedOrigins,
		AllowAllOrigins:  c.AllowAllOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge,
	})
}
