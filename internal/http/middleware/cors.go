package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/straye-as/sds-catalog-api/internal/config"
	"go.uber.org/zap"
)

// CORS returns the CORS middleware. The session cookie needs credentialed
// requests, so allowed origins are always echoed back instead of "*".
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc:  originPolicy(cfg.AllowedOrigins, environment, logger),
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}

func isDevelopment(environment string) bool {
	return environment == "" || environment == "development" || environment == "local"
}

// originPolicy decides which origins may call the API:
//   - explicit list: only those origins
//   - "*" in the list: any origin (warned about outside development)
//   - empty list: any origin in development, none elsewhere
func originPolicy(origins []string, environment string, logger *zap.Logger) func(*http.Request, string) bool {
	anyOrigin := func(_ *http.Request, origin string) bool { return origin != "" }

	switch {
	case slices.Contains(origins, "*"):
		if !isDevelopment(environment) {
			logger.Warn("CORS allows every origin outside development", zap.String("environment", environment))
		}
		return anyOrigin

	case len(origins) > 0:
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[o] = struct{}{}
		}
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", origins))
		return func(_ *http.Request, origin string) bool {
			_, ok := allowed[origin]
			return ok
		}

	case isDevelopment(environment):
		logger.Info("CORS allows every origin in development")
		return anyOrigin

	default:
		logger.Warn("CORS has no allowed origins, cross-origin requests are denied", zap.String("environment", environment))
		return func(*http.Request, string) bool { return false }
	}
}
