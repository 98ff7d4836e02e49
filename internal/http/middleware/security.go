package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/straye-as/sds-catalog-api/internal/config"
)

// swaggerCSP lets the bundled swagger UI run its inline bootstrap script
const swaggerCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"

// SecurityHeaders adds the configured security headers. Auth responses carry
// session tokens and are never cached; the swagger UI gets a CSP it can run under.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	static := securityHeaderSet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range static {
				h.Set(name, value)
			}

			switch {
			case strings.HasPrefix(r.URL.Path, "/swagger/"):
				h.Set("Content-Security-Policy", swaggerCSP)
			case strings.HasPrefix(r.URL.Path, "/api/v1/auth/"):
				h.Set("Cache-Control", "no-store")
				h.Set("Pragma", "no-cache")
			}

			h.Del("X-Powered-By")
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

func securityHeaderSet(cfg *config.SecurityConfig) map[string]string {
	headers := make(map[string]string)
	if cfg.ContentTypeNosniff {
		headers["X-Content-Type-Options"] = "nosniff"
	}
	if cfg.FrameOptions != "" {
		headers["X-Frame-Options"] = cfg.FrameOptions
	}
	if cfg.ContentSecurityPolicy != "" {
		headers["Content-Security-Policy"] = cfg.ContentSecurityPolicy
	}
	if cfg.ReferrerPolicy != "" {
		headers["Referrer-Policy"] = cfg.ReferrerPolicy
	}
	if cfg.PermissionsPolicy != "" {
		headers["Permissions-Policy"] = cfg.PermissionsPolicy
	}
	if cfg.EnableHSTS {
		hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		headers["Strict-Transport-Security"] = hsts
	}
	return headers
}
