package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/config"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"go.uber.org/zap"
)

// RateLimiter holds the request limits of the API:
//   - per client IP for every request (LimitByIP)
//   - per user once authenticated (Limit)
//   - per IP and endpoint for sign-in and sign-up (LimitAuthAttempts)
type RateLimiter struct {
	cfg     *config.RateLimitConfig
	logger  *zap.Logger
	byIP    func(http.Handler) http.Handler
	byUser  func(http.Handler) http.Handler
	attempt func(http.Handler) http.Handler

	exemptIPs      map[string]struct{}
	exemptPaths    map[string]struct{}
	exemptPrefixes []string
}

func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:         cfg,
		logger:      logger,
		exemptIPs:   make(map[string]struct{}, len(cfg.WhitelistIPs)),
		exemptPaths: make(map[string]struct{}, len(cfg.WhitelistPaths)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.exemptIPs[ip] = struct{}{}
	}
	for _, p := range cfg.WhitelistPaths {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			rl.exemptPrefixes = append(rl.exemptPrefixes, prefix)
			continue
		}
		rl.exemptPaths[p] = struct{}{}
	}

	rl.byIP = httprate.Limit(cfg.RequestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(rl.keyByIP),
		httprate.WithLimitHandler(rl.tooManyRequests),
	)
	rl.byUser = httprate.Limit(cfg.RequestsPerMinuteAuth, time.Minute,
		httprate.WithKeyFuncs(rl.keyByUser),
		httprate.WithLimitHandler(rl.tooManyRequests),
	)
	rl.attempt = httprate.Limit(cfg.AuthAttemptsPerMinute, time.Minute,
		httprate.WithKeyFuncs(rl.keyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(rl.tooManyRequests),
	)

	logger.Info("Rate limiter initialized",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Int("requests_per_minute_auth", cfg.RequestsPerMinuteAuth),
		zap.Int("auth_attempts_per_minute", cfg.AuthAttemptsPerMinute),
		zap.Strings("whitelist_ips", cfg.WhitelistIPs),
		zap.Strings("whitelist_paths", cfg.WhitelistPaths),
	)

	return rl
}

// LimitByIP limits every request per client IP; mounted before authentication
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	return rl.guard(rl.cfg.RequestsPerMinute, rl.byIP, next)
}

// Limit limits authenticated requests per user
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return rl.guard(rl.cfg.RequestsPerMinuteAuth, rl.byUser, next)
}

// LimitAuthAttempts guards the credential endpoints against brute forcing.
// Whitelists do not apply.
func (rl *RateLimiter) LimitAuthAttempts(next http.Handler) http.Handler {
	if !rl.cfg.Enabled || rl.cfg.AuthAttemptsPerMinute <= 0 {
		return next
	}
	return rl.attempt(next)
}

func (rl *RateLimiter) guard(limit int, limiter func(http.Handler) http.Handler, next http.Handler) http.Handler {
	if !rl.cfg.Enabled || limit <= 0 {
		return next
	}
	limited := limiter(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) exempt(r *http.Request) bool {
	if _, ok := rl.exemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range rl.exemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	_, ok := rl.exemptIPs[ClientIP(r)]
	return ok
}

func (rl *RateLimiter) keyByIP(r *http.Request) (string, error) {
	return "ip:" + ClientIP(r), nil
}

func (rl *RateLimiter) keyByUser(r *http.Request) (string, error) {
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		return "user:" + userCtx.UserID.String(), nil
	}
	return rl.keyByIP(r)
}

// ClientIP returns the first X-Forwarded-For address, X-Real-IP, or the peer address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiter) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("client_ip", ClientIP(r)),
	}
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		fields = append(fields, zap.String("user_id", userCtx.UserID.String()))
	}
	rl.logger.Warn("rate limit exceeded", fields...)

	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeRateLimited,
		Title:  "Too Many Requests",
		Status: http.StatusTooManyRequests,
		Detail: "Too many requests. Please try again later.",
	})
}
