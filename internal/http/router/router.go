package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/config"
	"github.com/straye-as/sds-catalog-api/internal/http/handler"
	"github.com/straye-as/sds-catalog-api/internal/http/middleware"
	"github.com/straye-as/sds-catalog-api/internal/storage"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/straye-as/sds-catalog-api/docs" // Import generated swagger docs
)

// Handlers groups the HTTP handlers mounted by the router. Storage is nil
// unless objects are kept on local disk.
type Handlers struct {
	System          *handler.SystemHandler
	Auth            *handler.AuthHandler
	Artikel         *handler.ArtikelHandler
	Veiligheidsblad *handler.VeiligheidsbladHandler
	Bulk            *handler.BulkHandler
	Storage         *handler.StorageHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health checks
	r.Get("/health", rt.handlers.System.Health)
	r.Get("/health/db", rt.handlers.System.HealthDB)
	r.Get("/health/ready", rt.handlers.System.Ready)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Signed local download links carry their own token
	if rt.handlers.Storage != nil {
		r.Get(storage.LocalSignedPrefix+"*", rt.handlers.Storage.ServeSigned)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/languages", rt.handlers.System.Languages)
		r.Group(func(r chi.Router) {
			r.Use(rt.rateLimiter.LimitAuthAttempts)
			r.Post("/auth/signup", rt.handlers.Auth.SignUp)
			r.Post("/auth/signin", rt.handlers.Auth.SignIn)
		})

		// Signing out an expired or revoked session still clears the cookie
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.OptionalAuthenticate)
			r.Use(chimiddleware.Timeout(rt.cfg.Server.RequestTimeoutDuration()))
			r.Post("/auth/signout", rt.handlers.Auth.SignOut)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)

			// The event stream stays open well past the request timeout
			r.Get("/auth/events", rt.handlers.Auth.Events)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(rt.cfg.Server.RequestTimeoutDuration()))

				r.Post("/auth/refresh", rt.handlers.Auth.Refresh)
				r.Get("/auth/session", rt.handlers.Auth.Session)
				r.Put("/auth/user", rt.handlers.Auth.UpdateUser)

				r.Route("/artikelen", func(r chi.Router) {
					r.Get("/", rt.handlers.Artikel.List)
					r.With(rt.authMiddleware.RequireAdmin).Post("/", rt.handlers.Artikel.Create)
					r.Get("/{id}", rt.handlers.Artikel.GetByID)
					r.Get("/{id}/veiligheidsbladen", rt.handlers.Veiligheidsblad.ListForArtikel)
					r.With(rt.authMiddleware.RequireAdmin).Post("/{id}/veiligheidsbladen", rt.handlers.Veiligheidsblad.Upload)
					r.Get("/{id}/veiligheidsbladen/latest", rt.handlers.Veiligheidsblad.Latest)
				})

				r.Route("/veiligheidsbladen", func(r chi.Router) {
					r.Get("/{id}/url", rt.handlers.Veiligheidsblad.DownloadURL)
					r.Get("/{id}/download", rt.handlers.Veiligheidsblad.Download)
				})

				r.Route("/bulk", func(r chi.Router) {
					r.Get("/example-zip", rt.handlers.Bulk.ExampleZip)
					r.Get("/import/template", rt.handlers.Bulk.ImportTemplate)
					r.Get("/export", rt.handlers.Bulk.Export)

					r.Group(func(r chi.Router) {
						r.Use(rt.authMiddleware.RequireAdmin)
						r.Post("/documents/validate", rt.handlers.Bulk.ValidateDocuments)
						r.Post("/documents", rt.handlers.Bulk.UploadDocuments)
						r.Post("/import/preview", rt.handlers.Bulk.ImportPreview)
						r.Post("/import", rt.handlers.Bulk.Import)
						r.Get("/runs", rt.handlers.Bulk.ListRuns)
						r.Get("/runs/{id}", rt.handlers.Bulk.GetRun)
					})
				})

				if rt.handlers.Storage != nil {
					r.Get("/storage/*", rt.handlers.Storage.ServeAuthenticated)
				}
			})
		})
	})

	return r
}
