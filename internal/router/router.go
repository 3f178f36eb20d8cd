package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/movie-collection/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the statically served poster
// uploads.
func RegisterRoutes(e *echo.Echo, uploadDir string) {
	// The /healthz endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
	// Uploaded posters are public once their random name is known.
	e.Static("/uploads", uploadDir)
}

// RegisterAuth registers the authentication endpoints.  Register and login
// live under /api/auth without authentication; they carry the rate limiter
// so credential stuffing is slowed down at the edge.  /api/auth/me requires
// a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authMW, limitMW echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limitMW)
	// Register a POST endpoint to handle user registration at /api/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /api/auth/login.
	g.POST("/login", a.Login)
	// /api/auth/me returns the authenticated user's id and email.
	g.GET("/me", a.Me, authMW)
}

// RegisterMovies registers the movie endpoints under /api/movies.  All
// routes require a valid access token; the cache middleware only acts on GET
// requests and keys entries per authenticated user.
func RegisterMovies(e *echo.Echo, m *handler.MovieHandler, p *handler.PosterHandler, authMW, cacheMW echo.MiddlewareFunc) {
	g := e.Group("/api/movies", authMW, cacheMW)

	g.POST("", m.Create)
	g.GET("", m.List)
	// NOTE: /stats and /upload-poster are registered before /:id so the
	// static segments are not swallowed by the id parameter.
	g.GET("/stats", m.Stats)
	g.POST("/upload-poster", p.Upload)
	g.GET("/:id", m.Get)
	// PATCH only: updates are partial (omitted fields keep their stored
	// values), which is not PUT's replace contract.
	g.PATCH("/:id", m.Update)
	g.DELETE("/:id", m.Delete)
}
