package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-collection/internal/handler"
	"github.com/iliyamo/movie-collection/internal/service"
	"github.com/iliyamo/movie-collection/internal/storage"
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	posters, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	m := handler.NewMovieHandler(service.NewMovieService(nil), nil)
	RegisterMovies(e, m, handler.NewPosterHandler(posters), pass, pass)
	return e
}

// Updates are partial, so the surface exposes PATCH and not PUT.
func TestMovieUpdateMethodSurface(t *testing.T) {
	e := newTestRouter(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/movies/1", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PUT status = %d, want 405", rec.Code)
	}

	// PATCH reaches the handler; without an identity in context it is the
	// handler's 401, not the router's 405.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/movies/1", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("PATCH status = %d, want 401 from the handler", rec.Code)
	}
}

// Static segments must win over the :id parameter.
func TestStaticSegmentsBeforeID(t *testing.T) {
	e := newTestRouter(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies/stats", nil))
	// 401 means the stats handler ran (and rejected the anonymous call);
	// a route mix-up would surface as 400 "invalid id" from the Get handler.
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("GET /stats status = %d, want 401 from the stats handler", rec.Code)
	}
}
