package handler // handler package contains the movie CRUD endpoints

import (
    "errors"   // sentinel error matching
    "net/http" // http provides status code constants
    "strconv"  // strconv parses string identifiers to numeric types
    "strings"  // strings offers trimming utilities
    "time"     // timestamps for activity events

    "github.com/labstack/echo/v4" // echo is the web framework used for handlers

    "github.com/iliyamo/movie-collection/internal/queue"      // activity event publishing
    "github.com/iliyamo/movie-collection/internal/repository" // repository models and sentinels
    "github.com/iliyamo/movie-collection/internal/service"    // domain services
)

// MovieHandler bundles the movie service and the optional activity
// publisher. Events is nil when no broker is configured.
type MovieHandler struct {
	Movies *service.MovieService
	Events *queue.Publisher
}

func NewMovieHandler(movies *service.MovieService, events *queue.Publisher) *MovieHandler {
	if movies == nil {
		panic("nil movie service passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: movies, Events: events}
}

// Publishing year bounds: 1888 is the year of the first film ever made.
const (
	minYear = 1888
	maxYear = 2100
)

type movieReq struct {
	Title          *string `json:"title"`
	PublishingYear *int    `json:"publishingYear"`
	Poster         *string `json:"poster"`
}

// Create handles POST /api/movies and stores a new movie for the caller.
func (h *MovieHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body movieReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Title == nil || strings.TrimSpace(*body.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if body.PublishingYear == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "publishingYear is required"})
	}
	if *body.PublishingYear < minYear || *body.PublishingYear > maxYear {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "publishingYear must be between 1888 and 2100"})
	}

	in := service.CreateMovieInput{
		Title:          strings.TrimSpace(*body.Title),
		PublishingYear: *body.PublishingYear,
		Poster:         body.Poster,
	}
	m, err := h.Movies.Create(c.Request().Context(), ownerID, in)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create movie"})
	}
	h.publish(c, "create", m)
	return c.JSON(http.StatusCreated, m)
}

// List handles GET /api/movies with pagination, title search and year filter.
func (h *MovieHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	q := service.ListQuery{Search: strings.TrimSpace(c.QueryParam("search"))}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
		}
		q.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > service.MaxLimit {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		q.Limit = n
	}
	if v := c.QueryParam("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		q.Year = n
	}

	items, meta, err := h.Movies.List(c.Request().Context(), ownerID, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "pagination": meta})
}

// Stats handles GET /api/movies/stats and aggregates the whole collection.
func (h *MovieHandler) Stats(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	st, err := h.Movies.Stats(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, st)
}

// Get handles GET /api/movies/:id.
func (h *MovieHandler) Get(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Movies.Get(c.Request().Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, m)
}

// Update handles PATCH /api/movies/:id and applies only the provided fields.
func (h *MovieHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body movieReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// Provided fields are validated with the same rules as create.
	if body.Title != nil && strings.TrimSpace(*body.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title must not be empty"})
	}
	if body.PublishingYear != nil && (*body.PublishingYear < minYear || *body.PublishingYear > maxYear) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "publishingYear must be between 1888 and 2100"})
	}

	u := repository.MovieUpdate{
		PublishingYear: body.PublishingYear,
		Poster:         body.Poster,
	}
	if body.Title != nil {
		t := strings.TrimSpace(*body.Title)
		u.Title = &t
	}
	m, err := h.Movies.Update(c.Request().Context(), ownerID, id, u)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.publish(c, "update", m)
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/movies/:id. Deleting an already-deleted id
// reports not-found; the record being absent is the end state either way.
func (h *MovieHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Movies.Delete(c.Request().Context(), ownerID, id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.publish(c, "delete", repository.Movie{ID: id, UserID: ownerID})
	return c.NoContent(http.StatusNoContent)
}

// publish emits a best-effort activity event; failures are logged inside the
// publisher and never affect the request outcome.
func (h *MovieHandler) publish(c echo.Context, action string, m repository.Movie) {
	if h.Events == nil {
		return
	}
	_ = h.Events.PublishMovieActivity(c.Request().Context(), queue.MovieActivityEvent{
		Action:     action,
		MovieID:    m.ID,
		UserID:     m.UserID,
		Title:      m.Title,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
