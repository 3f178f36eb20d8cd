package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-collection/internal/repository"
	"github.com/iliyamo/movie-collection/internal/service"
)

// memMovieStore is an in-memory stand-in for the SQL movie repository. It
// honors the same filter and ordering semantics: owner scoping on every call,
// case-insensitive title substring search, exact year match, newest first.
type memMovieStore struct {
	nextID uint64
	now    time.Time
	movies map[uint64]repository.Movie
}

func newMemMovieStore() *memMovieStore {
	return &memMovieStore{
		now:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		movies: map[uint64]repository.Movie{},
	}
}

func (f *memMovieStore) Create(_ context.Context, m *repository.Movie) error {
	f.nextID++
	f.now = f.now.Add(time.Minute)
	m.ID = f.nextID
	m.CreatedAt = f.now
	m.UpdatedAt = f.now
	f.movies[m.ID] = *m
	return nil
}

func (f *memMovieStore) GetByIDAndOwner(_ context.Context, id, ownerID uint64) (repository.Movie, error) {
	m, ok := f.movies[id]
	if !ok || m.UserID != ownerID {
		return repository.Movie{}, repository.ErrMovieNotFound
	}
	return m, nil
}

func (f *memMovieStore) matching(flt repository.MovieFilter) []repository.Movie {
	var out []repository.Movie
	for _, m := range f.movies {
		if m.UserID != flt.OwnerID {
			continue
		}
		if flt.Search != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(flt.Search)) {
			continue
		}
		if flt.Year != 0 && m.PublishingYear != flt.Year {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *memMovieStore) List(_ context.Context, flt repository.MovieFilter) ([]repository.Movie, int64, error) {
	all := f.matching(flt)
	total := int64(len(all))
	if flt.Offset >= len(all) {
		return []repository.Movie{}, total, nil
	}
	end := flt.Offset + flt.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[flt.Offset:end], total, nil
}

func (f *memMovieStore) Update(_ context.Context, id, ownerID uint64, u repository.MovieUpdate) error {
	m, ok := f.movies[id]
	if !ok || m.UserID != ownerID {
		return repository.ErrMovieNotFound
	}
	if u.Title != nil {
		m.Title = *u.Title
	}
	if u.PublishingYear != nil {
		m.PublishingYear = *u.PublishingYear
	}
	if u.Poster != nil {
		m.Poster = u.Poster
	}
	f.now = f.now.Add(time.Minute)
	m.UpdatedAt = f.now
	f.movies[id] = m
	return nil
}

func (f *memMovieStore) Delete(_ context.Context, id, ownerID uint64) error {
	m, ok := f.movies[id]
	if !ok || m.UserID != ownerID {
		return repository.ErrMovieNotFound
	}
	delete(f.movies, id)
	return nil
}

func (f *memMovieStore) StatsRows(_ context.Context, ownerID uint64) ([]repository.StatsRow, error) {
	var rows []repository.StatsRow
	for _, m := range f.matching(repository.MovieFilter{OwnerID: ownerID}) {
		rows = append(rows, repository.StatsRow{Title: m.Title, PublishingYear: m.PublishingYear, CreatedAt: m.CreatedAt})
	}
	return rows, nil
}

func newTestMovieHandler() (*MovieHandler, *memMovieStore) {
	store := newMemMovieStore()
	return NewMovieHandler(service.NewMovieService(store), nil), store
}

// movieCtx builds an echo context with the authenticated owner already set,
// the way the JWT middleware would leave it.
func movieCtx(t *testing.T, ownerID uint64, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if ownerID != 0 {
		c.Set("user_id", ownerID)
	}
	return c, rec
}

func createMovie(t *testing.T, h *MovieHandler, ownerID uint64, body string) repository.Movie {
	t.Helper()
	c, rec := movieCtx(t, ownerID, http.MethodPost, "/api/movies", body)
	if err := h.Create(c); err != nil {
		t.Fatalf("create handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (%s)", rec.Code, rec.Body)
	}
	var m repository.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode created movie: %v", err)
	}
	return m
}

func TestCreateMovie(t *testing.T) {
	h, _ := newTestMovieHandler()

	m := createMovie(t, h, 1, `{"title":"Heat","publishingYear":1995,"poster":"abc.jpg"}`)
	if m.ID == 0 || m.Title != "Heat" || m.PublishingYear != 1995 || m.UserID != 1 {
		t.Fatalf("created movie = %+v", m)
	}
	if m.Poster == nil || *m.Poster != "abc.jpg" {
		t.Fatalf("poster = %v, want abc.jpg", m.Poster)
	}
	if m.CreatedAt.IsZero() || m.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps on the created movie")
	}
}

func TestCreateMovieValidation(t *testing.T) {
	h, _ := newTestMovieHandler()

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"publishingYear":1995}`},
		{"blank title", `{"title":"   ","publishingYear":1995}`},
		{"missing year", `{"title":"Heat"}`},
		{"year too small", `{"title":"Heat","publishingYear":1800}`},
		{"year too large", `{"title":"Heat","publishingYear":3000}`},
		{"malformed json", `{"title":`},
	}
	for _, tc := range cases {
		c, rec := movieCtx(t, 1, http.MethodPost, "/api/movies", tc.body)
		if err := h.Create(c); err != nil {
			t.Fatalf("%s: handler error: %v", tc.name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestMovieEndpointsRequireIdentity(t *testing.T) {
	h, _ := newTestMovieHandler()

	calls := map[string]echo.HandlerFunc{
		"create": h.Create,
		"list":   h.List,
		"stats":  h.Stats,
	}
	for name, fn := range calls {
		c, rec := movieCtx(t, 0, http.MethodGet, "/api/movies", "")
		if err := fn(c); err != nil {
			t.Fatalf("%s: handler error: %v", name, err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestListResponseShape(t *testing.T) {
	h, _ := newTestMovieHandler()
	for i := 0; i < 10; i++ {
		createMovie(t, h, 1, `{"title":"Movie `+strconv.Itoa(i)+`","publishingYear":2000}`)
	}

	c, rec := movieCtx(t, 1, http.MethodGet, "/api/movies?page=2&limit=4", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}

	var out struct {
		Data       []repository.Movie `json:"data"`
		Pagination service.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(out.Data) != 4 {
		t.Fatalf("page size = %d, want 4", len(out.Data))
	}
	p := out.Pagination
	if p.Page != 2 || p.Limit != 4 || p.Total != 10 || p.TotalPages != 3 || !p.HasNext || !p.HasPrev {
		t.Fatalf("pagination = %+v", p)
	}
}

func TestListQueryValidation(t *testing.T) {
	h, _ := newTestMovieHandler()

	for _, target := range []string{
		"/api/movies?page=0",
		"/api/movies?page=abc",
		"/api/movies?limit=0",
		"/api/movies?limit=101",
		"/api/movies?year=abc",
	} {
		c, rec := movieCtx(t, 1, http.MethodGet, target, "")
		if err := h.List(c); err != nil {
			t.Fatalf("%s: handler error: %v", target, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestListFilters(t *testing.T) {
	h, _ := newTestMovieHandler()
	createMovie(t, h, 1, `{"title":"The Matrix","publishingYear":1999}`)
	createMovie(t, h, 1, `{"title":"Inception","publishingYear":2010}`)
	createMovie(t, h, 2, `{"title":"Matrix Reloaded","publishingYear":2003}`)

	c, rec := movieCtx(t, 1, http.MethodGet, "/api/movies?search=mAtRiX", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list handler error: %v", err)
	}
	var out struct {
		Data []repository.Movie `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	// Owner 2's Matrix movie must not leak into owner 1's results.
	if len(out.Data) != 1 || out.Data[0].Title != "The Matrix" {
		t.Fatalf("search results = %+v, want only The Matrix", out.Data)
	}
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func TestGetMovie(t *testing.T) {
	h, _ := newTestMovieHandler()
	created := createMovie(t, h, 1, `{"title":"Alien","publishingYear":1979}`)

	c, rec := movieCtx(t, 1, http.MethodGet, "/api/movies/1", "")
	if err := h.Get(withID(c, strconv.FormatUint(created.ID, 10))); err != nil {
		t.Fatalf("get handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}

	// Another user asking for the same id sees not-found, not forbidden.
	c, rec = movieCtx(t, 2, http.MethodGet, "/api/movies/1", "")
	if err := h.Get(withID(c, strconv.FormatUint(created.ID, 10))); err != nil {
		t.Fatalf("get handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign get status = %d, want 404", rec.Code)
	}

	c, rec = movieCtx(t, 1, http.MethodGet, "/api/movies/abc", "")
	if err := h.Get(withID(c, "abc")); err != nil {
		t.Fatalf("get handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}

func TestUpdateMovie(t *testing.T) {
	h, _ := newTestMovieHandler()
	created := createMovie(t, h, 1, `{"title":"Blade Runner","publishingYear":1982}`)
	id := strconv.FormatUint(created.ID, 10)

	c, rec := movieCtx(t, 1, http.MethodPatch, "/api/movies/"+id, `{"publishingYear":2017}`)
	if err := h.Update(withID(c, id)); err != nil {
		t.Fatalf("update handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	var m repository.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode updated movie: %v", err)
	}
	if m.Title != "Blade Runner" || m.PublishingYear != 2017 {
		t.Fatalf("updated movie = %+v, want untouched title and year 2017", m)
	}

	c, rec = movieCtx(t, 1, http.MethodPatch, "/api/movies/"+id, `{"title":"  "}`)
	if err := h.Update(withID(c, id)); err != nil {
		t.Fatalf("update handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank title status = %d, want 400", rec.Code)
	}

	c, rec = movieCtx(t, 1, http.MethodPatch, "/api/movies/999", `{"publishingYear":1990}`)
	if err := h.Update(withID(c, "999")); err != nil {
		t.Fatalf("update handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing movie status = %d, want 404", rec.Code)
	}
}

func TestDeleteMovie(t *testing.T) {
	h, _ := newTestMovieHandler()
	created := createMovie(t, h, 1, `{"title":"Seven","publishingYear":1995}`)
	id := strconv.FormatUint(created.ID, 10)

	c, rec := movieCtx(t, 1, http.MethodDelete, "/api/movies/"+id, "")
	if err := h.Delete(withID(c, id)); err != nil {
		t.Fatalf("delete handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	// Deleting the same id again reports not-found.
	c, rec = movieCtx(t, 1, http.MethodDelete, "/api/movies/"+id, "")
	if err := h.Delete(withID(c, id)); err != nil {
		t.Fatalf("delete handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	h, _ := newTestMovieHandler()
	for _, y := range []int{1999, 2003, 2010, 2012, 2021} {
		createMovie(t, h, 1, `{"title":"Y`+strconv.Itoa(y)+`","publishingYear":`+strconv.Itoa(y)+`}`)
	}

	c, rec := movieCtx(t, 1, http.MethodGet, "/api/movies/stats", "")
	if err := h.Stats(c); err != nil {
		t.Fatalf("stats handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	var st service.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.TotalMovies != 5 || st.AverageYear != 2009 {
		t.Fatalf("stats = %+v, want total 5 / average 2009", st)
	}
	if st.OldestMovieYear != 1999 || st.NewestMovieYear != 2021 {
		t.Fatalf("year extremes = %d/%d, want 1999/2021", st.OldestMovieYear, st.NewestMovieYear)
	}
	if st.MoviesByDecade["2010s"] != 2 {
		t.Fatalf("moviesByDecade = %v, want two movies in the 2010s", st.MoviesByDecade)
	}
	if len(st.RecentMovies) != 5 || st.RecentMovies[0].PublishingYear != 2021 {
		t.Fatalf("recentMovies = %+v", st.RecentMovies)
	}
}
