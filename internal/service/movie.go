package service

import (
	"context"
	"fmt"
	"math"

	"github.com/iliyamo/movie-collection/internal/repository"
)

// Listing defaults and bounds, matching the client's expectations.
const (
	DefaultPage  = 1
	DefaultLimit = 8
	MaxLimit     = 100
	recentCount  = 5
)

// MovieStore is the persistence surface the movie service needs. It is
// satisfied by *repository.MovieRepo.
type MovieStore interface {
	Create(ctx context.Context, m *repository.Movie) error
	GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (repository.Movie, error)
	List(ctx context.Context, f repository.MovieFilter) ([]repository.Movie, int64, error)
	Update(ctx context.Context, id, ownerID uint64, u repository.MovieUpdate) error
	Delete(ctx context.Context, id, ownerID uint64) error
	StatsRows(ctx context.Context, ownerID uint64) ([]repository.StatsRow, error)
}

// CreateMovieInput is an already-validated movie payload. The owner comes
// from the authenticated identity, never from the request body.
type CreateMovieInput struct {
	Title          string
	PublishingYear int
	Poster         *string
}

// ListQuery describes pagination and filtering for a listing call.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Year   int
}

// Pagination is the page metadata returned alongside a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// Stats aggregates a user's whole collection. A user with no movies gets the
// zero value with initialized (empty) map and slice rather than an error.
type Stats struct {
	TotalMovies     int                   `json:"totalMovies"`
	AverageYear     int                   `json:"averageYear"`
	OldestMovieYear int                   `json:"oldestMovieYear"`
	NewestMovieYear int                   `json:"newestMovieYear"`
	MoviesByDecade  map[string]int        `json:"moviesByDecade"`
	RecentMovies    []repository.StatsRow `json:"recentMovies"`
}

// MovieService implements owner-scoped CRUD, paginated listing and
// statistics over a user's movie collection. Every operation takes the
// authenticated owner id explicitly.
type MovieService struct {
	movies MovieStore
}

func NewMovieService(movies MovieStore) *MovieService {
	return &MovieService{movies: movies}
}

// Create stores a new movie owned by ownerID and returns the stored record
// with its generated id and timestamps.
func (s *MovieService) Create(ctx context.Context, ownerID uint64, in CreateMovieInput) (repository.Movie, error) {
	m := repository.Movie{
		UserID:         ownerID,
		Title:          in.Title,
		PublishingYear: in.PublishingYear,
		Poster:         in.Poster,
	}
	if err := s.movies.Create(ctx, &m); err != nil {
		return repository.Movie{}, err
	}
	return m, nil
}

// List returns one page of the owner's movies plus pagination metadata.
// The slice and the total run against the same filter; consistency across
// concurrent writes is whatever the store provides, which is acceptable for
// page metadata.
func (s *MovieService) List(ctx context.Context, ownerID uint64, q ListQuery) ([]repository.Movie, Pagination, error) {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	f := repository.MovieFilter{
		OwnerID: ownerID,
		Search:  q.Search,
		Year:    q.Year,
		Limit:   q.Limit,
		Offset:  (q.Page - 1) * q.Limit,
	}
	items, total, err := s.movies.List(ctx, f)
	if err != nil {
		return nil, Pagination{}, err
	}
	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return items, Pagination{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    q.Page < totalPages,
		HasPrev:    q.Page > 1,
	}, nil
}

// Get returns the owner's movie or repository.ErrMovieNotFound.
func (s *MovieService) Get(ctx context.Context, ownerID, id uint64) (repository.Movie, error) {
	return s.movies.GetByIDAndOwner(ctx, id, ownerID)
}

// Update applies the provided fields to the owner's movie and returns the
// post-update record.
func (s *MovieService) Update(ctx context.Context, ownerID, id uint64, u repository.MovieUpdate) (repository.Movie, error) {
	if err := s.movies.Update(ctx, id, ownerID, u); err != nil {
		return repository.Movie{}, err
	}
	return s.movies.GetByIDAndOwner(ctx, id, ownerID)
}

// Delete removes the owner's movie; repository.ErrMovieNotFound when the
// owner+id filter matched nothing (including a repeated delete).
func (s *MovieService) Delete(ctx context.Context, ownerID, id uint64) error {
	return s.movies.Delete(ctx, id, ownerID)
}

// Stats computes collection statistics in a single pass over the owner's
// movies: count, rounded mean year, min/max year, per-decade buckets and the
// five most recently created entries.
func (s *MovieService) Stats(ctx context.Context, ownerID uint64) (Stats, error) {
	rows, err := s.movies.StatsRows(ctx, ownerID)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		MoviesByDecade: map[string]int{},
		RecentMovies:   []repository.StatsRow{},
	}
	if len(rows) == 0 {
		return st, nil
	}

	st.TotalMovies = len(rows)
	sum := 0
	st.OldestMovieYear = rows[0].PublishingYear
	st.NewestMovieYear = rows[0].PublishingYear
	for _, r := range rows {
		y := r.PublishingYear
		sum += y
		if y < st.OldestMovieYear {
			st.OldestMovieYear = y
		}
		if y > st.NewestMovieYear {
			st.NewestMovieYear = y
		}
		decade := (y / 10) * 10
		st.MoviesByDecade[fmt.Sprintf("%ds", decade)]++
	}
	st.AverageYear = int(math.Round(float64(sum) / float64(len(rows))))

	// Rows arrive newest-created first, same ordering as the listing.
	n := recentCount
	if len(rows) < n {
		n = len(rows)
	}
	st.RecentMovies = append(st.RecentMovies, rows[:n]...)
	return st, nil
}
