// This file defines the Movie model and repository methods for owner-scoped
// CRUD, filtered listing and the statistics projection. Every query that
// reads or mutates a specific movie includes the owning user's id in its
// WHERE clause; ownership is enforced by the filter itself, never by a
// post-hoc check on a fetched row.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Movie represents a movie record owned by a single user. JSON tags follow
// the wire shape consumed by the client application.
type Movie struct {
	ID             uint64    `json:"_id"`
	Title          string    `json:"title"`
	PublishingYear int       `json:"publishingYear"`
	Poster         *string   `json:"poster"`
	UserID         uint64    `json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MovieFilter describes the listing filter: the owner is always present,
// Search narrows by case-insensitive title substring and Year by exact
// publishing year when non-zero.
type MovieFilter struct {
	OwnerID uint64
	Search  string
	Year    int
	Limit   int
	Offset  int
}

// MovieUpdate carries the fields of a partial update. Nil pointers leave the
// stored value untouched.
type MovieUpdate struct {
	Title          *string
	PublishingYear *int
	Poster         *string
}

// StatsRow is the projection loaded for statistics aggregation: only the
// title, year and creation time of each movie.
type StatsRow struct {
	Title          string    `json:"title"`
	PublishingYear int       `json:"publishingYear"`
	CreatedAt      time.Time `json:"createdAt"`
}

type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "id, user_id, title, publishing_year, poster, created_at, updated_at"

func scanMovie(row interface{ Scan(...any) error }, m *Movie) error {
	var poster sql.NullString
	if err := row.Scan(&m.ID, &m.UserID, &m.Title, &m.PublishingYear, &poster, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return err
	}
	if poster.Valid {
		m.Poster = &poster.String
	}
	return nil
}

// Create inserts a new movie for its owner. On success the ID, timestamps
// and normalized poster value are populated from a follow-up SELECT so
// callers receive the record exactly as stored.
func (r *MovieRepo) Create(ctx context.Context, m *Movie) error {
	var poster any
	if m.Poster != nil {
		poster = *m.Poster
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO movies (user_id, title, publishing_year, poster) VALUES (?, ?, ?, ?)",
		m.UserID, m.Title, m.PublishingYear, poster)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	const q = "SELECT " + movieColumns + " FROM movies WHERE id = ?"
	return scanMovie(r.db.QueryRowContext(ctx, q, m.ID), m)
}

// GetByIDAndOwner fetches a movie only if it belongs to the given owner.
// Foreign-owned and absent movies both yield ErrMovieNotFound.
func (r *MovieRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies WHERE id = ? AND user_id = ?"
	var m Movie
	if err := scanMovie(r.db.QueryRowContext(ctx, q, id, ownerID), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Movie{}, ErrMovieNotFound
		}
		return Movie{}, err
	}
	return m, nil
}

// listWhere builds the WHERE clause and arguments shared by the count and
// page-slice queries so both always run against the same filter.
func listWhere(f MovieFilter) (string, []any) {
	where := []string{"user_id = ?"}
	args := []any{f.OwnerID}
	if f.Search != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}
	if f.Year != 0 {
		where = append(where, "publishing_year = ?")
		args = append(args, f.Year)
	}
	return strings.Join(where, " AND "), args
}

// List returns one page of the owner's movies plus the total count of rows
// matching the same filter. Ordering is newest-created first with the id as
// a stable tie-break for rows sharing a DATETIME-resolution timestamp.
func (r *MovieRepo) List(ctx context.Context, f MovieFilter) ([]Movie, int64, error) {
	cond, args := listWhere(f)

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM movies WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + movieColumns + " FROM movies WHERE " + cond +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Movie, 0, f.Limit)
	for rows.Next() {
		var m Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update applies the provided fields to an owner's movie. It returns
// ErrMovieNotFound when the owner+id filter matches nothing; callers should
// re-fetch through GetByIDAndOwner to obtain the post-update record.
func (r *MovieRepo) Update(ctx context.Context, id, ownerID uint64, u MovieUpdate) error {
	set := []string{}
	args := []any{}
	if u.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *u.Title)
	}
	if u.PublishingYear != nil {
		set = append(set, "publishing_year = ?")
		args = append(args, *u.PublishingYear)
	}
	if u.Poster != nil {
		set = append(set, "poster = ?")
		args = append(args, *u.Poster)
	}
	if len(set) == 0 {
		// Nothing to change; still verify the movie exists for this owner.
		_, err := r.GetByIDAndOwner(ctx, id, ownerID)
		return err
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")

	q := "UPDATE movies SET " + strings.Join(set, ", ") + " WHERE id = ? AND user_id = ?"
	args = append(args, id, ownerID)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	// MySQL reports zero affected rows both for a missing row and for an
	// update that changes nothing, so confirm existence before concluding
	// the movie is gone.
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an owner's movie. Exactly zero or one rows can match the
// owner+id filter; zero means ErrMovieNotFound.
func (r *MovieRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM movies WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// StatsRows loads the statistics projection for all of an owner's movies in
// the same newest-created-first order used by List.
func (r *MovieRepo) StatsRows(ctx context.Context, ownerID uint64) ([]StatsRow, error) {
	const q = `SELECT title, publishing_year, created_at
	           FROM movies WHERE user_id = ?
	           ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatsRow
	for rows.Next() {
		var s StatsRow
		if err := rows.Scan(&s.Title, &s.PublishingYear, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
