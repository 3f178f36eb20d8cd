// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// services and handlers to distinguish domain failures (duplicate email,
// missing or foreign-owned movie) from infrastructure failures, which are
// propagated unmodified.
package repository

import "errors"

// ErrEmailExists is returned when registration collides with an existing
// active account. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrMovieNotFound is returned when an owner-scoped movie lookup matches no
// row. A movie that exists but belongs to another user is deliberately
// indistinguishable from one that does not exist at all, so ownership can
// never be probed through this API. Handlers translate this into 404.
var ErrMovieNotFound = errors.New("movie not found")
