package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-collection/internal/storage"
)

// PosterHandler accepts multipart poster uploads and stores them on disk.
// The stored path becomes the movie's poster reference; movie records only
// ever carry the string, never the file bytes.
type PosterHandler struct {
	Store *storage.FileStore
}

func NewPosterHandler(store *storage.FileStore) *PosterHandler {
	if store == nil {
		panic("nil file store passed to NewPosterHandler")
	}
	return &PosterHandler{Store: store}
}

// Upload handles POST /api/movies/upload-poster. The file arrives in the
// multipart field "poster"; the response carries the generated filename and
// the public path under /uploads.
func (h *PosterHandler) Upload(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fh, err := c.FormFile("poster")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "poster file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read upload"})
	}
	defer src.Close()

	name, err := h.Store.SavePoster(fh.Filename, fh.Size, src)
	if err != nil {
		switch err {
		case storage.ErrBadExtension:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "only jpg, jpeg, png and gif files are allowed"})
		case storage.ErrTooLarge:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "poster must be 5MB or smaller"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store poster"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"filename": name,
		"path":     "/uploads/" + name,
	})
}
