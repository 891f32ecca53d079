package model

import (
	"errors"
	"strings"
)

var (
	ErrEmptyExternalID = errors.New("movie external ID cannot be empty")
	ErrEmptyMovieTitle = errors.New("movie title cannot be empty")
)

// Movie is a catalog movie known to this service.
// It is identified by the catalog's external identifier and shared by every
// collection that references it.
type Movie struct {
	ExternalID  string
	Title       string
	Description string
	Genres      string
}

// RawMovie is a movie record as it arrives from the catalog or a client request.
// Fields not listed here are dropped during decoding.
type RawMovie struct {
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Genres      string `json:"genres"`
}

// Normalize converts a raw record into a Movie, trimming surrounding whitespace.
func (r RawMovie) Normalize() Movie {
	return Movie{
		ExternalID:  strings.TrimSpace(r.UUID),
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Genres:      strings.TrimSpace(r.Genres),
	}
}

// NewMovie validates a raw record and returns the Movie it describes.
func NewMovie(r RawMovie) (*Movie, error) {
	m := r.Normalize()
	if m.ExternalID == "" {
		return nil, ErrEmptyExternalID
	}
	if m.Title == "" {
		return nil, ErrEmptyMovieTitle
	}
	return &m, nil
}

// GenreList returns the movie's genres split on commas.
func (m *Movie) GenreList() []string {
	return SplitGenres(m.Genres)
}

// SplitGenres splits a comma-separated genre field into trimmed, non-empty names.
// Duplicates are kept.
func SplitGenres(genres string) []string {
	parts := strings.Split(genres, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// MoviePage is one page of the catalog's movie list after normalization.
type MoviePage struct {
	Page   int
	Count  int
	Movies []Movie
}

// HasNext reports whether the catalog holds movies beyond this page,
// assuming every page before it had the same size.
func (p *MoviePage) HasNext() bool {
	if len(p.Movies) == 0 {
		return false
	}
	return p.Page*len(p.Movies) < p.Count
}
