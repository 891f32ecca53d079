package repository

import (
	"context"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
)

// Credentials are the HTTP Basic credentials for the external catalog.
type Credentials struct {
	Username string
	Password string
}

// CatalogPage is the decoded body of one catalog list response.
type CatalogPage struct {
	Results []model.RawMovie `json:"results"`
	Count   int              `json:"count"`
}

// CatalogClient fetches pages from the external movie catalog.
// Implementations retry transient failures internally and report the final
// failure as an error value.
type CatalogClient interface {
	Fetch(ctx context.Context, url string, creds Credentials, page int) (*CatalogPage, error)
}
