package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrEmptyTitle     = errors.New("title cannot be empty")
	ErrInvalidOwnerID = errors.New("owner ID cannot be nil")
	ErrTitleTooLong   = errors.New("title exceeds maximum length of 255 characters")
)

const maxTitleLength = 255

// Collection is a user's named set of movies.
// Membership is held by the collection store, not on this struct.
type Collection struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCollection creates a new Collection with a generated ID.
func NewCollection(ownerID uuid.UUID, title, description string) (*Collection, error) {
	if ownerID == uuid.Nil {
		return nil, ErrInvalidOwnerID
	}
	title = strings.TrimSpace(title)
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Collection{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ValidateTitle checks a collection title.
func ValidateTitle(title string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// Rename sets a new title and description.
func (c *Collection) Rename(title, description string) error {
	title = strings.TrimSpace(title)
	if err := ValidateTitle(title); err != nil {
		return err
	}
	c.Title = title
	c.Description = description
	c.UpdatedAt = time.Now()
	return nil
}

// IsOwnedBy reports whether the collection belongs to the given user.
func (c *Collection) IsOwnedBy(userID uuid.UUID) bool {
	return c.OwnerID == userID
}
