package repository

import "errors"

var (
	// ErrMovieNotFound is returned when no movie has the requested external ID.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrDuplicateMovie is returned when a movie with the same external ID already exists.
	ErrDuplicateMovie = errors.New("movie already exists")
	// ErrCollectionNotFound is returned when a collection cannot be found.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDuplicateCollectionTitle is returned when the owner already has a collection with the title.
	ErrDuplicateCollectionTitle = errors.New("collection title already in use")
	// ErrBucketNotFound is returned when the configured object storage bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrLockNotAcquired is returned when a lock could not be taken before the deadline.
	ErrLockNotAcquired = errors.New("lock not acquired")
)
