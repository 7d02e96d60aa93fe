package domain

import (
	"errors"
	"strings"
)

var (
	ErrMissingFields          = errors.New("missing required fields")
	ErrMissingImage           = errors.New("no image provided")
	ErrUnreadableImage        = errors.New("image could not be decoded")
	ErrGeolocationUnavailable = errors.New("no geolocation data found in image")
	ErrOutOfRegion            = errors.New("location is outside the service region")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyUpvoted         = errors.New("report already upvoted by user")
	ErrUpdateFailed           = errors.New("update did not take effect")
	ErrStorageUnavailable     = errors.New("storage unavailable")

	// ErrDuplicate is returned by stores when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

// MissingFieldsError lists the required form fields that were absent.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return ErrMissingFields.Error() + ": " + strings.Join(e.Fields, ", ")
}

// Is makes errors.Is(err, ErrMissingFields) match.
func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}
