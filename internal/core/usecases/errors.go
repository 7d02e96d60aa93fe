package usecases

import (
	"errors"
	"fmt"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// storageErr wraps a store failure. Not-found passes through unchanged;
// anything else is reported as domain.ErrStorageUnavailable.
func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
