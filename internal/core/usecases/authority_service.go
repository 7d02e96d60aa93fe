package usecases

import (
	"context"
	"fmt"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/ports"
)

// AuthorityService is the authority catalogue. Every call reads the store;
// authorities may be edited administratively at any time, so results are
// never cached.
type AuthorityService struct {
	authorities ports.AuthorityRepository
}

// NewAuthorityService creates a new AuthorityService.
func NewAuthorityService(authorities ports.AuthorityRepository) *AuthorityService {
	return &AuthorityService{authorities: authorities}
}

// List returns a snapshot of all authorities in insertion order.
func (s *AuthorityService) List(ctx context.Context) ([]domain.Authority, error) {
	auths, err := s.authorities.List(ctx)
	if err != nil {
		return nil, storageErr("list authorities", err)
	}
	return auths, nil
}

// GetByName returns an authority by its unique name.
func (s *AuthorityService) GetByName(ctx context.Context, name string) (*domain.Authority, error) {
	a, err := s.authorities.GetByName(ctx, name)
	if err != nil {
		return nil, storageErr("get authority "+name, err)
	}
	return a, nil
}

// Upsert validates and stores an authority record.
func (s *AuthorityService) Upsert(ctx context.Context, a *domain.Authority) error {
	if a.Name == "" {
		return fmt.Errorf("authority name is required")
	}
	if a.Type == "" {
		return fmt.Errorf("authority %s: type is required", a.Name)
	}
	if len(a.Area.Polygons) == 0 {
		return fmt.Errorf("authority %s: service area has no polygons", a.Name)
	}
	if err := s.authorities.Upsert(ctx, a); err != nil {
		return storageErr("upsert authority "+a.Name, err)
	}
	return nil
}
