package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/pkg/geospatial"
)

// AuthorityRepo implements ports.AuthorityRepository. Service areas are
// stored as GeoJSON geometry in a JSONB column.
type AuthorityRepo struct {
	db *DB
}

func NewAuthorityRepo(db *DB) *AuthorityRepo {
	return &AuthorityRepo{db: db}
}

func (r *AuthorityRepo) Upsert(ctx context.Context, a *domain.Authority) error {
	area, err := geospatial.EncodeArea(a.Area)
	if err != nil {
		return fmt.Errorf("encode area of %s: %w", a.Name, err)
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO authorities (authority_name, authority_type, area, email_address)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (authority_name) DO UPDATE
		SET authority_type = EXCLUDED.authority_type,
		    area = EXCLUDED.area,
		    email_address = EXCLUDED.email_address
		RETURNING id::text
	`, a.Name, string(a.Type), area, a.ContactEmail).Scan(&a.ID)
}

func (r *AuthorityRepo) GetByName(ctx context.Context, name string) (*domain.Authority, error) {
	var (
		a    domain.Authority
		typ  string
		area []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id::text, authority_name, authority_type, area, COALESCE(email_address, '')
		FROM authorities WHERE authority_name = $1
	`, name).Scan(&a.ID, &a.Name, &typ, &area, &a.ContactEmail)
	if err != nil {
		return nil, mapErr(err)
	}
	a.Type = domain.AuthorityType(typ)
	if a.Area, err = geospatial.DecodeArea(area); err != nil {
		return nil, fmt.Errorf("authority %s: %w", a.Name, err)
	}
	return &a, nil
}

// List returns authorities in insertion order. Records whose area does not
// decode are logged and left out.
func (r *AuthorityRepo) List(ctx context.Context) ([]domain.Authority, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, authority_name, authority_type, area, COALESCE(email_address, '')
		FROM authorities ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auths []domain.Authority
	for rows.Next() {
		var (
			a    domain.Authority
			typ  string
			area []byte
		)
		if err := rows.Scan(&a.ID, &a.Name, &typ, &area, &a.ContactEmail); err != nil {
			return nil, err
		}
		a.Type = domain.AuthorityType(typ)
		if a.Area, err = geospatial.DecodeArea(area); err != nil {
			slog.WarnContext(ctx, "skipping authority with malformed area", "name", a.Name, "error", err)
			continue
		}
		auths = append(auths, a)
	}
	return auths, rows.Err()
}
