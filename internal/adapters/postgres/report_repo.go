package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/communityeye/communityeye/internal/core/domain"
)

const reportColumns = `id::text, user_id, description, category, lat, lon, authority,
	image, resolved, upvote_count, created_at`

// ReportRepo implements ports.ReportRepository with pgx.
type ReportRepo struct {
	db *DB
}

// NewReportRepo creates a new ReportRepo.
func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Insert stores a report and returns the generated UUID.
func (r *ReportRepo) Insert(ctx context.Context, rep *domain.Report) (string, error) {
	var id string
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO reports (user_id, description, category, lat, lon, authority,
		                     image, resolved, upvote_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text
	`, rep.UserID, rep.Description, rep.Category, rep.Location.Lat, rep.Location.Lon,
		rep.AuthorityName, rep.Image, rep.Resolved, rep.UpvoteCount, rep.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", mapErr(err)
	}
	return id, nil
}

// GetByID returns a report by UUID.
func (r *ReportRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	rep, err := scanReport(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return rep, nil
}

// List returns every report, oldest first.
func (r *ReportRepo) List(ctx context.Context) ([]domain.Report, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collectReports(rows)
}

// ListByUser returns the reports of one user, oldest first.
func (r *ReportRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Report, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectReports(rows)
}

func (r *ReportRepo) MarkResolved(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE reports SET resolved = TRUE WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReportRepo) IncrementUpvotes(ctx context.Context, id string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reports SET upvote_count = upvote_count + 1 WHERE id = $1`, id)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var rep domain.Report
	err := row.Scan(
		&rep.ID, &rep.UserID, &rep.Description, &rep.Category,
		&rep.Location.Lat, &rep.Location.Lon, &rep.AuthorityName,
		&rep.Image, &rep.Resolved, &rep.UpvoteCount, &rep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rep.Geolocation = domain.NewGeoFeature(rep.Location)
	return &rep, nil
}

func collectReports(rows pgx.Rows) ([]domain.Report, error) {
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *rep)
	}
	return reports, rows.Err()
}
