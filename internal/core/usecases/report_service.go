package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/ports"
	"github.com/communityeye/communityeye/internal/pkg/metrics"
)

const (
	reportCacheTTL = 60
	cacheStripes   = 64
)

var (
	tracer   = otel.Tracer("github.com/communityeye/communityeye/internal/core/usecases")
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// CreateReportInput carries a report submission.
type CreateReportInput struct {
	Description string `form:"description" validate:"required"`
	Category    string `form:"category" validate:"required"`
	UserID      int64  `form:"-"`
	Image       *domain.ImageUpload
}

// ReportServiceConfig wires the collaborators of a ReportService. Notifier,
// Events and Cache are optional.
type ReportServiceConfig struct {
	Reports  ports.ReportRepository
	Upvotes  ports.UpvoteRepository
	Blobs    ports.BlobStore
	Images   ports.ImageExtractor
	Region   ports.ServiceRegion
	Router   *AuthorityRouter
	Notifier ports.NotificationService
	Events   ports.EventPublisher
	Cache    ports.CacheService
	Now      func() time.Time
}

// ReportService handles the report lifecycle: ingestion, browsing,
// resolution, upvoting and deletion.
type ReportService struct {
	reports  ports.ReportRepository
	upvotes  ports.UpvoteRepository
	blobs    ports.BlobStore
	images   ports.ImageExtractor
	region   ports.ServiceRegion
	router   *AuthorityRouter
	notifier ports.NotificationService
	events   ports.EventPublisher
	cache    ports.CacheService
	now      func() time.Time

	// gens counts invalidations per key stripe. Get only keeps a cached
	// copy if no invalidation of its stripe ran while it read the store.
	gens [cacheStripes]atomic.Uint64
}

// NewReportService creates a new ReportService.
func NewReportService(cfg ReportServiceConfig) *ReportService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		reports:  cfg.Reports,
		upvotes:  cfg.Upvotes,
		blobs:    cfg.Blobs,
		images:   cfg.Images,
		region:   cfg.Region,
		router:   cfg.Router,
		notifier: cfg.Notifier,
		events:   cfg.Events,
		cache:    cfg.Cache,
		now:      now,
	}
}

// Create runs the ingestion pipeline and stores a new report. The uploaded
// image is removed again if any step after the upload rejects the report.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*domain.Report, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Create",
		trace.WithAttributes(attribute.String("report.category", in.Category)))
	defer span.End()

	report, err := s.create(ctx, in)
	if err != nil {
		span.RecordError(err)
		metrics.ReportsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}
	return report, nil
}

func (s *ReportService) create(ctx context.Context, in CreateReportInput) (*domain.Report, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if err := validate.Struct(in); err != nil {
		return nil, missingFields(err)
	}
	if in.Image == nil || len(in.Image.Data) == 0 {
		return nil, domain.ErrMissingImage
	}

	img, err := s.images.Extract(in.Image)
	if err != nil {
		return nil, err
	}

	name := blobName(img.Name)
	url, err := s.blobs.Put(ctx, name, img.Data, img.ContentType)
	if err != nil {
		metrics.BlobOperations.WithLabelValues("put", "error").Inc()
		return nil, fmt.Errorf("upload image %s: %w: %w", name, domain.ErrStorageUnavailable, err)
	}
	metrics.BlobOperations.WithLabelValues("put", "ok").Inc()
	metrics.BlobUploadBytes.Observe(float64(len(img.Data)))

	if img.Geolocation == nil || validate.Struct(img.Geolocation) != nil {
		s.discardImage(ctx, name)
		return nil, domain.ErrGeolocationUnavailable
	}
	location := *img.Geolocation

	if !s.region.IsWithinServiceRegion(location) {
		s.discardImage(ctx, name)
		return nil, domain.ErrOutOfRegion
	}

	authority, err := s.router.DetermineAuthority(ctx, location, in.Category)
	if err != nil {
		s.discardImage(ctx, name)
		return nil, fmt.Errorf("route report: %w", err)
	}

	report := &domain.Report{
		UserID:      in.UserID,
		Description: in.Description,
		Category:    in.Category,
		Location:    location,
		Geolocation: domain.NewGeoFeature(location),
		Image: domain.ImageMetadata{
			URL:         url,
			Name:        name,
			Width:       img.Width,
			Height:      img.Height,
			FileSize:    int64(len(img.Data)),
			Geolocation: img.Geolocation,
		},
		Resolved:    false,
		UpvoteCount: 0,
		CreatedAt:   s.now().Unix(),
	}
	authorityName, authorityType := "none", "none"
	if authority != nil {
		authorityName = authority.Name
		report.AuthorityName = &authorityName
		authorityType = string(authority.Type)
	}

	id, err := s.reports.Insert(ctx, report)
	if err != nil {
		s.discardImage(ctx, name)
		return nil, storageErr("insert report", err)
	}
	report.ID = id
	metrics.ReportsCreated.WithLabelValues(authorityType).Inc()

	slog.InfoContext(ctx, "report created",
		"report_id", id, "category", report.Category, "authority", authorityName, "authority_type", authorityType)

	s.notify(ctx, report, authority)
	s.publish(ctx, domain.ReportCreated, report)
	return report, nil
}

// Get returns a single report, served from cache when possible.
func (s *ReportService) Get(ctx context.Context, id string) (*domain.Report, error) {
	key := reportCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var r domain.Report
			if err := json.Unmarshal(data, &r); err == nil {
				metrics.CacheHits.WithLabelValues("report").Inc()
				return &r, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("report").Inc()
	}

	gen := s.generation(id)
	before := gen.Load()
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get report "+id, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(r); err == nil && gen.Load() == before {
			_ = s.cache.Set(ctx, key, data, reportCacheTTL)
			// A mutation that landed during the Set may have deleted the key
			// before the stale copy was written.
			if gen.Load() != before {
				_ = s.cache.Delete(ctx, key)
			}
		}
	}
	return r, nil
}

// List returns every report. An empty slice is not an error.
func (s *ReportService) List(ctx context.Context) ([]domain.Report, error) {
	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, storageErr("list reports", err)
	}
	return reports, nil
}

// ListByUser returns the reports submitted by userID.
func (s *ReportService) ListByUser(ctx context.Context, userID int64) ([]domain.Report, error) {
	reports, err := s.reports.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("list reports of user %d", userID), err)
	}
	return reports, nil
}

// Resolve marks a report resolved. Resolving an already resolved report
// succeeds without change.
func (s *ReportService) Resolve(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ReportService.Resolve",
		trace.WithAttributes(attribute.String("report.id", id)))
	defer span.End()

	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return storageErr("get report "+id, err)
	}
	if err := s.reports.MarkResolved(ctx, id); err != nil {
		return storageErr("resolve report "+id, err)
	}
	s.invalidate(ctx, id)

	report.Resolved = true
	s.publish(ctx, domain.ReportResolved, report)
	return nil
}

// Upvote records one upvote per user and report. A user who already upvoted
// gets ErrAlreadyUpvoted even if the report is gone by now. The store's
// uniqueness constraint decides concurrent attempts; the Exists check only
// saves a write in the common case. If the counter update does not take effect the
// upvote record is kept and ErrUpdateFailed is returned.
func (s *ReportService) Upvote(ctx context.Context, id string, userID int64) error {
	ctx, span := tracer.Start(ctx, "ReportService.Upvote",
		trace.WithAttributes(attribute.String("report.id", id), attribute.Int64("user.id", userID)))
	defer span.End()

	err := s.upvote(ctx, id, userID)
	switch {
	case err == nil:
		metrics.Upvotes.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrAlreadyUpvoted):
		metrics.Upvotes.WithLabelValues("duplicate").Inc()
	default:
		metrics.Upvotes.WithLabelValues("error").Inc()
		span.RecordError(err)
	}
	return err
}

func (s *ReportService) upvote(ctx context.Context, id string, userID int64) error {
	exists, err := s.upvotes.Exists(ctx, userID, id)
	if err != nil {
		return storageErr("check upvote", err)
	}
	if exists {
		return domain.ErrAlreadyUpvoted
	}

	if _, err := s.reports.GetByID(ctx, id); err != nil {
		return storageErr("get report "+id, err)
	}

	err = s.upvotes.Insert(ctx, &domain.Upvote{UserID: userID, ReportID: id, Timestamp: s.now()})
	if errors.Is(err, domain.ErrDuplicate) {
		return domain.ErrAlreadyUpvoted
	}
	if err != nil {
		return storageErr("insert upvote", err)
	}

	n, err := s.reports.IncrementUpvotes(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && n == 0) {
		slog.WarnContext(ctx, "upvote recorded but count not incremented",
			"report_id", id, "user_id", userID)
		return fmt.Errorf("increment upvotes of %s: %w", id, domain.ErrUpdateFailed)
	}
	if err != nil {
		return storageErr("increment upvotes", err)
	}
	s.invalidate(ctx, id)

	s.publish(ctx, domain.ReportUpvoted, &domain.Report{ID: id, UserID: userID})
	return nil
}

// Delete removes a report together with its image. The image goes first;
// if that fails the record stays and an error is returned.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ReportService.Delete",
		trace.WithAttributes(attribute.String("report.id", id)))
	defer span.End()

	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return storageErr("get report "+id, err)
	}

	if err := s.removeImage(ctx, report.Image.Name); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete report %s: %w", id, err)
	}

	if err := s.reports.Delete(ctx, id); err != nil {
		return storageErr("delete report "+id, err)
	}
	s.invalidate(ctx, id)

	slog.InfoContext(ctx, "report deleted", "report_id", id, "image", report.Image.Name)
	s.publish(ctx, domain.ReportDeleted, report)
	return nil
}

// removeImage deletes a blob that must exist.
func (s *ReportService) removeImage(ctx context.Context, name string) error {
	exists, err := s.blobs.Exists(ctx, name)
	if err != nil {
		metrics.BlobOperations.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("check image %s: %w: %w", name, domain.ErrStorageUnavailable, err)
	}
	if !exists {
		metrics.BlobOperations.WithLabelValues("delete", "missing").Inc()
		return fmt.Errorf("image %s not found in blob store: %w", name, domain.ErrStorageUnavailable)
	}
	if err := s.blobs.Delete(ctx, name); err != nil {
		metrics.BlobOperations.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("delete image %s: %w: %w", name, domain.ErrStorageUnavailable, err)
	}
	metrics.BlobOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}

// discardImage rolls back an upload. Failures are logged only; the caller
// is already returning the rejection that triggered the rollback.
func (s *ReportService) discardImage(ctx context.Context, name string) {
	if err := s.blobs.Delete(ctx, name); err != nil {
		metrics.BlobOperations.WithLabelValues("rollback", "error").Inc()
		slog.ErrorContext(ctx, "image rollback failed", "image", name, "error", err)
		return
	}
	metrics.BlobOperations.WithLabelValues("rollback", "ok").Inc()
}

func (s *ReportService) notify(ctx context.Context, r *domain.Report, a *domain.Authority) {
	if a == nil || s.notifier == nil {
		return
	}
	if a.ContactEmail == "" {
		slog.InfoContext(ctx, "authority has no contact address, skipping notification",
			"authority", a.Name, "report_id", r.ID)
		metrics.Notifications.WithLabelValues("skipped").Inc()
		return
	}

	err := s.notifier.NotifyAuthority(ctx, &domain.AuthorityNotification{
		ReportID:      r.ID,
		AuthorityName: a.Name,
		ContactEmail:  a.ContactEmail,
		Description:   r.Description,
		ImageURL:      r.Image.URL,
	})
	if err != nil {
		slog.WarnContext(ctx, "authority notification failed",
			"authority", a.Name, "report_id", r.ID, "error", err)
		metrics.Notifications.WithLabelValues("failed").Inc()
		return
	}
	metrics.Notifications.WithLabelValues("sent").Inc()
}

func (s *ReportService) publish(ctx context.Context, typ domain.ReportEventType, r *domain.Report) {
	if s.events == nil {
		return
	}
	ev := &domain.ReportEvent{
		Type:          typ,
		ReportID:      r.ID,
		UserID:        r.UserID,
		Category:      r.Category,
		AuthorityName: r.AuthorityName,
		UpvoteCount:   r.UpvoteCount,
		OccurredAt:    s.now().UTC(),
	}
	if typ == domain.ReportCreated {
		loc := r.Location
		ev.Location = &loc
	}
	if err := s.events.PublishReportEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "publish report event failed", "type", typ, "report_id", r.ID, "error", err)
	}
}

func (s *ReportService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.generation(id).Add(1)
		_ = s.cache.Delete(ctx, reportCacheKey(id))
	}
}

func (s *ReportService) generation(id string) *atomic.Uint64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.gens[h.Sum32()%cacheStripes]
}

func reportCacheKey(id string) string {
	return "report:" + id
}

// blobName prefixes the client's file name with a random id so two uploads
// of IMG_0001.jpg never overwrite each other.
func blobName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "image.jpg"
	}
	return uuid.NewString() + "-" + base
}

func missingFields(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate report: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &domain.MissingFieldsError{Fields: fields}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, domain.ErrMissingImage):
		return "missing_image"
	case errors.Is(err, domain.ErrUnreadableImage):
		return "unreadable_image"
	case errors.Is(err, domain.ErrGeolocationUnavailable):
		return "no_geolocation"
	case errors.Is(err, domain.ErrOutOfRegion):
		return "out_of_region"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "storage"
	default:
		return "other"
	}
}
