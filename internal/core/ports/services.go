package ports

import (
	"context"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// BlobStore stores image bytes keyed by name.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (url string, err error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// ServiceRegion decides whether a location is inside the served area.
type ServiceRegion interface {
	IsWithinServiceRegion(p domain.GeoPoint) bool
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishReportEvent(ctx context.Context, event *domain.ReportEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NotificationService tells an authority about a report assigned to it.
type NotificationService interface {
	NotifyAuthority(ctx context.Context, n *domain.AuthorityNotification) error
}

// ImageExtractor normalises an upload and reads its dimensions and GPS tags.
// Decode failures wrap domain.ErrUnreadableImage.
type ImageExtractor interface {
	Extract(upload *domain.ImageUpload) (*domain.ProcessedImage, error)
}
