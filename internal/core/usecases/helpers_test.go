package usecases_test

import (
	"context"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// rect builds a single-polygon service area from a lat/lon box.
func rect(minLat, minLon, maxLat, maxLon float64) domain.ServiceArea {
	ring := domain.Ring{
		{Lat: minLat, Lon: minLon},
		{Lat: minLat, Lon: maxLon},
		{Lat: maxLat, Lon: maxLon},
		{Lat: maxLat, Lon: minLon},
		{Lat: minLat, Lon: minLon},
	}
	return domain.ServiceArea{
		Type:     domain.GeometryPolygon,
		Polygons: domain.MultiPolygon{{Rings: []domain.Ring{ring}}},
	}
}

// --- Mock AuthorityRepository ---

type mockAuthorityRepo struct {
	listFn    func(ctx context.Context) ([]domain.Authority, error)
	listCalls int
}

func (m *mockAuthorityRepo) List(ctx context.Context) ([]domain.Authority, error) {
	m.listCalls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockAuthorityRepo) GetByName(ctx context.Context, name string) (*domain.Authority, error) {
	return nil, domain.ErrNotFound
}

func (m *mockAuthorityRepo) Upsert(ctx context.Context, a *domain.Authority) error { return nil }

var (
	belfast      = domain.GeoPoint{Lat: 54.597, Lon: -5.930}
	londonderry  = domain.GeoPoint{Lat: 54.996, Lon: -7.309}
	belfastCC    = domain.Authority{Name: "Belfast City Council", Type: domain.CouncilAuthority, Area: rect(54.53, -6.05, 54.67, -5.80), ContactEmail: "reports@belfastcity.example"}
	derryCC      = domain.Authority{Name: "Derry City and Strabane", Type: domain.CouncilAuthority, Area: rect(54.6, -7.6, 55.2, -7.0)}
	dfiEastern   = domain.Authority{Name: "DfI Eastern", Type: domain.InfrastructureAuthority, Area: rect(54.2, -6.5, 55.0, -5.4), ContactEmail: "eastern@dfi.example"}
	catalogueAll = []domain.Authority{belfastCC, derryCC, dfiEastern}
)

// --- Mock ServiceRegion ---

type regionFunc func(p domain.GeoPoint) bool

func (f regionFunc) IsWithinServiceRegion(p domain.GeoPoint) bool { return f(p) }

// northernIreland approximates the service region by its bounding box.
var northernIreland = regionFunc(func(p domain.GeoPoint) bool {
	return p.Lat >= 54.0 && p.Lat <= 55.4 && p.Lon >= -8.2 && p.Lon <= -5.4
})

// --- Mock ImageExtractor ---

type mockExtractor struct {
	extractFn func(u *domain.ImageUpload) (*domain.ProcessedImage, error)
}

func (m *mockExtractor) Extract(u *domain.ImageUpload) (*domain.ProcessedImage, error) {
	return m.extractFn(u)
}

func geotagged(p *domain.GeoPoint) *mockExtractor {
	return &mockExtractor{extractFn: func(u *domain.ImageUpload) (*domain.ProcessedImage, error) {
		return &domain.ProcessedImage{
			Name:        u.Filename,
			ContentType: "image/jpeg",
			Data:        u.Data,
			Width:       4032,
			Height:      3024,
			Geolocation: p,
		}, nil
	}}
}

// --- Recording NotificationService / EventPublisher ---

type recordingNotifier struct {
	sent []domain.AuthorityNotification
	err  error
}

func (n *recordingNotifier) NotifyAuthority(ctx context.Context, a *domain.AuthorityNotification) error {
	n.sent = append(n.sent, *a)
	return n.err
}

type recordingEvents struct {
	events []domain.ReportEvent
}

func (e *recordingEvents) PublishReportEvent(ctx context.Context, ev *domain.ReportEvent) error {
	e.events = append(e.events, *ev)
	return nil
}
