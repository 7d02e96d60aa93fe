package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/communityeye/communityeye/internal/adapters/http"
	"github.com/communityeye/communityeye/internal/adapters/memory"
	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/usecases"
)

const testSecret = "test-secret"

// ---- Test doubles ----

type stubExtractor struct {
	geo *domain.GeoPoint
}

func (s stubExtractor) Extract(u *domain.ImageUpload) (*domain.ProcessedImage, error) {
	if bytes.HasPrefix(u.Data, []byte("garbage")) {
		return nil, domain.ErrUnreadableImage
	}
	return &domain.ProcessedImage{
		Name:        u.Filename,
		ContentType: "image/jpeg",
		Data:        u.Data,
		Width:       640,
		Height:      480,
		Geolocation: s.geo,
	}, nil
}

type boxRegion struct{}

func (boxRegion) IsWithinServiceRegion(p domain.GeoPoint) bool {
	return p.Lat >= 54.0 && p.Lat <= 55.4 && p.Lon >= -8.2 && p.Lon <= -5.4
}

func area(minLat, minLon, maxLat, maxLon float64) domain.ServiceArea {
	return domain.ServiceArea{
		Type: domain.GeometryPolygon,
		Polygons: domain.MultiPolygon{{Rings: []domain.Ring{{
			{Lat: minLat, Lon: minLon}, {Lat: minLat, Lon: maxLon},
			{Lat: maxLat, Lon: maxLon}, {Lat: maxLat, Lon: minLon},
			{Lat: minLat, Lon: minLon},
		}}}},
	}
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(geo *domain.GeoPoint, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	authorities := usecases.NewAuthorityService(memory.NewAuthorityRepo(
		domain.Authority{Name: "Belfast City Council", Type: domain.CouncilAuthority, Area: area(54.53, -6.05, 54.67, -5.80)},
		domain.Authority{Name: "DfI Eastern", Type: domain.InfrastructureAuthority, Area: area(54.2, -6.5, 55.0, -5.4)},
	))
	router := usecases.NewAuthorityRouter(authorities, domain.NewCategoryTable(domain.DefaultCategoryBuckets()))

	d := &handler.Dependencies{
		Reports: usecases.NewReportService(usecases.ReportServiceConfig{
			Reports: memory.NewReportRepo(),
			Upvotes: memory.NewUpvoteRepo(),
			Blobs:   memory.NewBlobStore("https://img.example"),
			Images:  stubExtractor{geo: geo},
			Region:  boxRegion{},
			Router:  router,
		}),
		Authorities:   authorities,
		Router:        router,
		Auth:          handler.AuthConfig{Secret: testSecret, ProtectResolve: true},
		PublicBaseURL: "http://reports.example/",
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func belfast() *domain.GeoPoint {
	return &domain.GeoPoint{Lat: 54.597, Lon: -5.930}
}

func token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := handler.SignToken(testSecret, userID)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// reportForm builds a multipart submission; empty values are omitted.
func reportForm(t *testing.T, description, category string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if description != "" {
		_ = w.WriteField("description", description)
	}
	if category != "" {
		_ = w.WriteField("category", category)
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "IMG_0001.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(image)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func createReport(t *testing.T, app *fiber.App, userID int64) handler.CreateReportResponse {
	t.Helper()
	body, ct := reportForm(t, "Pothole on Royal Avenue", "Potholes", []byte("jpeg"))
	req := httptest.NewRequest("POST", "/v1/reports", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("x-access-token", token(t, userID))

	resp := do(t, app, req)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var out handler.CreateReportResponse
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func authed(t *testing.T, method, target string, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("x-access-token", token(t, userID))
	return req
}

func decodeError(t *testing.T, resp *http.Response) handler.APIError {
	t.Helper()
	var e handler.APIError
	if err := json.Unmarshal(readBody(t, resp.Body), &e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	resp := do(t, app, httptest.NewRequest("GET", "/v1/health", nil))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_InMemory(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	resp := do(t, app, httptest.NewRequest("GET", "/v1/ready", nil))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestReady_StoreDown(t *testing.T) {
	app := setupApp(makeDeps(belfast(), func(d *handler.Dependencies) { d.Store = downStore{} }))
	resp := do(t, app, httptest.NewRequest("GET", "/v1/ready", nil))
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Checks["database"] != "error: connection refused" {
		t.Errorf("unexpected database check %q", body.Checks["database"])
	}
	if body.Checks["nats"] != "not configured" {
		t.Errorf("unexpected nats check %q", body.Checks["nats"])
	}
}

// ---- Auth ----

func TestReports_RequireToken(t *testing.T) {
	app := setupApp(makeDeps(belfast()))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/reports", nil))
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if e := decodeError(t, resp); e.Code != "unauthorized" || e.RequestID == "" {
		t.Errorf("unexpected error body: %+v", e)
	}

	req := httptest.NewRequest("GET", "/v1/reports", nil)
	req.Header.Set("x-access-token", "not-a-jwt")
	if resp := do(t, app, req); resp.StatusCode != 401 {
		t.Errorf("expected 401 for invalid token, got %d", resp.StatusCode)
	}

	forged, _ := handler.SignToken("other-secret", 1)
	req = httptest.NewRequest("GET", "/v1/reports", nil)
	req.Header.Set("x-access-token", forged)
	if resp := do(t, app, req); resp.StatusCode != 401 {
		t.Errorf("expected 401 for token signed with another key, got %d", resp.StatusCode)
	}
}

// ---- Create ----

func TestCreateReport_Success(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	out := createReport(t, app, 7)

	if out.ID == "" {
		t.Fatal("expected id")
	}
	if out.URL != "http://reports.example/v1/reports/"+out.ID {
		t.Errorf("unexpected url %s", out.URL)
	}

	resp := do(t, app, authed(t, "GET", "/v1/reports/"+out.ID, 7))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var r domain.Report
	if err := json.Unmarshal(readBody(t, resp.Body), &r); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if r.UserID != 7 {
		t.Errorf("expected user id from token, got %d", r.UserID)
	}
	if r.AuthorityName == nil || *r.AuthorityName != "DfI Eastern" {
		t.Errorf("expected DfI Eastern, got %v", r.AuthorityName)
	}
}

func TestCreateReport_MissingFields(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	body, ct := reportForm(t, "", "Potholes", []byte("jpeg"))
	req := httptest.NewRequest("POST", "/v1/reports", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("x-access-token", token(t, 1))

	resp := do(t, app, req)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	e := decodeError(t, resp)
	if e.Code != "missing_fields" {
		t.Errorf("expected missing_fields, got %s", e.Code)
	}
	if len(e.MissingFields) != 1 || e.MissingFields[0] != "description" {
		t.Errorf("expected [description], got %v", e.MissingFields)
	}
}

func TestCreateReport_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		geo    *domain.GeoPoint
		image  []byte
		status int
		code   string
	}{
		{"missing image", belfast(), nil, 422, "missing_image"},
		{"unreadable image", belfast(), []byte("garbage"), 422, "unreadable_image"},
		{"no geolocation", nil, []byte("jpeg"), 400, "geolocation_unavailable"},
		{"out of region", &domain.GeoPoint{Lat: 0, Lon: 0}, []byte("jpeg"), 400, "out_of_region"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(makeDeps(tt.geo))
			body, ct := reportForm(t, "Broken light", "Street lighting fault", tt.image)
			req := httptest.NewRequest("POST", "/v1/reports", body)
			req.Header.Set("Content-Type", ct)
			req.Header.Set("x-access-token", token(t, 1))

			resp := do(t, app, req)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if e := decodeError(t, resp); e.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, e.Code)
			}
		})
	}
}

// ---- Browse ----

func TestListReports(t *testing.T) {
	app := setupApp(makeDeps(belfast()))

	resp := do(t, app, authed(t, "GET", "/v1/reports", 1))
	if got := strings.TrimSpace(string(readBody(t, resp.Body))); got != "[]" {
		t.Errorf("expected empty array, got %s", got)
	}

	createReport(t, app, 1)
	createReport(t, app, 2)
	createReport(t, app, 1)

	resp = do(t, app, authed(t, "GET", "/v1/reports", 1))
	var all []domain.Report
	if err := json.Unmarshal(readBody(t, resp.Body), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 reports, got %d", len(all))
	}

	resp = do(t, app, authed(t, "GET", "/v1/reports/user/1", 1))
	var mine []domain.Report
	if err := json.Unmarshal(readBody(t, resp.Body), &mine); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 reports for user 1, got %d", len(mine))
	}
}

func TestListReports_Paginated(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	for i := 0; i < 3; i++ {
		createReport(t, app, 1)
	}

	resp := do(t, app, authed(t, "GET", "/v1/reports?limit=2&offset=0", 1))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var page struct {
		Data       []domain.Report    `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 2 || page.Pagination.Total != 3 {
		t.Errorf("expected 2 of 3, got %d of %d", len(page.Data), page.Pagination.Total)
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %q", link)
	}
}

func TestListUserReports_BadID(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	resp := do(t, app, authed(t, "GET", "/v1/reports/user/abc", 1))
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	resp := do(t, app, authed(t, "GET", "/v1/reports/404", 1))
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Mutations ----

func TestUpvote(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	out := createReport(t, app, 1)

	if resp := do(t, app, authed(t, "POST", "/v1/reports/"+out.ID+"/upvote", 9)); resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp := do(t, app, authed(t, "POST", "/v1/reports/"+out.ID+"/upvote", 9))
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if e := decodeError(t, resp); e.Code != "already_upvoted" {
		t.Errorf("expected already_upvoted, got %s", e.Code)
	}
	if resp := do(t, app, authed(t, "POST", "/v1/reports/nope/upvote", 9)); resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestResolve_Protected(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	out := createReport(t, app, 1)

	if resp := do(t, app, httptest.NewRequest("POST", "/v1/reports/"+out.ID+"/resolve", nil)); resp.StatusCode != 401 {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
	for i := 0; i < 2; i++ {
		if resp := do(t, app, authed(t, "POST", "/v1/reports/"+out.ID+"/resolve", 1)); resp.StatusCode != 200 {
			t.Errorf("expected 200 on resolve #%d, got %d", i+1, resp.StatusCode)
		}
	}
}

func TestResolve_Unprotected(t *testing.T) {
	app := setupApp(makeDeps(belfast(), func(d *handler.Dependencies) {
		d.Auth.ProtectResolve = false
	}))
	out := createReport(t, app, 1)

	if resp := do(t, app, httptest.NewRequest("POST", "/v1/reports/"+out.ID+"/resolve", nil)); resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp := do(t, app, httptest.NewRequest("POST", "/v1/reports/missing/resolve", nil)); resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteReport(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	out := createReport(t, app, 1)

	if resp := do(t, app, authed(t, "DELETE", "/v1/reports/"+out.ID, 1)); resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp := do(t, app, authed(t, "DELETE", "/v1/reports/"+out.ID, 1)); resp.StatusCode != 404 {
		t.Errorf("expected 404 on second delete, got %d", resp.StatusCode)
	}
}

// ---- Catalogue ----

func TestCategories(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	resp := do(t, app, httptest.NewRequest("GET", "/v1/categories", nil))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var buckets []domain.CategoryBucket
	if err := json.Unmarshal(readBody(t, resp.Body), &buckets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(buckets) != 2 {
		t.Errorf("expected 2 buckets, got %d", len(buckets))
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestAuthorities(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	resp := do(t, app, httptest.NewRequest("GET", "/v1/authorities", nil))
	var auths []domain.Authority
	if err := json.Unmarshal(readBody(t, resp.Body), &auths); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(auths) != 2 || auths[0].Name != "Belfast City Council" {
		t.Errorf("unexpected authorities: %+v", auths)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	resp := do(t, app, httptest.NewRequest("GET", "/v1/categories", nil))
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/categories", nil)
	req.Header.Set("If-None-Match", `W/"other", `+etag)
	if resp := do(t, app, req); resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- GraphQL ----

func TestGraphQL_Reports(t *testing.T) {
	app := setupApp(makeDeps(belfast()))
	createReport(t, app, 3)

	payload := `{"query":"{ reports { id category authority } categories { authority_type } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-access-token", token(t, 3))

	resp := do(t, app, req)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Data struct {
			Reports []struct {
				ID        string  `json:"id"`
				Category  string  `json:"category"`
				Authority *string `json:"authority"`
			} `json:"reports"`
			Categories []struct {
				AuthorityType string `json:"authority_type"`
			} `json:"categories"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected graphql errors: %v", result.Errors)
	}
	if len(result.Data.Reports) != 1 || result.Data.Reports[0].Category != "Potholes" {
		t.Errorf("unexpected reports: %+v", result.Data.Reports)
	}
	if len(result.Data.Categories) != 2 {
		t.Errorf("expected 2 category buckets, got %d", len(result.Data.Categories))
	}
}
