package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skylog/internal/catalogue"
	"github.com/MrSnakeDoc/skylog/internal/domain"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/mw"
	"github.com/MrSnakeDoc/skylog/internal/logger"
	"github.com/MrSnakeDoc/skylog/internal/observation"
	"github.com/MrSnakeDoc/skylog/internal/store/memory"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func newTestDeps(t *testing.T) (deps.Deps, *memory.Slot) {
	t.Helper()

	entries, err := catalogue.NewLoader("").Load()
	if err != nil {
		t.Fatalf("catalogue Load() error = %v", err)
	}
	slot := memory.New("observations")
	store := observation.New(slot)
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("store Load() error = %v", err)
	}

	now := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)
	return deps.Deps{
		Logger:         logger.Nop(),
		StartTime:      now.Add(-time.Minute),
		TimeNow:        func() time.Time { return now },
		Version:        "test",
		Store:          store,
		Catalogue:      catalogue.New(entries, ""),
		StorageBackend: "memory",
		CalendarURL:    "https://calendar.example.com",
		MaxPhotoBytes:  1 << 20,
	}, slot
}

func do(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func jsonRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func multipartRequest(t *testing.T, fields map[string]string, photo []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mpw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="m31.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mpw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(photo)
	}
	if err := mpw.Close(); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/observations", &body)
	r.Header.Set("Content-Type", mpw.FormDataContentType())
	return r
}

func TestHealthz(t *testing.T) {
	d, _ := newTestDeps(t)
	rec := do(Healthz(d), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var resp healthzResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || resp.Status != "ok" || resp.Version != "test" || resp.UptimeSeconds != 60 {
		t.Errorf("healthz = %d %+v", rec.Code, resp)
	}
}

type unreachableSlot struct{ *memory.Slot }

func (unreachableSlot) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyz(t *testing.T) {
	d, slot := newTestDeps(t)
	if rec := do(Readyz(d), httptest.NewRequest(http.MethodGet, "/readyz", nil)); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d, want 200", rec.Code)
	}

	d.Store = observation.New(unreachableSlot{slot})
	if rec := do(Readyz(d), httptest.NewRequest(http.MethodGet, "/readyz", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with a dead slot = %d, want 503", rec.Code)
	}
}

func TestInfra(t *testing.T) {
	d, slot := newTestDeps(t)

	var resp infraResponse
	rec := do(Infra(d), httptest.NewRequest(http.MethodGet, "/infra", nil))
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Mode != "operational" || !resp.Components["storage"].OK {
		t.Errorf("infra = %+v", resp)
	}
	if n := resp.Components["catalogue"].Count; n == nil || *n != d.Catalogue.Len() {
		t.Errorf("catalogue count = %v", n)
	}

	d.Store = observation.New(unreachableSlot{slot})
	rec = do(Infra(d), httptest.NewRequest(http.MethodGet, "/infra", nil))
	resp = infraResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Mode != "degraded" {
		t.Errorf("mode = %s, want degraded", resp.Mode)
	}
}

func TestCatalogueAPI(t *testing.T) {
	d, _ := newTestDeps(t)
	r := chi.NewRouter()
	r.Get("/api/catalogue", ListCatalogue(d))
	r.Get("/api/catalogue/{id}", GetCatalogueEntry(d))

	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/catalogue", nil))
	var list []catalogueEntryResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != d.Catalogue.Len() || list[0].ID != 1 || list[0].EncyclopediaURL == "" {
		t.Errorf("catalogue list = %d entries, first %+v", len(list), list[0])
	}

	rec = do(r, httptest.NewRequest(http.MethodGet, "/api/catalogue/31", nil))
	var one catalogueEntryResponse
	if err := json.NewDecoder(rec.Body).Decode(&one); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || one.ID != 31 || one.Type != domain.TypeGalaxy {
		t.Errorf("GET /api/catalogue/31 = %d %+v", rec.Code, one)
	}

	for _, id := range []string{"999", "abc"} {
		rec = do(r, httptest.NewRequest(http.MethodGet, "/api/catalogue/"+id, nil))
		if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"error"`) {
			t.Errorf("GET /api/catalogue/%s = %d %s", id, rec.Code, rec.Body.String())
		}
	}
}

func TestWiki(t *testing.T) {
	d, _ := newTestDeps(t)
	r := chi.NewRouter()
	r.Get("/catalogue/{id}/wiki", Wiki(d))

	rec := do(r, httptest.NewRequest(http.MethodGet, "/catalogue/42/wiki", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "https://en.wikipedia.org/wiki/M42" {
		t.Errorf("wiki = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := do(r, httptest.NewRequest(http.MethodGet, "/catalogue/999/wiki", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("unknown wiki = %d, want 404", rec.Code)
	}
}

func TestCreateObservationAPI(t *testing.T) {
	d, _ := newTestDeps(t)
	h := CreateObservation(d)

	rec := do(h, jsonRequest(t, http.MethodPost, "/api/observations", map[string]any{
		"photoData": "imgA", "date": "2024-05-01", "category": "Galaxy",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	var obs domain.Observation
	if err := json.NewDecoder(rec.Body).Decode(&obs); err != nil {
		t.Fatal(err)
	}
	if obs.ID == 0 || obs.Category != domain.CategoryGalaxy || !obs.Keep {
		t.Errorf("created = %+v", obs)
	}
	if d.Store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Store.Len())
	}
}

func TestCreateObservationAPIErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"missing photo", `{"date":"2024-05-01"}`, http.StatusUnprocessableEntity, "missing_photo"},
		{"missing date", `{"photoData":"imgA"}`, http.StatusUnprocessableEntity, "missing_date"},
		{"bad date", `{"photoData":"imgA","date":"1 May"}`, http.StatusUnprocessableEntity, "invalid_date"},
		{"bad category", `{"photoData":"imgA","date":"2024-05-01","category":"Comet"}`, http.StatusUnprocessableEntity, "invalid_category"},
		{"unknown field", `{"photo":"imgA"}`, http.StatusBadRequest, "bad_request"},
		{"not json", `photo=imgA`, http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDeps(t)
			r := httptest.NewRequest(http.MethodPost, "/api/observations", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")

			rec := do(CreateObservation(d), r)
			var resp errorResponse
			_ = json.NewDecoder(rec.Body).Decode(&resp)
			if rec.Code != tt.wantCode || resp.Error != tt.wantErr {
				t.Errorf("status = %d error = %q, want %d %q", rec.Code, resp.Error, tt.wantCode, tt.wantErr)
			}
			if d.Store.Len() != 0 {
				t.Errorf("Len() = %d, want 0", d.Store.Len())
			}
		})
	}
}

func TestCreateObservationAPIPersistFailure(t *testing.T) {
	d, slot := newTestDeps(t)
	slot.FailWrites = errors.New("disk full")

	rec := do(CreateObservation(d), jsonRequest(t, http.MethodPost, "/api/observations", map[string]any{
		"photoData": "imgA", "date": "2024-05-01",
	}))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "persist_failed") {
		t.Errorf("create = %d %s", rec.Code, rec.Body.String())
	}
	if d.Store.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after rollback", d.Store.Len())
	}
}

func TestListObservationsAPI(t *testing.T) {
	d, _ := newTestDeps(t)
	ctx := context.Background()
	for _, c := range []string{"Galaxy", "Nebula", "Galaxy"} {
		if _, err := d.Store.Add(ctx, domain.Candidate{PhotoData: "imgA", Date: "2024-05-01", Category: c}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		query    string
		wantCode int
		wantLen  int
	}{
		{"", http.StatusOK, 3},
		{"?category=all", http.StatusOK, 3},
		{"?category=Galaxy", http.StatusOK, 2},
		{"?category=nebula", http.StatusOK, 1},
		{"?category=Cluster", http.StatusOK, 0},
		{"?category=Comet", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		rec := do(ListObservations(d), httptest.NewRequest(http.MethodGet, "/api/observations"+tt.query, nil))
		if rec.Code != tt.wantCode {
			t.Errorf("%s: status = %d, want %d", tt.query, rec.Code, tt.wantCode)
			continue
		}
		if tt.wantCode != http.StatusOK {
			continue
		}
		var list []domain.Observation
		if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
			t.Fatal(err)
		}
		if list == nil || len(list) != tt.wantLen {
			t.Errorf("%s: %d observations, want %d", tt.query, len(list), tt.wantLen)
		}
	}
}

func TestIndex(t *testing.T) {
	d, _ := newTestDeps(t)
	linked, dangling := 31, 7
	ctx := context.Background()
	for _, c := range []domain.Candidate{
		{PhotoData: "data:image/png;base64,AAAA", Date: "2024-04-30", Category: "Galaxy", LinkedCatalogueID: &linked, Comment: "**bright** core <script>alert(1)</script>"},
		{PhotoData: "data:text/html;base64,AAAA", Date: "2024-05-01", Category: "Nebula", LinkedCatalogueID: &dangling},
	} {
		if _, err := d.Store.Add(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	rec := do(Index(d), httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("index = %d", rec.Code)
	}
	for _, want := range []string{
		`src="data:image/png;base64,AAAA"`,
		"<strong>bright</strong>",
		"M31",
		catalogue.UnknownName,
		"[photo unavailable]",
		`value="2024-05-01"`,
		"/catalogue/42/wiki",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("raw HTML from a comment must not be rendered")
	}

	rec = do(Index(d), httptest.NewRequest(http.MethodGet, "/?category=Nebula", nil))
	if strings.Contains(rec.Body.String(), `id="obs-`) && strings.Contains(rec.Body.String(), "<strong>bright</strong>") {
		t.Error("Nebula filter should hide the galaxy")
	}

	rec = do(Index(d), httptest.NewRequest(http.MethodGet, "/?category=Comet", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad filter = %d, want 400", rec.Code)
	}

	rec = do(Index(d), httptest.NewRequest(http.MethodGet, "/?added=1", nil))
	if !strings.Contains(rec.Body.String(), "Observation saved.") {
		t.Error("confirmation missing after redirect")
	}
}

func TestIndexThemeCookie(t *testing.T) {
	d, _ := newTestDeps(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: ThemeCookie, Value: "dark"})
	if body := do(Index(d), r).Body.String(); !strings.Contains(body, `data-theme="dark"`) {
		t.Error("dark theme not applied")
	}
}

func TestSubmitObservation(t *testing.T) {
	d, _ := newTestDeps(t)
	h := mw.ParseForm(1 << 20)(SubmitObservation(d))

	rec := do(h, multipartRequest(t, map[string]string{
		"date": "2024-05-01", "category": "Galaxy", "messier": "31", "comment": "seeing 3/5", "keep": "1",
	}, pngBytes))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/?added=1" {
		t.Fatalf("submit = %d %q %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}

	obs := d.Store.Observations()
	if len(obs) != 1 {
		t.Fatalf("Len() = %d, want 1", len(obs))
	}
	got := obs[0]
	if !strings.HasPrefix(got.PhotoData, "data:image/png;base64,") || got.LinkedCatalogueID == nil || *got.LinkedCatalogueID != 31 || !got.Keep || got.Watermarked {
		t.Errorf("stored = %+v", got)
	}
}

func TestSubmitObservationRejected(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		photo  []byte
		want   string
	}{
		{"missing photo", map[string]string{"date": "2024-05-01"}, nil, domain.ErrMissingPhoto.Message},
		{"missing date", map[string]string{}, pngBytes, domain.ErrMissingDate.Message},
		{"not an image", map[string]string{"date": "2024-05-01"}, []byte("<html></html>"), "photo must be"},
		{"bad messier", map[string]string{"date": "2024-05-01", "messier": "M31"}, pngBytes, "unknown catalogue object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDeps(t)
			h := mw.ParseForm(1 << 20)(SubmitObservation(d))

			rec := do(h, multipartRequest(t, tt.fields, tt.photo))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body does not mention %q", tt.want)
			}
			if d.Store.Len() != 0 {
				t.Errorf("Len() = %d, want 0", d.Store.Len())
			}
		})
	}
}

func TestTheme(t *testing.T) {
	d, _ := newTestDeps(t)

	r := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader("return=/?category=Nebula"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(Theme(d), r)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/?category=Nebula" {
		t.Errorf("theme = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "dark" {
		t.Fatalf("cookies = %v", cookies)
	}

	r = httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader("return=//evil.example"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(cookies[0])
	rec = do(Theme(d), r)
	if rec.Header().Get("Location") != "/" {
		t.Errorf("open redirect: Location = %q", rec.Header().Get("Location"))
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].Value != "light" {
		t.Errorf("second toggle cookies = %v", c)
	}
}

func TestCalendar(t *testing.T) {
	d, _ := newTestDeps(t)
	rec := do(Calendar(d), httptest.NewRequest(http.MethodGet, "/calendar", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != d.CalendarURL {
		t.Errorf("calendar = %d %q", rec.Code, rec.Header().Get("Location"))
	}
}
