package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/clicklog"
	"github.com/Alirezastar2/utmkit-sub001/config"
	"github.com/Alirezastar2/utmkit-sub001/domains"
	"github.com/Alirezastar2/utmkit-sub001/model"
	"github.com/Alirezastar2/utmkit-sub001/report"
	"github.com/Alirezastar2/utmkit-sub001/resolver"
	"github.com/Alirezastar2/utmkit-sub001/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
)

func testConfig() config.Config {
	return config.Config{
		WebServer: config.WebServerConfig{
			Scheme:          "http",
			CanonicalDomain: "utmkit.ir",
		},
		Redis: config.RedisConfig{OperationTimeout: 5},
		Recorder: config.RecorderConfig{
			QueueSize:    64,
			Workers:      1,
			MaxRetries:   1,
			RetryBaseMs:  1,
			DrainTimeout: 5,
		},
		DNS: config.DNSConfig{
			TimeoutSeconds: 1,
			TXTPrefix:      "_utmkit-verify",
			PlatformHost:   "utmkit.ir",
			RecordTTL:      3600,
		},
		Features: config.FeaturesConfig{
			CustomAliasEnabled: true,
			MinCodeLength:      3,
			MaxCodeLength:      64,
		},
	}
}

type testEnv struct {
	handler  *Handler
	store    *store.RedisStore
	recorder *clicklog.Recorder
	router   *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := testConfig()
	st := store.NewRedisStore(rdb, time.Hour)
	res := resolver.New(st, nil, cfg.WebServer.CanonicalDomain)
	rec := clicklog.New(st, cfg.Recorder, nil)
	t.Cleanup(rec.Close)
	ver := domains.New(st, net.DefaultResolver, cfg.DNS, nil)
	agg := report.New(st)

	h := New(st, nil, res, rec, ver, agg, cfg, nil)

	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/api/links", h.CreateLink).Methods("POST")
	r.HandleFunc("/api/links/{shortCode}", h.DeleteLink).Methods("DELETE")
	r.HandleFunc("/api/reports/{reportID}/generate", h.GenerateReport).Methods("POST")
	r.HandleFunc("/api/analytics", h.Analytics).Methods("GET")
	r.HandleFunc("/l/{shortCode}", h.Redirect).Methods("GET")
	r.HandleFunc("/{shortCode}", h.Redirect).Methods("GET")

	return &testEnv{handler: h, store: st, recorder: rec, router: r}
}

func (e *testEnv) seedLink(t *testing.T, link model.Link) {
	t.Helper()
	if err := e.store.CreateLink(context.Background(), link); err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}
}

func TestRedirect_Success(t *testing.T) {
	env := newTestEnv(t)
	env.seedLink(t, model.Link{
		ID:          "l1",
		ShortCode:   "promo",
		OriginalURL: "https://shop.example/cart?ref=x",
		UTM:         model.UTMParams{Source: "telegram", Campaign: "fall24"},
		UserID:      "u1",
		Active:      true,
	})

	req := httptest.NewRequest("GET", "http://utmkit.ir/promo", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	req.Header.Set("Referer", "https://t.me/channel")
	req.Header.Set("CF-IPCountry", "DE")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusFound)
	}
	want := "https://shop.example/cart?ref=x&utm_source=telegram&utm_campaign=fall24"
	if loc := rr.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}

	// Drain the recorder and confirm the click landed with its attribution.
	env.recorder.Close()
	clicks, err := env.store.ClicksByLink(context.Background(), "l1")
	if err != nil {
		t.Fatalf("ClicksByLink() error = %v", err)
	}
	if len(clicks) != 1 {
		t.Fatalf("stored %d clicks, want 1", len(clicks))
	}
	if clicks[0].Referrer != "https://t.me/channel" {
		t.Errorf("Referrer = %q, want the Referer header", clicks[0].Referrer)
	}
	if clicks[0].Country != "DE" {
		t.Errorf("Country = %q, want DE", clicks[0].Country)
	}
}

func TestRedirect_PrefixedRoute(t *testing.T) {
	env := newTestEnv(t)
	env.seedLink(t, model.Link{
		ID:          "l1",
		ShortCode:   "promo",
		OriginalURL: "https://example.com",
		UserID:      "u1",
		Active:      true,
	})

	req := httptest.NewRequest("GET", "http://utmkit.ir/l/promo", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusFound)
	}
}

func TestRedirect_Unavailable(t *testing.T) {
	env := newTestEnv(t)
	env.seedLink(t, model.Link{
		ID:          "l1",
		ShortCode:   "old",
		OriginalURL: "https://example.com",
		UserID:      "u1",
		Active:      true,
		ExpiresAt:   time.Now().Add(-time.Minute),
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "unknown code", path: "/missing", wantStatus: http.StatusNotFound},
		{name: "expired link", path: "/old", wantStatus: http.StatusGone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://utmkit.ir"+tt.path, nil)
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			// Every failure renders the same page, reason stays server-side.
			if !strings.Contains(rr.Body.String(), "This link is unavailable") {
				t.Error("response does not render the unavailable page")
			}
			if got := rr.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", got)
			}
		})
	}
}

func TestCreateLink_GeneratedCode(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(CreateLinkRequest{
		UserID:      "u1",
		OriginalURL: "https://shop.example/cart",
		UTMSource:   "newsletter",
	})
	req := httptest.NewRequest("POST", "http://utmkit.ir/api/links", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp CreateLinkResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Link.ShortCode) < 6 || len(resp.Link.ShortCode) > 8 {
		t.Errorf("generated code %q has length %d, want 6-8", resp.Link.ShortCode, len(resp.Link.ShortCode))
	}
	if resp.ShortURL != "http://utmkit.ir/"+resp.Link.ShortCode {
		t.Errorf("ShortURL = %q", resp.ShortURL)
	}
	if resp.Link.UTM.Source != "newsletter" {
		t.Errorf("UTM.Source = %q, want newsletter", resp.Link.UTM.Source)
	}

	stored, err := env.store.LinkByCode(context.Background(), resp.Link.ShortCode)
	if err != nil {
		t.Fatalf("LinkByCode() error = %v", err)
	}
	if !stored.Active {
		t.Error("created link is not active")
	}
}

func TestCreateLink_CustomAlias(t *testing.T) {
	env := newTestEnv(t)

	create := func(alias string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(CreateLinkRequest{
			UserID:      "u1",
			OriginalURL: "https://example.com",
			CustomAlias: alias,
		})
		req := httptest.NewRequest("POST", "http://utmkit.ir/api/links", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)
		return rr
	}

	if rr := create("summer-sale"); rr.Code != http.StatusCreated {
		t.Fatalf("first create status = %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if rr := create("summer-sale"); rr.Code != http.StatusConflict {
		t.Errorf("duplicate alias status = %d, want %d", rr.Code, http.StatusConflict)
	}
	if rr := create("api"); rr.Code != http.StatusBadRequest {
		t.Errorf("reserved alias status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateLink_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  CreateLinkRequest
	}{
		{name: "missing user", req: CreateLinkRequest{OriginalURL: "https://example.com"}},
		{name: "bad url", req: CreateLinkRequest{UserID: "u1", OriginalURL: "not a url"}},
		{name: "localhost url", req: CreateLinkRequest{UserID: "u1", OriginalURL: "http://localhost/admin"}},
		{name: "past expiry", req: CreateLinkRequest{UserID: "u1", OriginalURL: "https://example.com", ExpiresAt: "2020-01-01T00:00:00Z"}},
		{name: "bad expiry format", req: CreateLinkRequest{UserID: "u1", OriginalURL: "https://example.com", ExpiresAt: "tomorrow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.req)
			req := httptest.NewRequest("POST", "http://utmkit.ir/api/links", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDeleteLink(t *testing.T) {
	env := newTestEnv(t)
	env.seedLink(t, model.Link{
		ID:          "l1",
		ShortCode:   "promo",
		OriginalURL: "https://example.com",
		UserID:      "u1",
		Active:      true,
	})

	req := httptest.NewRequest("DELETE", "http://utmkit.ir/api/links/promo", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want %d", rr.Code, http.StatusOK)
	}

	// The code is tombstoned, so the redirect now renders the unavailable page.
	req = httptest.NewRequest("GET", "http://utmkit.ir/promo", nil)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("redirect after delete status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	// Deleting again reports not found.
	req = httptest.NewRequest("DELETE", "http://utmkit.ir/api/links/promo", nil)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t)
	env.seedLink(t, model.Link{
		ID:          "l1",
		ShortCode:   "promo",
		OriginalURL: "https://example.com",
		UserID:      "u1",
		Active:      true,
	})
	click := model.Click{ID: "c1", LinkID: "l1", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	if err := env.store.AppendClick(context.Background(), click); err != nil {
		t.Fatalf("AppendClick() error = %v", err)
	}

	req := httptest.NewRequest("GET", "http://utmkit.ir/api/analytics?userId=u1", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var data model.ReportData
	if err := json.Unmarshal(rr.Body.Bytes(), &data); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if data.TotalClicks != 1 {
		t.Errorf("TotalClicks = %d, want 1", data.TotalClicks)
	}
}

func TestAnalytics_CustomWindowGatedByPlan(t *testing.T) {
	env := newTestEnv(t)
	env.seedLink(t, model.Link{
		ID: "l1", ShortCode: "promo", OriginalURL: "https://example.com",
		UserID: "u1", Active: true,
	})

	url := "http://utmkit.ir/api/analytics?userId=u1&start=2024-06-01T00:00:00Z&end=2024-06-08T00:00:00Z"

	// FREE plan may not pick a custom window.
	req := httptest.NewRequest("GET", url, nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("custom window on FREE status = %d, want %d", rr.Code, http.StatusForbidden)
	}

	if err := env.store.PutUser(context.Background(), model.User{ID: "u1", Plan: "PRO"}); err != nil {
		t.Fatalf("PutUser() error = %v", err)
	}
	req = httptest.NewRequest("GET", url, nil)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("custom window on PRO status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestGenerateReport(t *testing.T) {
	env := newTestEnv(t)
	env.seedLink(t, model.Link{
		ID: "l1", ShortCode: "promo", OriginalURL: "https://example.com",
		UserID: "u1", Active: true,
	})
	rep := model.ScheduledReport{ID: "r1", UserID: "u1", Frequency: model.FrequencyDaily}
	if err := env.store.PutReport(context.Background(), rep); err != nil {
		t.Fatalf("PutReport() error = %v", err)
	}

	req := httptest.NewRequest("POST", "http://utmkit.ir/api/reports/r1/generate", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	stored, err := env.store.ReportByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("ReportByID() error = %v", err)
	}
	if stored.LastSent.IsZero() {
		t.Error("LastSent not stamped after generation")
	}

	req = httptest.NewRequest("POST", "http://utmkit.ir/api/reports/ghost/generate", nil)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown report status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "http://utmkit.ir/health", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", body["status"])
	}
}
