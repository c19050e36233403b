package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
)

// newTestStatic — обработчик статики поверх фиктивной ФС.
func newTestStatic() *StaticHandler {
	assets := fstest.MapFS{
		"index.html":           {Data: []byte("<!doctype html><title>Daily Verse</title>")},
		"app.js":               {Data: []byte("// app")},
		"manifest.webmanifest": {Data: []byte("{}")},
		"sw.js":                {Data: []byte("// sw")},
		"icons/icon-192.svg":   {Data: []byte("<svg/>")},
	}
	return NewStaticHandler(assets, testLogger())
}

// iconRequest — запрос иконки с chi-параметром name.
func iconRequest(name string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/icons/x", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", name)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestStaticRoot — корневой документ с правильным Content-Type.
func TestStaticRoot(t *testing.T) {
	h := newTestStatic()
	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Daily Verse") {
		t.Errorf("тело = %q", rec.Body.String())
	}
}

// TestStaticIcon — существующая иконка отдаётся как SVG.
func TestStaticIcon(t *testing.T) {
	h := newTestStatic()
	rec := httptest.NewRecorder()
	h.Icon(rec, iconRequest("icon-192.svg"))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
}

// TestStaticIconTraversal — попытки path traversal отклоняются с 400.
func TestStaticIconTraversal(t *testing.T) {
	tests := []string{
		"../secret",
		"..",
		"a/b.svg",
		"a\\b.svg",
		"",
	}

	h := newTestStatic()
	for _, name := range tests {
		rec := httptest.NewRecorder()
		h.Icon(rec, iconRequest(name))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("имя %q: статус = %d, ожидался 400", name, rec.Code)
		}
	}
}

// TestStaticIconMissing — неизвестная иконка: 404.
func TestStaticIconMissing(t *testing.T) {
	h := newTestStatic()
	rec := httptest.NewRecorder()
	h.Icon(rec, iconRequest("nope.svg"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("статус = %d, ожидался 404", rec.Code)
	}
}

// TestSPAFallback — незарезервированный путь получает корневой документ,
// зарезервированные префиксы — 404.
func TestSPAFallback(t *testing.T) {
	h := newTestStatic()

	rec := httptest.NewRecorder()
	h.SPAFallback(rec, httptest.NewRequest(http.MethodGet, "/some/app/route", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Daily Verse") {
		t.Errorf("SPA-путь: статус = %d, тело = %q", rec.Code, rec.Body.String())
	}

	for _, path := range []string{"/devotional/extra", "/me/x", "/health/unknown", "/metrics/x", "/icons"} {
		rec := httptest.NewRecorder()
		h.SPAFallback(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("путь %s: статус = %d, ожидался 404", path, rec.Code)
		}
	}
}
