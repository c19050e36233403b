// static.go — раздача встроенных ресурсов клиентского приложения.
// Корневой документ, скрипт, манифест, service worker, иконки и
// SPA-fallback для прочих путей.
package handlers

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/dailyverse/internal/api/errors"
)

// reservedPrefixes — пути, на которые SPA-fallback не распространяется:
// их отсутствие в роутере означает 404, а не корневой документ.
var reservedPrefixes = []string{"/devotional", "/me", "/health", "/metrics", "/icons"}

// StaticHandler — обработчик встроенной статики.
type StaticHandler struct {
	assets fs.FS
	logger *slog.Logger
}

// NewStaticHandler создаёт обработчик статики поверх встроенной ФС.
func NewStaticHandler(assets fs.FS, logger *slog.Logger) *StaticHandler {
	return &StaticHandler{
		assets: assets,
		logger: logger.With(slog.String("component", "static_handler")),
	}
}

// Root — корневой документ приложения.
func (h *StaticHandler) Root(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "index.html", "text/html; charset=utf-8")
}

// AppJS — основной скрипт приложения.
func (h *StaticHandler) AppJS(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "app.js", "application/javascript; charset=utf-8")
}

// Manifest — web app manifest.
func (h *StaticHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "manifest.webmanifest", "application/manifest+json")
}

// ServiceWorker — скрипт service worker.
// Service-Worker-Allowed не требуется: скрипт раздаётся с корня.
func (h *StaticHandler) ServiceWorker(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "sw.js", "application/javascript; charset=utf-8")
}

// Icon — иконка приложения по имени файла.
// Имя валидируется против path traversal: разделители путей и ".."
// отклоняются со статусом 400 до обращения к ФС.
func (h *StaticHandler) Icon(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !validIconName(name) {
		apierrors.ValidationError(w, "Некорректное имя иконки")
		return
	}
	h.serveFile(w, r, "icons/"+name, "")
}

// SPAFallback — отдаёт корневой документ для незарезервированных путей.
// Зарезервированные префиксы API получают честный 404.
func (h *StaticHandler) SPAFallback(w http.ResponseWriter, r *http.Request) {
	for _, prefix := range reservedPrefixes {
		if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/") {
			apierrors.NotFound(w, "Ресурс не найден")
			return
		}
	}
	h.Root(w, r)
}

// serveFile отдаёт один встроенный файл.
// contentType пустой — тип определяется http.ServeContent по расширению.
func (h *StaticHandler) serveFile(w http.ResponseWriter, r *http.Request, name, contentType string) {
	data, err := fs.ReadFile(h.assets, name)
	if err != nil {
		h.logger.Warn("Встроенный файл не найден", "name", name)
		apierrors.NotFound(w, "Ресурс не найден")
		return
	}
	if contentType == "" {
		contentType = contentTypeByExt(name)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

// validIconName отклоняет имена с разделителями путей и "..".
func validIconName(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return true
}

// contentTypeByExt — типы для файлов иконок.
func contentTypeByExt(name string) string {
	switch {
	case strings.HasSuffix(name, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".ico"):
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}
