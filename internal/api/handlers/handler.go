// handler.go — основной обработчик API.
// Объединяет health, бизнес-обработчик /devotional и раздачу статики.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bigkaa/dailyverse/internal/domain/model"
)

// Assembler — интерфейс сервиса сборки дневного ответа.
type Assembler interface {
	Assemble(ctx context.Context, languageCode, versionID string) (*model.Payload, error)
}

// APIHandler — основной обработчик API.
// Делегирует запросы в сервисный слой через интерфейс Assembler.
type APIHandler struct {
	assembler      Assembler
	defaultVersion string
	health         *HealthHandler
	logger         *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	assembler Assembler,
	defaultVersion string,
	health *HealthHandler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		assembler:      assembler,
		defaultVersion: defaultVersion,
		health:         health,
		logger:         logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// Me — минимальный liveness endpoint клиентского приложения.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.health.Me(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
