// devotional.go — обработчик GET /devotional.
// Валидация параметров, вызов сборщика, маппинг ошибок на HTTP-статусы.
package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/bigkaa/dailyverse/internal/api/errors"
	"github.com/bigkaa/dailyverse/internal/repository"
	"github.com/bigkaa/dailyverse/internal/service"
)

// Devotional — реализация GET /devotional?lang={код}&version={id}.
// Отсутствующий version подставляется из конфигурации; неизвестный код
// языка сводится к языку по умолчанию, неизвестная версия — ошибка 400.
func (h *APIHandler) Devotional(w http.ResponseWriter, r *http.Request) {
	lang := service.NormalizeLanguage(r.URL.Query().Get("lang"))
	version := r.URL.Query().Get("version")
	if version == "" {
		version = h.defaultVersion
	}

	payload, err := h.assembler.Assemble(r.Context(), lang, version)
	if err != nil {
		h.writeDevotionalError(w, version, err)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// writeDevotionalError переводит ошибки сервисного слоя в HTTP-ответы.
// Генерация никогда не доходит сюда: её отказы поглощает fallback.
func (h *APIHandler) writeDevotionalError(w http.ResponseWriter, version string, err error) {
	switch {
	case errors.Is(err, repository.ErrUnknownVersion):
		apierrors.ValidationError(w, "Неизвестная версия: "+version)
	case errors.Is(err, repository.ErrStoreMissing):
		apierrors.NotFound(w, "Хранилище версии "+version+" недоступно")
	case errors.Is(err, service.ErrNoContent):
		apierrors.NoContent(w, "Версия "+version+" не содержит контента")
	default:
		h.logger.Error("Ошибка сборки дневного ответа", "error", err, "version", version)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
