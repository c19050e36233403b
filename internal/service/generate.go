// generate.go — pipeline обогащения стиха дня внешним генератором.
// Наружу никогда не падает: tryGenerate (может отказать) скомпонован
// с fallbackGenerate (не отказывает никогда), граница отказа — ровно
// одно место в Generate.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/dailyverse/internal/domain/model"
	"github.com/bigkaa/dailyverse/internal/genclient"
)

// Prometheus-метрики generation pipeline.
var (
	generationAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dv_generation_attempts_total",
		Help: "Общее количество попыток внешней генерации.",
	})
	generationFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dv_generation_fallbacks_total",
		Help: "Количество переходов на статический fallback (по причине).",
	}, []string{"reason"})
)

// Generator — возможность внешней генерации текста.
// Реализуется genclient.Client; nil-значение в GenerationService —
// явный вариант «возможность отсутствует».
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// GenerationService — pipeline обогащения.
// Политика: доступность важнее полноты — дневной payload возвращается
// всегда, даже при полной недостижимости внешних зависимостей.
type GenerationService struct {
	client Generator // nil — возможность генерации не настроена
	logger *slog.Logger
}

// NewGenerationService создаёт pipeline.
// client == nil означает «возможность отсутствует»: pipeline не различает
// «не настроено» и «вызов отказал», оба пути ведут в fallback.
func NewGenerationService(client Generator, logger *slog.Logger) *GenerationService {
	return &GenerationService{
		client: client,
		logger: logger.With(slog.String("component", "generation_service")),
	}
}

// Generate возвращает структурно валидный GenerationResult для стиха.
// Не отказывает никогда: любая ошибка попытки поглощается в fallback
// здесь, и только здесь.
func (s *GenerationService) Generate(ctx context.Context, languageCode, reference, body string) *model.GenerationResult {
	result, err := s.tryGenerate(ctx, languageCode, reference, body)
	if err != nil {
		reason := "call_failed"
		if errors.Is(err, errNotConfigured) {
			reason = "not_configured"
		} else if errors.Is(err, errEmptyTheme) {
			reason = "parse_failed"
		}
		generationFallbacksTotal.WithLabelValues(reason).Inc()

		s.logger.Warn("Генерация недоступна, используется fallback",
			slog.String("reference", reference),
			slog.String("lang", languageCode),
			slog.String("error", err.Error()),
		)
		return fallbackGenerate(languageCode)
	}
	return result
}

// Внутренние причины отказа попытки (только для метрик/логов,
// наружу не выходят).
var (
	errNotConfigured = errors.New("возможность генерации не настроена")
	errEmptyTheme    = errors.New("в ответе генератора отсутствует THEME")
)

// tryGenerate — попытка внешней генерации. Может отказать.
func (s *GenerationService) tryGenerate(ctx context.Context, languageCode, reference, body string) (*model.GenerationResult, error) {
	if s.client == nil {
		return nil, errNotConfigured
	}

	generationAttemptsTotal.Inc()

	text, err := s.client.Complete(ctx, systemPrompt(languageCode), userPrompt(reference, body))
	if err != nil {
		return nil, err
	}

	return parseGeneration(text)
}

// parseGeneration разбирает пятистрочный формат ответа генератора:
// THEME, CONTEXT, REFLECTION, APPLICATION, PRAYER — по одной строке
// "LABEL: значение". Метка нечувствительна к регистру, выигрывает
// первая строка каждой метки, разрез только по первому двоеточию
// (значение само может содержать двоеточия).
//
// Результат принимается, только если THEME непуст; пустые starter-поля
// разобранного ответа допустимы.
func parseGeneration(text string) (*model.GenerationResult, error) {
	result := &model.GenerationResult{}
	seen := make(map[string]bool, 5)

	for _, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.ToUpper(strings.TrimSpace(label))
		value = strings.TrimSpace(value)

		if seen[label] {
			continue // первая строка метки выигрывает
		}

		switch label {
		case "THEME":
			result.Theme = value
		case "CONTEXT":
			result.Starters.Context = value
		case "REFLECTION":
			result.Starters.Reflection = value
		case "APPLICATION":
			result.Starters.Application = value
		case "PRAYER":
			result.Starters.Prayer = value
		default:
			continue
		}
		seen[label] = true
	}

	if result.Theme == "" {
		return nil, errEmptyTheme
	}
	return result, nil
}

// systemPrompt возвращает системные инструкции генератора для языка.
func systemPrompt(languageCode string) string {
	lang := "English"
	if languageCode == "es" {
		lang = "Spanish"
	}
	return fmt.Sprintf(
		"You are a devotional writing assistant. Respond in %s. "+
			"Answer with exactly five lines in the format "+
			"'THEME: ...', 'CONTEXT: ...', 'REFLECTION: ...', "+
			"'APPLICATION: ...', 'PRAYER: ...'. No other text.",
		lang,
	)
}

// userPrompt возвращает пользовательский контент: ссылку и текст стиха.
func userPrompt(reference, body string) string {
	return fmt.Sprintf("Verse %s: %s", reference, body)
}

// fallbackRecords — статическая таблица fallback по языкам.
// Записи литеральные и не зависят от окружения: тесты детерминированы.
var fallbackRecords = map[string]model.GenerationResult{
	"en": {
		Theme: "God's Faithfulness",
		Starters: model.Starters{
			Context:     "Consider the setting in which these words were first heard.",
			Reflection:  "What does this verse reveal about God's character?",
			Application: "How can you carry this truth into your day?",
			Prayer:      "Lord, help me trust Your word and walk in it today. Amen.",
		},
	},
	"es": {
		Theme: "La Fidelidad de Dios",
		Starters: model.Starters{
			Context:     "Considera el contexto en que estas palabras fueron escuchadas por primera vez.",
			Reflection:  "¿Qué revela este versículo sobre el carácter de Dios?",
			Application: "¿Cómo puedes llevar esta verdad a tu día?",
			Prayer:      "Señor, ayúdame a confiar en Tu palabra y caminar en ella hoy. Amén.",
		},
	},
}

// fallbackGenerate возвращает фиксированную запись для языка.
// Неизвестный язык получает английскую запись.
func fallbackGenerate(languageCode string) *model.GenerationResult {
	record, ok := fallbackRecords[languageCode]
	if !ok {
		record = fallbackRecords["en"]
	}
	return &record
}

// Проверка на этапе компиляции: клиент генератора реализует Generator.
var _ Generator = (*genclient.Client)(nil)
