// assemble.go — сборка внешне видимого payload.
// Чистая композиция resolver и generation pipeline: нормализация языка,
// разрешение стиха дня, обогащение, memo-кэш с singleflight-защитой.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/bigkaa/dailyverse/internal/domain/model"
)

// Поддерживаемые языки payload. Неизвестные коды сводятся к основному.
const (
	LanguageEnglish = "en"
	LanguageSpanish = "es"
)

// AssembleService — сборка payload /devotional.
type AssembleService struct {
	resolver   *ResolverService
	generation *GenerationService
	cache      *PayloadCache
	group      singleflight.Group
	logger     *slog.Logger
}

// NewAssembleService создаёт сборщик payload.
// cache может быть nil — memo-кэширование тогда отключено.
func NewAssembleService(
	resolver *ResolverService,
	generation *GenerationService,
	cache *PayloadCache,
	logger *slog.Logger,
) *AssembleService {
	return &AssembleService{
		resolver:   resolver,
		generation: generation,
		cache:      cache,
		logger:     logger.With(slog.String("component", "assemble_service")),
	}
}

// NormalizeLanguage сводит код языка к поддерживаемому набору.
// Неизвестные значения получают основной язык (en).
func NormalizeLanguage(code string) string {
	switch code {
	case LanguageSpanish:
		return LanguageSpanish
	default:
		return LanguageEnglish
	}
}

// Assemble возвращает полный payload для пары (язык, версия).
// Сборка всё-или-ничего: либо полный payload, либо ошибка; fallback
// генерации гарантирует полноту второй половины полей.
//
// Одновременные промахи кэша по одному ключу сворачиваются в одну
// сборку (singleflight) — не более одного исходящего вызова генератора
// на ключ под нагрузкой.
func (s *AssembleService) Assemble(ctx context.Context, languageCode, versionID string) (*model.Payload, error) {
	lang := NormalizeLanguage(languageCode)
	key := fmt.Sprintf("%s|%s|%s", s.resolver.DayKey(), versionID, lang)

	if s.cache != nil {
		if payload, ok := s.cache.Get(key); ok {
			return payload, nil
		}
	}

	val, err, shared := s.group.Do(key, func() (any, error) {
		selection, err := s.resolver.ResolveDaily(ctx, versionID)
		if err != nil {
			return nil, err
		}

		generated := s.generation.Generate(ctx, lang, selection.Reference, selection.Body)

		payload := &model.Payload{
			OK:        true,
			Day:       selection.DayKey,
			Language:  lang,
			VersionID: versionID,
			Theme:     generated.Theme,
			Reference: selection.Reference,
			Scripture: selection.Body,
			Starters:  generated.Starters,
		}

		if s.cache != nil {
			s.cache.Set(key, payload)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		s.logger.Debug("Сборка разделена между конкурентными запросами",
			slog.String("key", key),
		)
	}

	return val.(*model.Payload), nil
}
