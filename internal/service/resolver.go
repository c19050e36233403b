// resolver.go — разрешение канонического «стиха дня».
// Координирует детерминированный выбор и хранилище контента.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/dailyverse/internal/domain/model"
	"github.com/bigkaa/dailyverse/internal/repository"
)

// Ошибки сервисного слоя.
var (
	// ErrNoContent — популяция версии пуста (проблема провизионирования данных).
	ErrNoContent = errors.New("нет доступного контента")
)

// Prometheus-метрики resolver.
var (
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dv_resolve_total",
		Help: "Общее количество разрешений стиха дня (по результату).",
	}, []string{"result"})

	resolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dv_resolve_duration_seconds",
		Help:    "Длительность разрешения стиха дня.",
		Buckets: prometheus.DefBuckets,
	})
)

// ResolverService — разрешение стиха дня для версии.
// Side effects отсутствуют: повторный вызов в пределах одного дня
// возвращает идентичный результат (при неизменном хранилище).
type ResolverService struct {
	store  repository.ContentStore
	clock  func() time.Time
	logger *slog.Logger
}

// NewResolverService создаёт resolver над хранилищем контента.
func NewResolverService(store repository.ContentStore, logger *slog.Logger) *ResolverService {
	return &ResolverService{
		store:  store,
		clock:  time.Now,
		logger: logger.With(slog.String("component", "resolver_service")),
	}
}

// NewResolverServiceWithClock создаёт resolver с фиксированными часами.
// Используется в тестах для детерминированного day_key.
func NewResolverServiceWithClock(store repository.ContentStore, clock func() time.Time, logger *slog.Logger) *ResolverService {
	rs := NewResolverService(store, logger)
	rs.clock = clock
	return rs
}

// DayKey возвращает текущую календарную дату UTC в формате YYYY-MM-DD —
// эпоху выбора «сегодняшнего» контента.
func (s *ResolverService) DayKey() string {
	return s.clock().UTC().Format("2006-01-02")
}

// ResolveDaily возвращает канонический стих дня для версии.
//
// Алгоритм: day_key → популяция → детерминированный offset → запись →
// имя книги → ссылка "{Имя} глава:стих". Пустая популяция — ErrNoContent,
// выборка при этом не выполняется. Промах поиска имени книги не фатален:
// подставляется строковый идентификатор, pipeline остаётся доступным
// при частично заполненной таблице книг.
func (s *ResolverService) ResolveDaily(ctx context.Context, versionID string) (*model.DailySelection, error) {
	start := time.Now()

	dayKey := s.DayKey()

	population, err := s.store.Count(ctx, versionID)
	if err != nil {
		resolveTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("размер популяции версии %q: %w", versionID, err)
	}
	if population <= 0 {
		resolveTotal.WithLabelValues("no_content").Inc()
		return nil, fmt.Errorf("версия %q: %w", versionID, ErrNoContent)
	}

	offset := Select(dayKey, versionID, population)

	record, err := s.store.FetchByOrdinalOffset(ctx, versionID, offset)
	if err != nil {
		// Популяция проверена выше: отсутствие записи означает изменение
		// хранилища между вызовами, трактуется как отсутствие контента
		if errors.Is(err, repository.ErrNotFound) {
			resolveTotal.WithLabelValues("no_content").Inc()
			return nil, fmt.Errorf("запись offset %d версии %q: %w", offset, versionID, ErrNoContent)
		}
		resolveTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("запись offset %d версии %q: %w", offset, versionID, err)
	}

	label, err := s.store.LookupContainerLabel(ctx, versionID, record.ContainerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			resolveTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("имя книги %d версии %q: %w", record.ContainerID, versionID, err)
		}
		// Частично заполненная таблица книг — подставляем id
		label = strconv.Itoa(record.ContainerID)
		s.logger.Warn("Имя книги не найдено, используется идентификатор",
			slog.Int("book_id", record.ContainerID),
			slog.String("version", versionID),
		)
	}

	resolveTotal.WithLabelValues("ok").Inc()
	resolveDuration.Observe(time.Since(start).Seconds())

	s.logger.Debug("Стих дня разрешён",
		slog.String("day", dayKey),
		slog.String("version", versionID),
		slog.Int("population", population),
		slog.Int("offset", offset),
	)

	return &model.DailySelection{
		DayKey:       dayKey,
		Reference:    fmt.Sprintf("%s %d:%d", label, record.OrdinalMajor, record.OrdinalMinor),
		Body:         record.Body,
		ContainerID:  record.ContainerID,
		OrdinalMajor: record.OrdinalMajor,
		OrdinalMinor: record.OrdinalMinor,
	}, nil
}
