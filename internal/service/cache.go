// cache.go — memo-кэш дневного payload с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable. Необязательная
// оптимизация: выбор чистая функция дня и версии, поэтому кэширование
// не меняет наблюдаемого поведения.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/dailyverse/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dv_payload_cache_hits_total",
		Help: "Общее количество попаданий в memo-кэш дневного payload.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dv_payload_cache_misses_total",
		Help: "Общее количество промахов memo-кэша дневного payload.",
	})
)

// PayloadCache — LRU-кэш собранных payload с автоматическим TTL.
// Ключ включает day_key, поэтому устаревшая запись вчерашнего дня
// никогда не отдаётся за сегодняшнюю независимо от TTL.
type PayloadCache struct {
	cache *expirable.LRU[string, *model.Payload]
}

// NewPayloadCache создаёт кэш с указанным максимальным размером и TTL.
func NewPayloadCache(maxSize int, ttl time.Duration) *PayloadCache {
	cache := expirable.NewLRU[string, *model.Payload](maxSize, nil, ttl)
	return &PayloadCache{cache: cache}
}

// Get возвращает payload из кэша по ключу "day|версия|язык".
// Возвращает (payload, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *PayloadCache) Get(key string) (*model.Payload, bool) {
	val, ok := c.cache.Get(key)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *PayloadCache) Set(key string, payload *model.Payload) {
	c.cache.Add(key, payload)
}
