package service

import (
	"testing"
	"time"

	"github.com/bigkaa/dailyverse/internal/domain/model"
)

// TestPayloadCache_GetSet проверяет базовые операции Get/Set.
func TestPayloadCache_GetSet(t *testing.T) {
	cache := NewPayloadCache(16, 5*time.Minute)

	payload := &model.Payload{
		OK:        true,
		Day:       "2024-01-01",
		Language:  "en",
		VersionID: "en_default",
		Theme:     "Hope",
	}

	// Cache miss
	_, ok := cache.Get("2024-01-01|en_default|en")
	if ok {
		t.Fatal("ожидался cache miss для нового ключа")
	}

	// Set + cache hit
	cache.Set("2024-01-01|en_default|en", payload)
	got, ok := cache.Get("2024-01-01|en_default|en")
	if !ok {
		t.Fatal("ожидался cache hit после Set")
	}
	if got.Theme != "Hope" {
		t.Errorf("Theme = %q, ожидался Hope", got.Theme)
	}
}

// TestPayloadCache_TTLExpiration проверяет автоматическое истечение TTL.
func TestPayloadCache_TTLExpiration(t *testing.T) {
	// Короткий TTL = 50ms для теста
	cache := NewPayloadCache(16, 50*time.Millisecond)

	cache.Set("key", &model.Payload{Theme: "Hope"})

	// Сразу после Set — должен быть hit
	if _, ok := cache.Get("key"); !ok {
		t.Fatal("ожидался cache hit сразу после Set")
	}

	// Ждём истечения TTL
	time.Sleep(100 * time.Millisecond)

	if _, ok := cache.Get("key"); ok {
		t.Fatal("ожидался cache miss после истечения TTL")
	}
}

// TestPayloadCache_KeysIndependent — записи разных дней/языков не пересекаются.
func TestPayloadCache_KeysIndependent(t *testing.T) {
	cache := NewPayloadCache(16, 5*time.Minute)

	cache.Set("2024-01-01|en_default|en", &model.Payload{Theme: "A"})
	cache.Set("2024-01-02|en_default|en", &model.Payload{Theme: "B"})
	cache.Set("2024-01-01|en_default|es", &model.Payload{Theme: "C"})

	got, ok := cache.Get("2024-01-01|en_default|en")
	if !ok || got.Theme != "A" {
		t.Errorf("ключ дня 1/en: %+v, ok=%v", got, ok)
	}
	got, ok = cache.Get("2024-01-02|en_default|en")
	if !ok || got.Theme != "B" {
		t.Errorf("ключ дня 2/en: %+v, ok=%v", got, ok)
	}
	got, ok = cache.Get("2024-01-01|en_default|es")
	if !ok || got.Theme != "C" {
		t.Errorf("ключ дня 1/es: %+v, ok=%v", got, ok)
	}
}
