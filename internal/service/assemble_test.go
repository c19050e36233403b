package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingGenerator — Generator, считающий вызовы.
type countingGenerator struct {
	calls atomic.Int64
	delay time.Duration
}

func (g *countingGenerator) Complete(context.Context, string, string) (string, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	return "THEME: Hope\nCONTEXT: c\nREFLECTION: r\nAPPLICATION: a\nPRAYER: p", nil
}

func newTestAssembler(t *testing.T, dayKey string, gen Generator, cache *PayloadCache) *AssembleService {
	t.Helper()
	store := newFullFakeStore(dayKey, "en_default", 31102)
	resolver := NewResolverServiceWithClock(store, fixedClock(dayKey), slog.Default())
	generation := NewGenerationService(gen, slog.Default())
	return NewAssembleService(resolver, generation, cache, slog.Default())
}

// TestNormalizeLanguage — известные коды сохраняются, неизвестные → en.
func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"es", "es"},
		{"fr", "en"},
		{"", "en"},
		{"EN", "en"},
	}

	for _, tt := range tests {
		if got := NormalizeLanguage(tt.in); got != tt.want {
			t.Errorf("NormalizeLanguage(%q) = %q, ожидался %q", tt.in, got, tt.want)
		}
	}
}

// TestAssemble_FullPayload — собранный payload содержит обе половины полей.
func TestAssemble_FullPayload(t *testing.T) {
	const dayKey = "2024-01-01"
	svc := newTestAssembler(t, dayKey, &countingGenerator{}, nil)

	payload, err := svc.Assemble(context.Background(), "en", "en_default")
	if err != nil {
		t.Fatalf("Assemble() вернул ошибку: %v", err)
	}

	if !payload.OK {
		t.Error("OK = false")
	}
	if payload.Day != dayKey {
		t.Errorf("Day = %q, ожидался %q", payload.Day, dayKey)
	}
	if payload.Language != "en" || payload.VersionID != "en_default" {
		t.Errorf("Language/VersionID = %q/%q", payload.Language, payload.VersionID)
	}
	if payload.Theme != "Hope" {
		t.Errorf("Theme = %q", payload.Theme)
	}
	if payload.Reference == "" || payload.Scripture == "" {
		t.Error("Reference или Scripture пусты")
	}
	if payload.Starters.Prayer != "p" {
		t.Errorf("Starters.Prayer = %q", payload.Starters.Prayer)
	}
}

// TestAssemble_UnknownLanguageDefaults — неизвестный язык сводится к en.
func TestAssemble_UnknownLanguageDefaults(t *testing.T) {
	svc := newTestAssembler(t, "2024-01-01", nil, nil)

	payload, err := svc.Assemble(context.Background(), "de", "en_default")
	if err != nil {
		t.Fatalf("Assemble() вернул ошибку: %v", err)
	}
	if payload.Language != "en" {
		t.Errorf("Language = %q, ожидался en", payload.Language)
	}
}

// TestAssemble_MemoCache — второй вызов обслуживается из кэша
// без обращения к генератору.
func TestAssemble_MemoCache(t *testing.T) {
	gen := &countingGenerator{}
	svc := newTestAssembler(t, "2024-01-01", gen, NewPayloadCache(16, time.Minute))

	if _, err := svc.Assemble(context.Background(), "en", "en_default"); err != nil {
		t.Fatalf("первый Assemble(): %v", err)
	}
	if _, err := svc.Assemble(context.Background(), "en", "en_default"); err != nil {
		t.Fatalf("второй Assemble(): %v", err)
	}

	if got := gen.calls.Load(); got != 1 {
		t.Errorf("вызовов генератора %d, ожидался 1", got)
	}
}

// TestAssemble_Singleflight — конкурентные промахи сворачиваются
// не более чем в один вызов генератора на ключ.
func TestAssemble_Singleflight(t *testing.T) {
	gen := &countingGenerator{delay: 50 * time.Millisecond}
	svc := newTestAssembler(t, "2024-01-01", gen, NewPayloadCache(16, time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Assemble(context.Background(), "en", "en_default"); err != nil {
				t.Errorf("Assemble(): %v", err)
			}
		}()
	}
	wg.Wait()

	if got := gen.calls.Load(); got != 1 {
		t.Errorf("вызовов генератора %d, ожидался 1 (singleflight)", got)
	}
}

// TestAssemble_ResolveErrorPropagates — ошибка разрешения не прячется.
func TestAssemble_ResolveErrorPropagates(t *testing.T) {
	store := &fakeStore{population: 0}
	resolver := NewResolverServiceWithClock(store, fixedClock("2024-01-01"), slog.Default())
	svc := NewAssembleService(resolver, NewGenerationService(nil, slog.Default()), nil, slog.Default())

	_, err := svc.Assemble(context.Background(), "en", "en_default")
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("err = %v, ожидался ErrNoContent", err)
	}
}
