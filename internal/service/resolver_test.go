package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/dailyverse/internal/domain/model"
	"github.com/bigkaa/dailyverse/internal/repository"
)

// fakeStore — управляемая реализация ContentStore для тестов resolver.
type fakeStore struct {
	population int
	countErr   error
	records    map[int]*model.ContentRecord
	labels     map[int]string
	fetchCalls int
}

func (f *fakeStore) Count(_ context.Context, _ string) (int, error) {
	return f.population, f.countErr
}

func (f *fakeStore) FetchByOrdinalOffset(_ context.Context, _ string, offset int) (*model.ContentRecord, error) {
	f.fetchCalls++
	record, ok := f.records[offset]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return record, nil
}

func (f *fakeStore) LookupContainerLabel(_ context.Context, _ string, containerID int) (string, error) {
	name, ok := f.labels[containerID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return name, nil
}

// fixedClock возвращает часы, застывшие на указанной дате UTC.
func fixedClock(date string) func() time.Time {
	t, _ := time.Parse("2006-01-02", date)
	return func() time.Time { return t }
}

// newFullFakeStore создаёт хранилище, отвечающее одной записью
// на любой offset детерминированного выбора для даты теста.
func newFullFakeStore(dayKey, versionID string, population int) *fakeStore {
	offset := Select(dayKey, versionID, population)
	return &fakeStore{
		population: population,
		records: map[int]*model.ContentRecord{
			offset: {ContainerID: 43, OrdinalMajor: 3, OrdinalMinor: 16, Body: "Ибо так возлюбил Бог мир"},
		},
		labels: map[int]string{43: "John"},
	}
}

// TestResolveDaily_OK — полный happy path: популяция, выбор, имя книги, ссылка.
func TestResolveDaily_OK(t *testing.T) {
	const dayKey = "2024-01-01"
	store := newFullFakeStore(dayKey, "en_default", 31102)
	rs := NewResolverServiceWithClock(store, fixedClock(dayKey), slog.Default())

	selection, err := rs.ResolveDaily(context.Background(), "en_default")
	if err != nil {
		t.Fatalf("ResolveDaily() вернул ошибку: %v", err)
	}

	if selection.DayKey != dayKey {
		t.Errorf("DayKey = %q, ожидался %q", selection.DayKey, dayKey)
	}
	if selection.Reference != "John 3:16" {
		t.Errorf("Reference = %q, ожидался John 3:16", selection.Reference)
	}
	if selection.Body == "" {
		t.Error("Body пустой")
	}
}

// TestResolveDaily_Idempotent — повторное разрешение в пределах дня
// даёт идентичный результат.
func TestResolveDaily_Idempotent(t *testing.T) {
	const dayKey = "2024-05-20"
	store := newFullFakeStore(dayKey, "en_default", 1000)
	rs := NewResolverServiceWithClock(store, fixedClock(dayKey), slog.Default())

	first, err := rs.ResolveDaily(context.Background(), "en_default")
	if err != nil {
		t.Fatalf("первый ResolveDaily(): %v", err)
	}
	second, err := rs.ResolveDaily(context.Background(), "en_default")
	if err != nil {
		t.Fatalf("второй ResolveDaily(): %v", err)
	}
	if *first != *second {
		t.Errorf("результаты различаются: %+v != %+v", first, second)
	}
}

// TestResolveDaily_ZeroPopulation — пустая популяция даёт ErrNoContent,
// выборка записи не выполняется.
func TestResolveDaily_ZeroPopulation(t *testing.T) {
	store := &fakeStore{population: 0}
	rs := NewResolverServiceWithClock(store, fixedClock("2024-01-01"), slog.Default())

	_, err := rs.ResolveDaily(context.Background(), "en_default")
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("err = %v, ожидался ErrNoContent", err)
	}
	if store.fetchCalls != 0 {
		t.Errorf("FetchByOrdinalOffset вызван %d раз, ожидалось 0", store.fetchCalls)
	}
}

// TestResolveDaily_LabelMiss — промах имени книги не фатален:
// подставляется строковый идентификатор.
func TestResolveDaily_LabelMiss(t *testing.T) {
	const dayKey = "2024-01-01"
	store := newFullFakeStore(dayKey, "en_default", 31102)
	store.labels = map[int]string{} // таблица книг пуста

	rs := NewResolverServiceWithClock(store, fixedClock(dayKey), slog.Default())

	selection, err := rs.ResolveDaily(context.Background(), "en_default")
	if err != nil {
		t.Fatalf("ResolveDaily() вернул ошибку: %v", err)
	}
	if selection.Reference != "43 3:16" {
		t.Errorf("Reference = %q, ожидался строковый id книги", selection.Reference)
	}
}

// TestResolveDaily_FetchMiss — популяция заявлена, но запись по offset
// отсутствует (хранилище изменилось между вызовами): ErrNoContent.
func TestResolveDaily_FetchMiss(t *testing.T) {
	store := &fakeStore{population: 100} // records пусты
	rs := NewResolverServiceWithClock(store, fixedClock("2024-01-01"), slog.Default())

	_, err := rs.ResolveDaily(context.Background(), "en_default")
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("err = %v, ожидался ErrNoContent", err)
	}
}

// TestResolveDaily_StoreError — ошибка хранилища пробрасывается.
func TestResolveDaily_StoreError(t *testing.T) {
	store := &fakeStore{countErr: repository.ErrStoreMissing}
	rs := NewResolverServiceWithClock(store, fixedClock("2024-01-01"), slog.Default())

	_, err := rs.ResolveDaily(context.Background(), "en_default")
	if !errors.Is(err, repository.ErrStoreMissing) {
		t.Errorf("err = %v, ожидался ErrStoreMissing", err)
	}
}
