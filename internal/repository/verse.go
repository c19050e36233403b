package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // драйвер sqlite3

	"github.com/bigkaa/dailyverse/internal/domain/model"
)

// verseStore — реализация ContentStore над файлами версий SQLite.
// Отображение версия → имя файла задаётся конфигурацией; соединение
// открывается на время одного вызова (открыл, использовал, закрыл —
// пул не требуется для корректности на read-only файлах).
type verseStore struct {
	dataDir  string
	versions map[string]string
}

// NewVerseStore создаёт хранилище контента над каталогом файлов версий.
// versions — отображение версия → имя файла БД внутри dataDir.
func NewVerseStore(dataDir string, versions map[string]string) ContentStore {
	return &verseStore{
		dataDir:  dataDir,
		versions: versions,
	}
}

// open открывает read-only соединение с файлом версии.
// Вызывающий код обязан закрыть соединение.
func (s *verseStore) open(versionID string) (*sql.DB, error) {
	filename, ok := s.versions[versionID]
	if !ok {
		return nil, fmt.Errorf("версия %q: %w", versionID, ErrUnknownVersion)
	}

	path := filepath.Join(s.dataDir, filename)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("версия %q (%s): %w", versionID, path, ErrStoreMissing)
		}
		return nil, fmt.Errorf("проверка файла версии %q: %w", versionID, err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("открытие файла версии %q: %w", versionID, err)
	}
	return db, nil
}

// Count возвращает количество записей в версии.
func (s *verseStore) Count(ctx context.Context, versionID string) (int, error) {
	db, err := s.open(versionID)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("подсчёт записей версии %q: %w", versionID, err)
	}
	return count, nil
}

// FetchByOrdinalOffset возвращает запись на позиции offset порядка rowid.
// rowid — физический порядок вставки, стабильный между вызовами:
// dailyverse-import наполняет файл один раз, сервис его не изменяет.
func (s *verseStore) FetchByOrdinalOffset(ctx context.Context, versionID string, offset int) (*model.ContentRecord, error) {
	db, err := s.open(versionID)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	record := &model.ContentRecord{}
	err = db.QueryRowContext(ctx,
		`SELECT book_id, chapter, verse, text FROM verses ORDER BY rowid LIMIT 1 OFFSET ?`,
		offset,
	).Scan(&record.ContainerID, &record.OrdinalMajor, &record.OrdinalMinor, &record.Body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("offset %d версии %q: %w", offset, versionID, ErrNotFound)
		}
		return nil, fmt.Errorf("выборка записи версии %q: %w", versionID, err)
	}
	return record, nil
}

// LookupContainerLabel возвращает имя книги по идентификатору или ErrNotFound.
func (s *verseStore) LookupContainerLabel(ctx context.Context, versionID string, containerID int) (string, error) {
	db, err := s.open(versionID)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM books WHERE id = ?`, containerID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("книга %d версии %q: %w", containerID, versionID, ErrNotFound)
		}
		return "", fmt.Errorf("поиск имени книги версии %q: %w", versionID, err)
	}
	return name, nil
}

// ReadinessChecker — проверка готовности хранилища для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	store   ContentStore
	version string
}

// NewReadinessChecker создаёт проверку готовности хранилища.
// version — версия по умолчанию, по которой выполняется probe.
func NewReadinessChecker(store ContentStore, version string) *ReadinessChecker {
	return &ReadinessChecker{store: store, version: version}
}

// CheckReady проверяет доступность файла версии по умолчанию.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	if c.store == nil {
		return "fail", "хранилище не инициализировано"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	count, err := c.store.Count(ctx, c.version)
	if err != nil {
		return "fail", fmt.Sprintf("хранилище недоступно: %v", err)
	}
	if count == 0 {
		return "degraded", "популяция версии по умолчанию пуста"
	}
	return "ok", fmt.Sprintf("записей в версии по умолчанию: %d", count)
}
