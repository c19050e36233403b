// Пакет repository — слой доступа к хранилищу контента.
// Daily Verse Service — read-only потребитель файлов версий SQLite
// (owned by dailyverse-import). Все запросы — чистый SQL через
// database/sql, без ORM.
package repository

import (
	"context"
	"errors"

	"github.com/bigkaa/dailyverse/internal/domain/model"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrUnknownVersion — версия отсутствует в конфигурации.
	ErrUnknownVersion = errors.New("неизвестная версия")
	// ErrStoreMissing — файл хранилища версии отсутствует на диске.
	ErrStoreMissing = errors.New("файл хранилища отсутствует")
)

// ContentStore — интерфейс доступа к версионированной коллекции контента.
// Порядок записей в версии — стабильный тотальный порядок (rowid),
// неизменный между вызовами и деплоями: на нём держится осмысленность
// индексов детерминированного выбора день ото дня.
type ContentStore interface {
	// Count возвращает размер популяции версии.
	Count(ctx context.Context, versionID string) (int, error)
	// FetchByOrdinalOffset возвращает запись на позиции offset
	// стабильного тотального порядка версии.
	// Выход за пределы популяции — ошибка вызывающего кода (ErrNotFound).
	FetchByOrdinalOffset(ctx context.Context, versionID string, offset int) (*model.ContentRecord, error)
	// LookupContainerLabel возвращает имя книги по идентификатору.
	// Промах — ErrNotFound; resolver подставляет строковый id.
	LookupContainerLabel(ctx context.Context, versionID string, containerID int) (string, error)
}
