// Пакет importer — создание файлов версий из TSV-выгрузок.
// Применение схемы (golang-migrate) и пакетная загрузка стихов в рамках
// одной транзакции. Используется утилитой dailyverse-import; сервис
// открывает готовые файлы только для чтения.
package importer

import (
	"bufio"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// tsvColumns — формат строки выгрузки: book_id, book_name, chapter, verse, text.
const tsvColumns = 5

// Migrate применяет SQL-миграции из embedded FS к файлу версии.
// Файл создаётся при отсутствии.
func Migrate(dbPath string, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, "sqlite3://"+dbPath)
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Миграции применены",
		slog.String("db", dbPath),
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}

// ImportTSV загружает стихи из TSV-потока в файл версии.
// Формат строки: book_id \t book_name \t chapter \t verse \t text.
// Пустые строки и строки, начинающиеся с "#", пропускаются.
// Вся загрузка выполняется в одной транзакции: частичный импорт невозможен.
// Возвращает количество загруженных стихов.
func ImportTSV(ctx context.Context, dbPath, versionName string, r io.Reader, logger *slog.Logger) (int, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return 0, fmt.Errorf("открытие %s: %w", dbPath, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op после commit

	bookStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO books (id, name) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("подготовка insert books: %w", err)
	}
	defer bookStmt.Close()

	verseStmt, err := tx.PrepareContext(ctx, `INSERT INTO verses (book_id, chapter, verse, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("подготовка insert verses: %w", err)
	}
	defer verseStmt.Close()

	count := 0
	lineNo := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			return 0, fmt.Errorf("строка %d: %w", lineNo, err)
		}

		if _, err := bookStmt.ExecContext(ctx, rec.bookID, rec.bookName); err != nil {
			return 0, fmt.Errorf("строка %d: insert books: %w", lineNo, err)
		}
		if _, err := verseStmt.ExecContext(ctx, rec.bookID, rec.chapter, rec.verse, rec.text); err != nil {
			return 0, fmt.Errorf("строка %d: insert verses: %w", lineNo, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("чтение TSV: %w", err)
	}
	if count == 0 {
		return 0, fmt.Errorf("выгрузка не содержит ни одного стиха")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('version_name', ?)`, versionName); err != nil {
		return 0, fmt.Errorf("запись метаданных: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	logger.Info("Импорт завершён",
		slog.String("db", dbPath),
		slog.String("name", versionName),
		slog.Int("verses", count),
	)

	return count, nil
}

// record — одна разобранная строка выгрузки.
type record struct {
	bookID   int
	bookName string
	chapter  int
	verse    int
	text     string
}

// parseLine разбирает TSV-строку. Текст стиха может содержать любые
// символы кроме табуляции и перевода строки.
func parseLine(line string) (*record, error) {
	fields := strings.SplitN(line, "\t", tsvColumns)
	if len(fields) != tsvColumns {
		return nil, fmt.Errorf("ожидалось %d колонок, получено %d", tsvColumns, len(fields))
	}

	bookID, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("book_id %q: %w", fields[0], err)
	}
	chapter, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("chapter %q: %w", fields[2], err)
	}
	verse, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("verse %q: %w", fields[3], err)
	}

	if fields[1] == "" {
		return nil, fmt.Errorf("пустое имя книги")
	}
	if fields[4] == "" {
		return nil, fmt.Errorf("пустой текст стиха")
	}

	return &record{
		bookID:   bookID,
		bookName: fields[1],
		chapter:  chapter,
		verse:    verse,
		text:     fields[4],
	}, nil
}
