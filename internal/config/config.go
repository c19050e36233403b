// Пакет config — загрузка и валидация конфигурации Daily Verse Service
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
// Одновременно служит тегом поколения клиентского кэша: смена версии
// при деплое вызывает вытеснение всех кэшей предыдущих поколений.
var Version = "dev"

// Config содержит все параметры конфигурации Daily Verse Service.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- Хранилище контента ---

	// Каталог с файлами версий (обязательный)
	DataDir string
	// Отображение версия → имя файла БД (en_default=kjv.db,...)
	Versions map[string]string
	// Версия по умолчанию, когда параметр version не передан
	DefaultVersion string

	// --- Внешний генератор ---

	// Базовый URL OpenAI-совместимого API
	GenEndpoint string
	// API-ключ. Пустой ключ = возможность генерации отсутствует,
	// pipeline всегда использует fallback.
	GenAPIKey string
	// Идентификатор модели
	GenModel string
	// Таймаут запроса к генератору
	GenTimeout time.Duration
	// Путь проверки здоровья генератора для dephealth
	GenHealthPath string

	// --- Кэш дневного payload ---

	// Максимальное количество записей memo-кэша
	CacheSize int
	// TTL записи memo-кэша
	CacheTTL time.Duration

	// --- Dephealth ---

	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Лейбл isentry=yes для всех зависимостей
	DephealthIsEntry bool
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DV_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("DV_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("DV_PORT: %w", err)
	}

	// DV_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("DV_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("DV_LOG_LEVEL: %w", err)
	}

	// DV_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DV_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DV_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("DV_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DV_HTTP_READ_TIMEOUT: %w", err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration("DV_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DV_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("DV_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DV_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("DV_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DV_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Хранилище контента ---

	// DV_DATA_DIR — каталог с файлами версий (обязательная)
	cfg.DataDir, err = getEnvRequired("DV_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// DV_VERSIONS — отображение версия=файл через запятую
	// (по умолчанию en_default=kjv.db)
	versionsRaw := getEnvDefault("DV_VERSIONS", "en_default=kjv.db")
	cfg.Versions, err = parseVersions(versionsRaw)
	if err != nil {
		return nil, fmt.Errorf("DV_VERSIONS: %w", err)
	}

	// DV_DEFAULT_VERSION — версия по умолчанию (по умолчанию первая из DV_VERSIONS)
	cfg.DefaultVersion = getEnvDefault("DV_DEFAULT_VERSION", firstVersion(cfg.Versions))
	if _, ok := cfg.Versions[cfg.DefaultVersion]; !ok {
		return nil, fmt.Errorf("DV_DEFAULT_VERSION: версия %q отсутствует в DV_VERSIONS", cfg.DefaultVersion)
	}

	// --- Внешний генератор ---

	cfg.GenEndpoint = getEnvDefault("DV_GEN_ENDPOINT", "https://api.openai.com/v1")
	cfg.GenAPIKey = getEnvDefault("DV_GEN_API_KEY", "")
	cfg.GenModel = getEnvDefault("DV_GEN_MODEL", "gpt-4.1-mini")
	cfg.GenHealthPath = getEnvDefault("DV_GEN_HEALTH_PATH", "/models")

	cfg.GenTimeout, err = getEnvDuration("DV_GEN_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DV_GEN_TIMEOUT: %w", err)
	}

	// --- Кэш дневного payload ---

	cfg.CacheSize, err = getEnvInt("DV_CACHE_SIZE", 64)
	if err != nil {
		return nil, fmt.Errorf("DV_CACHE_SIZE: %w", err)
	}

	cfg.CacheTTL, err = getEnvDuration("DV_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DV_CACHE_TTL: %w", err)
	}

	// --- Dephealth ---

	cfg.DephealthGroup = getEnvDefault("DV_DEPHEALTH_GROUP", "dailyverse")

	cfg.DephealthCheckInterval, err = getEnvDuration("DV_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DV_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	cfg.DephealthIsEntry, err = getEnvBool("DEPHEALTH_ISENTRY", false)
	if err != nil {
		return nil, fmt.Errorf("DEPHEALTH_ISENTRY: %w", err)
	}

	return cfg, nil
}

// GenerationConfigured сообщает, настроена ли возможность внешней генерации.
// Отсутствие ключа трактуется pipeline так же, как отказ вызова.
func (c *Config) GenerationConfigured() bool {
	return c.GenAPIKey != "" && c.GenEndpoint != ""
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseVersions разбирает строку вида "en_default=kjv.db,es_default=rvr.db"
// в отображение версия → имя файла.
func parseVersions(raw string) (map[string]string, error) {
	versions := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, file, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		file = strings.TrimSpace(file)
		if !ok || name == "" || file == "" {
			return nil, fmt.Errorf("некорректная пара %q (ожидается версия=файл)", pair)
		}
		// Имя файла не должно выходить за пределы каталога данных
		if strings.ContainsAny(file, "/\\") || strings.Contains(file, "..") {
			return nil, fmt.Errorf("недопустимое имя файла %q", file)
		}
		versions[name] = file
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("не задано ни одной версии")
	}
	return versions, nil
}

// firstVersion возвращает лексикографически первую версию из отображения.
// Детерминированный выбор по умолчанию при нескольких версиях.
func firstVersion(versions map[string]string) string {
	names := make([]string, 0, len(versions))
	for name := range versions {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
