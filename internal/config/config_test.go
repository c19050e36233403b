package config

import (
	"log/slog"
	"testing"
	"time"
)

// TestLoad_Defaults проверяет значения по умолчанию при минимальном окружении.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DV_DATA_DIR", "/data")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидался 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидался info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидался json", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидался 5s", cfg.ShutdownTimeout)
	}
	if got := cfg.Versions["en_default"]; got != "kjv.db" {
		t.Errorf("Versions[en_default] = %q, ожидался kjv.db", got)
	}
	if cfg.DefaultVersion != "en_default" {
		t.Errorf("DefaultVersion = %q, ожидался en_default", cfg.DefaultVersion)
	}
	if cfg.GenerationConfigured() {
		t.Error("GenerationConfigured() = true без API-ключа")
	}
}

// TestLoad_MissingDataDir проверяет ошибку при отсутствии обязательной переменной.
func TestLoad_MissingDataDir(t *testing.T) {
	t.Setenv("DV_DATA_DIR", "")

	if _, err := Load(); err == nil {
		t.Fatal("ожидалась ошибка при незаданном DV_DATA_DIR")
	}
}

// TestLoad_Versions проверяет разбор DV_VERSIONS и DV_DEFAULT_VERSION.
func TestLoad_Versions(t *testing.T) {
	t.Setenv("DV_DATA_DIR", "/data")
	t.Setenv("DV_VERSIONS", "en_default=kjv.db, es_default=rvr.db")
	t.Setenv("DV_DEFAULT_VERSION", "es_default")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if len(cfg.Versions) != 2 {
		t.Fatalf("len(Versions) = %d, ожидалось 2", len(cfg.Versions))
	}
	if cfg.Versions["es_default"] != "rvr.db" {
		t.Errorf("Versions[es_default] = %q, ожидался rvr.db", cfg.Versions["es_default"])
	}
	if cfg.DefaultVersion != "es_default" {
		t.Errorf("DefaultVersion = %q, ожидался es_default", cfg.DefaultVersion)
	}
}

// TestLoad_DefaultVersionNotListed — версия по умолчанию обязана входить в DV_VERSIONS.
func TestLoad_DefaultVersionNotListed(t *testing.T) {
	t.Setenv("DV_DATA_DIR", "/data")
	t.Setenv("DV_VERSIONS", "en_default=kjv.db")
	t.Setenv("DV_DEFAULT_VERSION", "fr_default")

	if _, err := Load(); err == nil {
		t.Fatal("ожидалась ошибка для версии, отсутствующей в DV_VERSIONS")
	}
}

// TestParseVersions_Invalid проверяет отклонение некорректных пар и путей.
func TestParseVersions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"пустая строка", ""},
		{"без знака равенства", "en_default"},
		{"пустое имя файла", "en_default="},
		{"путь с разделителем", "en_default=dir/kjv.db"},
		{"выход из каталога", "en_default=..kjv.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseVersions(tt.raw); err == nil {
				t.Errorf("parseVersions(%q): ожидалась ошибка", tt.raw)
			}
		})
	}
}

// TestLoad_InvalidLogLevel проверяет ошибку при недопустимом уровне логирования.
func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("DV_DATA_DIR", "/data")
	t.Setenv("DV_LOG_LEVEL", "verbose")

	if _, err := Load(); err == nil {
		t.Fatal("ожидалась ошибка для недопустимого уровня логирования")
	}
}

// TestLoad_GenerationConfigured проверяет признак наличия возможности генерации.
func TestLoad_GenerationConfigured(t *testing.T) {
	t.Setenv("DV_DATA_DIR", "/data")
	t.Setenv("DV_GEN_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if !cfg.GenerationConfigured() {
		t.Error("GenerationConfigured() = false при заданном ключе")
	}
	if cfg.GenModel != "gpt-4.1-mini" {
		t.Errorf("GenModel = %q, ожидался gpt-4.1-mini", cfg.GenModel)
	}
}
