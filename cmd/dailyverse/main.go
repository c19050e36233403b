// main.go — точка входа Daily Verse Service.
// Сборка зависимостей: config, logger, хранилище контента, генерация,
// memo-кэш, dephealth, HTTP-сервер.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/bigkaa/dailyverse/internal/api/handlers"
	"github.com/bigkaa/dailyverse/internal/api/middleware"
	"github.com/bigkaa/dailyverse/internal/config"
	"github.com/bigkaa/dailyverse/internal/genclient"
	"github.com/bigkaa/dailyverse/internal/repository"
	"github.com/bigkaa/dailyverse/internal/server"
	"github.com/bigkaa/dailyverse/internal/service"
	"github.com/bigkaa/dailyverse/internal/web"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Daily Verse Service запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Int("versions", len(cfg.Versions)),
		slog.String("default_version", cfg.DefaultVersion),
	)

	// 3. Хранилище контента и проверка готовности версии по умолчанию
	store := repository.NewVerseStore(cfg.DataDir, cfg.Versions)
	storeChecker := repository.NewReadinessChecker(store, cfg.DefaultVersion)

	// 4. Генерация: клиент создаётся только при настроенной возможности.
	// Без ключа сервис работает целиком на fallback-записях.
	var generator service.Generator
	if cfg.GenerationConfigured() {
		generator = genclient.New(cfg.GenEndpoint, cfg.GenAPIKey, cfg.GenModel, cfg.GenTimeout, logger)
		logger.Info("Генерация настроена", slog.String("model", cfg.GenModel))
	} else {
		logger.Info("Генерация не настроена, используются fallback-записи")
	}

	// 5. Сервисный слой
	resolver := service.NewResolverService(store, logger)
	generation := service.NewGenerationService(generator, logger)
	cache := service.NewPayloadCache(cfg.CacheSize, cfg.CacheTTL)
	assembler := service.NewAssembleService(resolver, generation, cache, logger)

	// 6. Dephealth: мониторинг внешнего генератора (только при настроенной генерации)
	var dephealthSvc *service.DephealthService
	if cfg.GenerationConfigured() {
		var dephealthErr error
		dephealthSvc, dephealthErr = service.NewDephealthService(
			"dailyverse",
			cfg.DephealthGroup,
			cfg.GenEndpoint,
			cfg.GenHealthPath,
			cfg.DephealthCheckInterval,
			cfg.DephealthIsEntry,
			logger,
		)
		if dephealthErr != nil {
			logger.Warn("Dephealth не инициализирован",
				slog.String("error", dephealthErr.Error()),
			)
			dephealthSvc = nil
		} else if startErr := dephealthSvc.Start(context.Background()); startErr != nil {
			logger.Warn("Dephealth не запущен", slog.String("error", startErr.Error()))
			dephealthSvc = nil
		}
	}

	// 7. Обработчики
	healthHandler := handlers.NewHealthHandler(storeChecker)
	staticHandler := handlers.NewStaticHandler(web.FS(), logger)
	apiHandler := handlers.NewAPIHandler(assembler, cfg.DefaultVersion, healthHandler, logger)

	// 8. HTTP-сервер: request-id → logging → metrics
	srv := server.New(cfg, logger, apiHandler, staticHandler,
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
	)

	// 9. Запуск сервера (блокирующий вызов с graceful shutdown)
	runErr := srv.Run()

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", runErr)
	}

	logger.Info("Daily Verse Service остановлен")
}
