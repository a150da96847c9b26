package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"intentserver/classification"
	"intentserver/database"
	"intentserver/importer"
	"intentserver/internal/config"
	"intentserver/server"
)

func main() {
	log.Println("Запуск сервера классификации закупочных запросов...")

	// .env опционален, переменные окружения имеют приоритет
	if err := godotenv.Load(); err == nil {
		log.Println("Переменные окружения загружены из .env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки настроек: %v", err)
	}

	history, err := database.NewHistoryDB(cfg.HistoryDatabasePath)
	if err != nil {
		log.Fatalf("Ошибка открытия базы истории: %v", err)
	}
	defer history.Close()
	log.Printf("Используется база истории: %s", cfg.HistoryDatabasePath)

	manager, err := classification.NewModelManager(classification.ManagerOptions{
		ClassifierOptions: classification.ClassifierOptions{
			IntentMapping:        settings.ProcurementIntents,
			CorrectionDictionary: settings.CorrectionDictionary,
			EntityPatterns:       settings.EntityPatterns,
			EntityPriority:       settings.EntityPriority,
			LevenshteinThreshold: settings.LevenshteinThreshold,
			Config:               classification.MergeModelConfig(settings.MLConfig),
		},
		ModelPath: cfg.ModelPath,
	})
	if err != nil {
		log.Fatalf("Ошибка создания менеджера модели: %v", err)
	}

	// датасет нужен только если на диске нет готового артефакта
	dataset, err := importer.LoadDataset(cfg.DatasetPath)
	if err != nil {
		log.Printf("Датасет %s недоступен: %v", cfg.DatasetPath, err)
	}
	if err := manager.Initialize(dataset); err != nil {
		log.Fatalf("Ошибка инициализации модели: %v", err)
	}

	srv := server.NewServer(manager, history, server.Options{
		Port:           cfg.Port,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
	})

	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}
	log.Println("Сервер остановлен")
}
