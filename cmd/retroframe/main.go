package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/retroframe/retroframe/internal/config"
	"github.com/retroframe/retroframe/internal/geo"
	"github.com/retroframe/retroframe/internal/logger"
	"github.com/retroframe/retroframe/internal/scanner"
	"github.com/retroframe/retroframe/internal/scheduler"
	"github.com/retroframe/retroframe/internal/source"
	"github.com/retroframe/retroframe/internal/storage"
	"github.com/retroframe/retroframe/internal/weather"
	"github.com/retroframe/retroframe/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Storage.LogsPath); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Cleanup()

	store, err := storage.NewStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	sources, err := source.Build(cfg.Sources)
	if err != nil {
		log.Fatalf("Failed to connect sources: %v", err)
	}
	defer func() {
		for _, src := range sources {
			src.Close()
		}
	}()

	scan := scanner.NewScanner(cfg, store, sources)

	// Первая индексация до старта сервера, чтобы слайдшоу
	// сразу имело что показывать
	if err := scan.Refresh(); err != nil {
		log.Printf("Initial indexing failed: %v", err)
	}

	sched := scheduler.NewScheduler(scan)
	sched.Start()
	defer sched.Stop()

	watcher, err := scanner.NewWatcher(cfg, scan)
	if err != nil {
		log.Printf("Failed to create file watcher: %v", err)
	} else {
		if err := watcher.Start(); err != nil {
			log.Printf("Failed to start file watcher: %v", err)
		}
		defer watcher.Stop()
	}

	weatherService := weather.NewService(&cfg.Weather)
	defer weatherService.Stop()

	geoResolver := geo.NewResolver(cfg.Geo.APIKey, cfg.Geo.Language)

	server := web.NewServer(cfg, store, scan, weatherService, geoResolver)

	// Завершение по сигналу, чтобы корректно закрыть БД и источники
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		log.Fatalf("Server failed: %v", err)
	case sig := <-sigChan:
		log.Printf("Received %s, shutting down", sig)
	}
}
