package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"x-avatar/internal/config"
	"x-avatar/internal/relay"
	"x-avatar/internal/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к файлу конфигурации (yaml)")
		listen     = flag.String("listen", "", "Адрес для входящих соединений, например :8080")
		batch      = flag.Duration("batch", -1, "Интервал рассылки пачками (0 - пересылать сразу)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("[Relay] Ошибка загрузки конфигурации: %v", err)
	}
	if *listen != "" {
		cfg.Relay.Listen = *listen
	}
	if *batch >= 0 {
		cfg.Relay.BatchInterval = *batch
	}

	stats := telemetry.NewManager(cfg.Telemetry.Enabled, cfg.Telemetry.PrintInterval, logger)
	hub := relay.NewHub(relay.Config{BatchInterval: cfg.Relay.BatchInterval}, stats, logger)
	server := relay.NewServer(cfg.Relay.Listen, cfg.Relay.Path, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				stats.MaybePrint(now)
			}
		}
	}()

	if cfg.Relay.BatchInterval > 0 {
		logger.Printf("[Relay] Рассылка пачками каждые %v", cfg.Relay.BatchInterval)
	}
	if err := server.Run(ctx); err != nil {
		logger.Fatalf("[Relay] Ошибка сервера: %v", err)
	}
	stats.PrintSummary(time.Now())
}
