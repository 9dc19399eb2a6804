package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"x-avatar/internal/bot"
	"x-avatar/internal/config"
	"x-avatar/internal/game"
	"x-avatar/internal/input"
	"x-avatar/internal/peersync"
	"x-avatar/internal/physics"
	"x-avatar/internal/scene/headless"
	"x-avatar/internal/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к файлу конфигурации (yaml)")
		serverURL  = flag.String("url", "", "URL WebSocket ретранслятора")
		name       = flag.String("name", "", "Имя игрока (PlayerN); по умолчанию случайное")
		pattern    = flag.String("pattern", bot.PatternRandom, "Паттерн движения (random, circle, linear)")
		duration   = flag.Duration("duration", 30*time.Second, "Длительность работы бота")
		jumpEvery  = flag.Duration("jump", 3*time.Second, "Интервал прыжков (0 - без прыжков)")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Зерно случайного паттерна")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("[Bot] Ошибка загрузки конфигурации: %v", err)
	}
	if *serverURL != "" {
		cfg.Network.Endpoint = *serverURL
	}
	if *name != "" {
		cfg.Network.Name = *name
	}

	stats := telemetry.NewManager(cfg.Telemetry.Enabled, cfg.Telemetry.PrintInterval, logger)
	world := physics.NewWorld(cfg.PhysicsSettings(), logger)
	scene := headless.New()

	var client *game.Client
	link := peersync.NewLink(peersync.LinkConfig{
		URL:            cfg.Network.Endpoint,
		ReconnectDelay: cfg.Network.ReconnectDelay,
		InboundBuffer:  cfg.Network.InboundBuffer,
	}, func() interface{} { return client.Join() }, stats, logger)

	// бот управляет аватаром через виртуальный джойстик
	profile := input.Classify(input.Capabilities{TouchSupported: true, MaxTouchPoints: 1})
	client, err = game.NewClient(game.Options{
		Name:      cfg.Network.Name,
		Config:    cfg,
		Scene:     scene,
		World:     world,
		Profile:   profile,
		Publisher: link,
		Inbound:   link.Inbound(),
		Stats:     stats,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatalf("[Bot] Ошибка создания клиента: %v", err)
	}

	driver, err := bot.NewDriver(*pattern, client.Events(), *seed, *jumpEvery)
	if err != nil {
		logger.Fatalf("[Bot %s] %v", client.Name(), err)
	}
	client.Loop().RegisterSystem(driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	go func() {
		if err := link.Run(ctx); err != nil {
			logger.Printf("[Bot %s] Соединение закрыто: %v", client.Name(), err)
		}
	}()

	logger.Printf("[Bot %s] Запуск: паттерн %s, длительность %v", client.Name(), *pattern, *duration)
	if err := client.Run(ctx); err != nil {
		logger.Printf("[Bot %s] Ошибка: %v", client.Name(), err)
		os.Exit(1)
	}
	driver.Stop()
	logger.Printf("[Bot %s] Завершение работы: команд %d, игроки рядом: %v",
		client.Name(), driver.Commands(), client.Sync().Registry().Names())
}
