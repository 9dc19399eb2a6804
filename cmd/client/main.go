package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/config"
	"x-avatar/internal/game"
	"x-avatar/internal/input"
	"x-avatar/internal/peersync"
	"x-avatar/internal/physics"
	"x-avatar/internal/telemetry"
	"x-avatar/internal/terminal"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к файлу конфигурации (yaml)")
		serverURL  = flag.String("url", "", "URL WebSocket ретранслятора")
		name       = flag.String("name", "", "Имя игрока (PlayerN); по умолчанию случайное")
		touch      = flag.Bool("touch", false, "Сенсорный профиль: перетаскивание мышью работает как касание")
		logPath    = flag.String("log", "x-avatar.log", "Файл журнала (пусто - без журнала)")
		scale      = flag.Float64("scale", 1, "Ячеек на метр по вертикали")
	)
	flag.Parse()

	// экран занят отрисовкой, журнал пишется в файл
	out := io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка открытия журнала: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := log.New(out, "", log.LstdFlags)

	if err := run(*configPath, *serverURL, *name, *touch, *scale, logger); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(configPath, serverURL, name string, touch bool, scale float64, logger *log.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if serverURL != "" {
		cfg.Network.Endpoint = serverURL
	}
	if name != "" {
		cfg.Network.Name = name
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	caps := terminal.Capabilities()
	if touch {
		caps = input.Capabilities{TouchSupported: true, MaxTouchPoints: 1}
	}
	width, height := screen.Size()
	renderer := terminal.NewRenderer(screen, scale)
	stats := telemetry.NewManager(cfg.Telemetry.Enabled, cfg.Telemetry.PrintInterval, logger)
	world := physics.NewWorld(cfg.PhysicsSettings(), logger)

	var client *game.Client
	link := peersync.NewLink(peersync.LinkConfig{
		URL:            cfg.Network.Endpoint,
		ReconnectDelay: cfg.Network.ReconnectDelay,
		InboundBuffer:  cfg.Network.InboundBuffer,
	}, func() interface{} { return client.Join() }, stats, logger)

	client, err = game.NewClient(game.Options{
		Name:      cfg.Network.Name,
		Config:    cfg,
		Scene:     renderer,
		World:     world,
		Profile:   input.Classify(caps),
		Viewport:  mgl64.Vec2{float64(width) * terminal.CellWidth, float64(height) * terminal.CellHeight},
		Publisher: link,
		Inbound:   link.Inbound(),
		Stats:     stats,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	renderer.Follow(client.Name())
	renderer.ShowJoystick(client.Unifier())
	renderer.SetHUD(func() string {
		rig := client.Rig()
		return terminal.StatusLine(client.Name(), client.Avatar().Body.CenterWorld(),
			rig.Yaw, rig.Pitch, rig.Source().String(), client.Sync().Registry().Len(), link.Connected())
	})

	device := terminal.NewDevice(client.Events(), cfg.Input.KeyHold)
	inputSystem := terminal.NewInputSystem(device, terminal.PollEvents(screen, 64), quit)
	inputSystem.OnResize(renderer.Resize)
	client.Loop().RegisterSystem(inputSystem)

	go func() {
		if err := link.Run(ctx); err != nil {
			logger.Printf("[Client %s] Соединение закрыто: %v", client.Name(), err)
		}
	}()

	started := time.Now()
	err = client.Run(ctx)
	logger.Printf("[Client %s] Завершение работы через %v, кадров %d",
		client.Name(), time.Since(started).Round(time.Second), client.Loop().FrameCount())
	return err
}
