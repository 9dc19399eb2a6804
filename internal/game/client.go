package game

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/camera"
	"x-avatar/internal/config"
	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/core/port/out/physics"
	"x-avatar/internal/core/port/out/scene"
	"x-avatar/internal/input"
	"x-avatar/internal/locomotion"
	"x-avatar/internal/peersync"
	"x-avatar/internal/telemetry"
)

// LocalAvatar аватар локального игрока: тело капсулы и меш, которым владеет сцена
type LocalAvatar struct {
	Name  string
	Mesh  scene.Mesh
	Body  physics.RigidBody
	Color entity.Color
}

// Pose итоговая поза кадра: позиция тела и ориентация камеры
func (a *LocalAvatar) Pose(rig *camera.Rig) entity.Pose {
	return entity.NewPose(a.Body.CenterWorld()).WithRotation(rig.Euler())
}

// SyncMesh переносит позицию и рыскание тела на меш
func (a *LocalAvatar) SyncMesh() {
	if a.Mesh == nil {
		return
	}
	a.Mesh.SetPosition(a.Body.CenterWorld())
	if q, ok := a.Body.Orientation(); ok {
		a.Mesh.SetRotation(mgl64.Vec3{0, locomotion.YawOf(q), 0})
	}
}

// Options зависимости клиента. Сцена и физический мир обязательны.
type Options struct {
	Name      string // пустое имя генерируется
	Config    *config.Config
	Scene     scene.Scene
	World     physics.World
	Profile   input.DeviceProfile
	Keymap    input.Keymap
	Viewport  mgl64.Vec2
	Publisher peersync.Publisher
	Inbound   <-chan []byte
	Stats     *telemetry.Manager
	Logger    *log.Logger
}

// Client собирает цикл кадра одного клиента
type Client struct {
	name       string
	cfg        *config.Config
	scene      scene.Scene
	world      physics.World
	avatar     *LocalAvatar
	unifier    *input.Unifier
	rig        *camera.Rig
	controller *locomotion.Controller
	sync       *peersync.Sync
	loop       *FrameLoop
	state      *FrameState
	stats      *telemetry.Manager
	logger     *log.Logger
}

// NewClient создает локальный аватар, монтирует камеру и регистрирует системы кадра
func NewClient(opts Options) (*Client, error) {
	if opts.Scene == nil || opts.World == nil {
		return nil, errors.New("scene and physics world are required")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Name == "" {
		opts.Name = opts.Config.Network.Name
	}
	if opts.Name == "" {
		opts.Name = entity.RandomPlayerName(nil)
	}
	if opts.Viewport == (mgl64.Vec2{}) {
		d := input.DefaultConfig()
		opts.Viewport = mgl64.Vec2{d.ViewportWidth, d.ViewportHeight}
	}
	cfg := opts.Config

	c := &Client{
		name:   opts.Name,
		cfg:    cfg,
		scene:  opts.Scene,
		world:  opts.World,
		state:  &FrameState{},
		stats:  opts.Stats,
		logger: opts.Logger,
	}

	shape := cfg.AvatarShape()
	spawn := mgl64.Vec3{0, cfg.Physics.SpawnHeight, 0}
	c.avatar = &LocalAvatar{
		Name:  c.name,
		Mesh:  opts.Scene.CreateMesh(c.name, shape),
		Body:  opts.World.CreateBody(c.name, shape, spawn, cfg.Physics.Mass),
		Color: entity.ColorForName(c.name),
	}
	c.avatar.Mesh.SetColor(c.avatar.Color)
	c.avatar.Mesh.SetPosition(spawn)

	c.unifier = input.NewUnifier(cfg.InputSettings(opts.Viewport.X(), opts.Viewport.Y()), opts.Profile, opts.Keymap)
	c.rig = camera.NewRig(cfg.Camera.Sensitivity, cfg.Camera.EyeHeight)
	c.rig.Mount(opts.Scene, c.avatar.Mesh)
	c.controller = locomotion.NewController(cfg.LocomotionSettings(), c.avatar.Body)

	factory := peersync.NewFactory(opts.Scene, opts.World, shape)
	c.sync = peersync.NewSync(c.name, factory, opts.Publisher, peersync.Options{
		StaleAfter: cfg.Network.StaleAfter,
		Stats:      opts.Stats,
		Logger:     opts.Logger,
	})

	c.loop = NewFrameLoop(cfg.Loop.TargetFPS, cfg.Loop.WarningRatio, opts.Logger)
	c.loop.RegisterSystem(NewInputSystem(c.unifier, c.state))
	c.loop.RegisterSystem(NewCameraSystem(c.rig, opts.Scene.Camera(), c.state))
	c.loop.RegisterSystem(NewLocomotionSystem(c.controller, c.rig, c.state, opts.Logger))
	c.loop.RegisterSystem(NewPhysicsSystem(opts.World, c.avatar))
	c.loop.RegisterSystem(NewRenderSystem(opts.Scene))
	c.loop.RegisterSystem(NewPeerSyncSystem(c.sync, c.avatar, c.rig, opts.Inbound))
	if opts.Stats != nil {
		c.loop.RegisterSystem(NewTelemetrySystem(opts.Stats))
	}

	c.logger.Printf("[Client] Игрок %s создан (цвет %s, устройство %s)",
		c.name, c.avatar.Color.Hex(), opts.Profile.Primary())
	return c, nil
}

func (c *Client) Name() string                       { return c.name }
func (c *Client) Avatar() *LocalAvatar               { return c.avatar }
func (c *Client) Rig() *camera.Rig                   { return c.rig }
func (c *Client) Controller() *locomotion.Controller { return c.controller }
func (c *Client) Sync() *peersync.Sync               { return c.sync }
func (c *Client) Loop() *FrameLoop                   { return c.loop }
func (c *Client) Unifier() *input.Unifier            { return c.unifier }

// Events очередь событий устройств; адаптеры пишут в нее из любых горутин
func (c *Client) Events() *input.Queue { return c.unifier.Queue() }

// LastFrame кадр ввода, опрошенный на последнем кадре
func (c *Client) LastFrame() input.Frame { return c.state.Input }

// Join сообщение о входе для соединения с ретранслятором
func (c *Client) Join() interface{} { return c.sync.Join() }

// Frame выполняет один кадр
func (c *Client) Frame(deltaTime time.Duration) {
	c.loop.Step(deltaTime)
}

// Run выполняет кадры до отмены ctx и выводит итоговую сводку
func (c *Client) Run(ctx context.Context) error {
	err := c.loop.Run(ctx)
	c.stats.PrintSummary(time.Now())
	return err
}
