package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"

	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/input"
	"x-avatar/internal/locomotion"
	"x-avatar/internal/physics"
)

// EnvPrefix префикс переменных окружения: XAVATAR_NETWORK_ENDPOINT и т.д.
const EnvPrefix = "XAVATAR"

type Config struct {
	Network    NetworkConfig    `mapstructure:"network"`
	Input      InputConfig      `mapstructure:"input"`
	Camera     CameraConfig     `mapstructure:"camera"`
	Locomotion LocomotionConfig `mapstructure:"locomotion"`
	Physics    PhysicsConfig    `mapstructure:"physics"`
	Loop       LoopConfig       `mapstructure:"loop"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Relay      RelayConfig      `mapstructure:"relay"`
}

type NetworkConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	Name           string        `mapstructure:"name"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
	InboundBuffer  int           `mapstructure:"inbound_buffer"`
}

type InputConfig struct {
	MouseSensitivity   float64       `mapstructure:"mouse_sensitivity"`
	TouchRotationSpeed float64       `mapstructure:"touch_rotation_speed"`
	TouchZone          float64       `mapstructure:"touch_zone"`
	JoystickScale      float64       `mapstructure:"joystick_scale"`
	JoystickRadius     float64       `mapstructure:"joystick_radius"`
	JoystickRegion     float64       `mapstructure:"joystick_region"`
	KeyHold            time.Duration `mapstructure:"key_hold"`
}

type CameraConfig struct {
	Sensitivity float64 `mapstructure:"sensitivity"`
	EyeHeight   float64 `mapstructure:"eye_height"`
}

type LocomotionConfig struct {
	MoveSpeed          float64 `mapstructure:"move_speed"`
	Damping            float64 `mapstructure:"damping"`
	JumpImpulse        float64 `mapstructure:"jump_impulse"`
	JumpRequiresGround bool    `mapstructure:"jump_requires_ground"`
}

type PhysicsConfig struct {
	Gravity        float64 `mapstructure:"gravity"`
	GroundHeight   float64 `mapstructure:"ground_height"`
	LinearDamping  float64 `mapstructure:"linear_damping"`
	AngularDamping float64 `mapstructure:"angular_damping"`
	CapsuleRadius  float64 `mapstructure:"capsule_radius"`
	CapsuleHeight  float64 `mapstructure:"capsule_height"`
	Mass           float64 `mapstructure:"mass"`
	SpawnHeight    float64 `mapstructure:"spawn_height"`
}

type LoopConfig struct {
	TargetFPS    int     `mapstructure:"target_fps"`
	WarningRatio float64 `mapstructure:"warning_ratio"`
}

type TelemetryConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	PrintInterval time.Duration `mapstructure:"print_interval"`
}

type RelayConfig struct {
	Listen        string        `mapstructure:"listen"`
	Path          string        `mapstructure:"path"`
	BatchInterval time.Duration `mapstructure:"batch_interval"`
}

// SetDefaults задает значения по умолчанию для всех параметров
func SetDefaults(v *viper.Viper) {
	in := input.DefaultConfig()
	loco := locomotion.DefaultConfig()
	phys := physics.DefaultConfig()

	v.SetDefault("network.endpoint", "ws://localhost:8080/ws")
	v.SetDefault("network.name", "")
	v.SetDefault("network.reconnect_delay", 2*time.Second)
	v.SetDefault("network.stale_after", time.Duration(0))
	v.SetDefault("network.inbound_buffer", 256)

	v.SetDefault("input.mouse_sensitivity", in.MouseSensitivity)
	v.SetDefault("input.touch_rotation_speed", in.TouchRotationSpeed)
	v.SetDefault("input.touch_zone", in.TouchZone)
	v.SetDefault("input.joystick_scale", in.JoystickScale)
	v.SetDefault("input.joystick_radius", in.JoystickRadius)
	v.SetDefault("input.joystick_region", in.JoystickRegion)
	v.SetDefault("input.key_hold", 500*time.Millisecond)

	v.SetDefault("camera.sensitivity", 1.0)
	v.SetDefault("camera.eye_height", 0.8)

	v.SetDefault("locomotion.move_speed", loco.MoveSpeed)
	v.SetDefault("locomotion.damping", loco.Damping)
	v.SetDefault("locomotion.jump_impulse", loco.JumpImpulse)
	v.SetDefault("locomotion.jump_requires_ground", loco.JumpRequiresGround)

	v.SetDefault("physics.gravity", phys.Gravity.Y())
	v.SetDefault("physics.ground_height", phys.GroundHeight)
	v.SetDefault("physics.linear_damping", phys.LinearDamping)
	v.SetDefault("physics.angular_damping", phys.AngularDamping)
	v.SetDefault("physics.capsule_radius", 0.5)
	v.SetDefault("physics.capsule_height", 2.0)
	v.SetDefault("physics.mass", 1.0)
	v.SetDefault("physics.spawn_height", 3.0)

	v.SetDefault("loop.target_fps", 60)
	v.SetDefault("loop.warning_ratio", 0.8)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.print_interval", 5*time.Second)

	v.SetDefault("relay.listen", ":8080")
	v.SetDefault("relay.path", "/ws")
	v.SetDefault("relay.batch_interval", time.Duration(0))
}

// Load читает конфигурацию: значения по умолчанию, затем файл (если есть),
// затем переменные окружения XAVATAR_*.
// Пустой path ищет config.yaml в текущем каталоге; его отсутствие не ошибка.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default конфигурация только из значений по умолчанию.
// Значения по умолчанию заданы в коде, ошибка их разбора означает ошибку программы.
func Default() *Config {
	cfg, err := decodeDefaults()
	if err != nil {
		panic(err)
	}
	return cfg
}

func decodeDefaults() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет значения, при которых клиент не сможет работать
func (c *Config) Validate() error {
	if c.Network.Endpoint == "" {
		return errors.New("network.endpoint is required")
	}
	if c.Loop.TargetFPS <= 0 {
		return fmt.Errorf("loop.target_fps must be positive, got %d", c.Loop.TargetFPS)
	}
	if c.Physics.CapsuleRadius <= 0 || c.Physics.CapsuleHeight <= 0 {
		return fmt.Errorf("invalid capsule %.2fx%.2f", c.Physics.CapsuleRadius, c.Physics.CapsuleHeight)
	}
	if c.Input.TouchZone < 0 || c.Input.TouchZone > 1 {
		return fmt.Errorf("input.touch_zone must be within [0,1], got %.2f", c.Input.TouchZone)
	}
	return nil
}

// InputSettings настройки слоя ввода для экрана width x height
func (c *Config) InputSettings(width, height float64) input.Config {
	return input.Config{
		MouseSensitivity:   c.Input.MouseSensitivity,
		TouchRotationSpeed: c.Input.TouchRotationSpeed,
		TouchZone:          c.Input.TouchZone,
		JoystickScale:      c.Input.JoystickScale,
		JoystickRadius:     c.Input.JoystickRadius,
		JoystickRegion:     c.Input.JoystickRegion,
		ViewportWidth:      width,
		ViewportHeight:     height,
	}
}

func (c *Config) LocomotionSettings() locomotion.Config {
	return locomotion.Config{
		MoveSpeed:          c.Locomotion.MoveSpeed,
		Damping:            c.Locomotion.Damping,
		JumpImpulse:        c.Locomotion.JumpImpulse,
		JumpRequiresGround: c.Locomotion.JumpRequiresGround,
	}
}

// PhysicsSettings конфигурация мира; остальные поля берутся по умолчанию
func (c *Config) PhysicsSettings() *physics.Config {
	p := physics.DefaultConfig()
	p.Gravity = mgl64.Vec3{0, c.Physics.Gravity, 0}
	p.GroundHeight = c.Physics.GroundHeight
	p.LinearDamping = c.Physics.LinearDamping
	p.AngularDamping = c.Physics.AngularDamping
	p.StepRate = c.Loop.TargetFPS
	return p
}

// AvatarShape капсула аватара, общая для локального и удаленных игроков
func (c *Config) AvatarShape() entity.Shape {
	return entity.Capsule(c.Physics.CapsuleRadius, c.Physics.CapsuleHeight)
}
