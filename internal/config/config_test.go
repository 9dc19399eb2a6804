package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Network.Endpoint != "ws://localhost:8080/ws" {
		t.Errorf("неверный адрес по умолчанию: %s", cfg.Network.Endpoint)
	}
	if cfg.Network.StaleAfter != 0 {
		t.Errorf("удаление устаревших аватаров по умолчанию выключено, получили %v", cfg.Network.StaleAfter)
	}
	if cfg.Locomotion.MoveSpeed != 5 || cfg.Locomotion.Damping != 0.9 || cfg.Locomotion.JumpImpulse != 5 {
		t.Errorf("неверные параметры движения: %+v", cfg.Locomotion)
	}
	if !cfg.Locomotion.JumpRequiresGround {
		t.Error("прыжок по умолчанию требует опоры")
	}
	if cfg.Input.MouseSensitivity != 0.002 || cfg.Input.TouchZone != 0.7 {
		t.Errorf("неверные параметры ввода: %+v", cfg.Input)
	}
	if cfg.Loop.TargetFPS != 60 {
		t.Errorf("ожидали 60 кадров в секунду, получили %d", cfg.Loop.TargetFPS)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	data := []byte(`
network:
  endpoint: ws://relay.local:9000/ws
  name: Player42
  stale_after: 3s
locomotion:
  move_speed: 7.5
loop:
  target_fps: 30
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XAVATAR_NETWORK_NAME", "Player7")
	t.Setenv("XAVATAR_CAMERA_EYE_HEIGHT", "1.25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Network.Endpoint != "ws://relay.local:9000/ws" {
		t.Errorf("адрес из файла не применен: %s", cfg.Network.Endpoint)
	}
	if cfg.Network.Name != "Player7" {
		t.Errorf("переменная окружения должна перекрывать файл: %s", cfg.Network.Name)
	}
	if cfg.Network.StaleAfter != 3*time.Second {
		t.Errorf("ожидали 3s, получили %v", cfg.Network.StaleAfter)
	}
	if cfg.Camera.EyeHeight != 1.25 {
		t.Errorf("ожидали высоту глаз 1.25, получили %v", cfg.Camera.EyeHeight)
	}
	if cfg.Locomotion.MoveSpeed != 7.5 || cfg.Locomotion.Damping != 0.9 {
		t.Errorf("неверные параметры движения: %+v", cfg.Locomotion)
	}
	if cfg.PhysicsSettings().StepRate != 30 {
		t.Errorf("шаг физики должен следовать частоте кадров")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("ожидали ошибку для отсутствующего файла")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"empty endpoint", func(c *Config) { c.Network.Endpoint = "" }},
		{"zero fps", func(c *Config) { c.Loop.TargetFPS = 0 }},
		{"zero capsule", func(c *Config) { c.Physics.CapsuleRadius = 0 }},
		{"touch zone", func(c *Config) { c.Input.TouchZone = 1.5 }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("конфигурация по умолчанию должна быть валидной: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("ожидали ошибку валидации")
			}
		})
	}
}

func TestSettingsConversion(t *testing.T) {
	cfg := Default()
	in := cfg.InputSettings(800, 600)
	if in.ViewportWidth != 800 || in.ViewportHeight != 600 || in.JoystickRadius != cfg.Input.JoystickRadius {
		t.Errorf("неверные настройки ввода: %+v", in)
	}
	if cfg.PhysicsSettings().Gravity.Y() != cfg.Physics.Gravity {
		t.Error("гравитация не перенесена")
	}
	shape := cfg.AvatarShape()
	if shape.Radius != 0.5 || shape.Height != 2 {
		t.Errorf("неверная капсула: %+v", shape)
	}
	if !cfg.LocomotionSettings().JumpRequiresGround {
		t.Error("флаг прыжка не перенесен")
	}
}

func TestDefault_MatchesLoadWithoutFile(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(wd)

	decoded, err := decodeDefaults()
	if err != nil {
		t.Fatalf("значения по умолчанию не разбираются: %v", err)
	}
	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(decoded, loaded) || !reflect.DeepEqual(Default(), loaded) {
		t.Errorf("Default расходится с Load:\n%+v\n%+v", Default(), loaded)
	}
	if Default().Input.KeyHold != 500*time.Millisecond {
		t.Errorf("удержание клавиши по умолчанию 500ms, получили %v", Default().Input.KeyHold)
	}
}
