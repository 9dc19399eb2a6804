package game

import (
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/camera"
	"x-avatar/internal/core/port/out/physics"
	"x-avatar/internal/core/port/out/scene"
	"x-avatar/internal/input"
	"x-avatar/internal/locomotion"
	"x-avatar/internal/peersync"
	"x-avatar/internal/telemetry"
)

// Приоритеты систем задают порядок кадра:
// ввод -> камера -> движение -> физика -> отрисовка -> синхронизация
const (
	PriorityInput      = 10
	PriorityCamera     = 20
	PriorityLocomotion = 30
	PriorityPhysics    = 40
	PriorityRender     = 50
	PriorityPeerSync   = 60
	PriorityTelemetry  = 100
)

// maxPhysicsStep ограничение шага физики после долгой паузы кадра
const maxPhysicsStep = 0.1

// FrameState состояние, которое системы передают друг другу внутри кадра
type FrameState struct {
	Input input.Frame
	Move  mgl64.Vec3 // скорость, выставленная контроллером движения
}

// InputSystem опрашивает слой ввода один раз за кадр
type InputSystem struct {
	unifier *input.Unifier
	state   *FrameState
}

func NewInputSystem(unifier *input.Unifier, state *FrameState) *InputSystem {
	return &InputSystem{unifier: unifier, state: state}
}

func (s *InputSystem) Update(deltaTime time.Duration) error {
	s.state.Input = s.unifier.Poll()
	return nil
}

func (s *InputSystem) GetName() string  { return "InputSystem" }
func (s *InputSystem) GetPriority() int { return PriorityInput }

// CameraSystem накапливает поворот и применяет его к камере рендера
type CameraSystem struct {
	rig    *camera.Rig
	camera scene.Node
	state  *FrameState
}

func NewCameraSystem(rig *camera.Rig, cam scene.Node, state *FrameState) *CameraSystem {
	return &CameraSystem{rig: rig, camera: cam, state: state}
}

func (s *CameraSystem) Update(deltaTime time.Duration) error {
	s.rig.Update(s.state.Input)
	s.rig.Apply(s.camera)
	return nil
}

func (s *CameraSystem) GetName() string  { return "CameraSystem" }
func (s *CameraSystem) GetPriority() int { return PriorityCamera }

// LocomotionSystem переводит намерение в скорость тела по рысканию камеры
type LocomotionSystem struct {
	controller *locomotion.Controller
	rig        *camera.Rig
	state      *FrameState
	logger     *log.Logger
}

func NewLocomotionSystem(controller *locomotion.Controller, rig *camera.Rig, state *FrameState, logger *log.Logger) *LocomotionSystem {
	return &LocomotionSystem{controller: controller, rig: rig, state: state, logger: logger}
}

func (s *LocomotionSystem) Update(deltaTime time.Duration) error {
	s.state.Move = s.controller.Step(s.state.Input.Move, s.rig.Yaw)
	if s.state.Input.Jump && !s.controller.Jump() {
		s.logger.Printf("[LocomotionSystem] Прыжок отклонен: нет опоры")
	}
	return nil
}

func (s *LocomotionSystem) GetName() string  { return "LocomotionSystem" }
func (s *LocomotionSystem) GetPriority() int { return PriorityLocomotion }

// PhysicsSystem шагает физический мир и переносит позу тела на меш аватара
type PhysicsSystem struct {
	world  physics.World
	avatar *LocalAvatar
}

func NewPhysicsSystem(world physics.World, avatar *LocalAvatar) *PhysicsSystem {
	return &PhysicsSystem{world: world, avatar: avatar}
}

func (s *PhysicsSystem) Update(deltaTime time.Duration) error {
	dt := deltaTime.Seconds()
	if dt > maxPhysicsStep {
		dt = maxPhysicsStep
	}
	if dt > 0 {
		s.world.Step(dt)
	}
	s.avatar.SyncMesh()
	return nil
}

func (s *PhysicsSystem) GetName() string  { return "PhysicsSystem" }
func (s *PhysicsSystem) GetPriority() int { return PriorityPhysics }

// RenderSystem вызывает отрисовку сцены
type RenderSystem struct {
	scene scene.Scene
}

func NewRenderSystem(s scene.Scene) *RenderSystem {
	return &RenderSystem{scene: s}
}

func (s *RenderSystem) Update(deltaTime time.Duration) error {
	return s.scene.Render()
}

func (s *RenderSystem) GetName() string  { return "RenderSystem" }
func (s *RenderSystem) GetPriority() int { return PriorityRender }

// PeerSyncSystem публикует итоговую позу кадра и применяет накопленные входящие сообщения
type PeerSyncSystem struct {
	sync    *peersync.Sync
	avatar  *LocalAvatar
	rig     *camera.Rig
	inbound <-chan []byte
}

func NewPeerSyncSystem(sync *peersync.Sync, avatar *LocalAvatar, rig *camera.Rig, inbound <-chan []byte) *PeerSyncSystem {
	return &PeerSyncSystem{sync: sync, avatar: avatar, rig: rig, inbound: inbound}
}

func (s *PeerSyncSystem) Update(deltaTime time.Duration) error {
	err := s.sync.Publish(s.avatar.Pose(s.rig))
	if s.inbound != nil {
		s.sync.Drain(s.inbound)
	}
	s.sync.EvictStale()
	return err
}

func (s *PeerSyncSystem) GetName() string  { return "PeerSyncSystem" }
func (s *PeerSyncSystem) GetPriority() int { return PriorityPeerSync }

// TelemetrySystem считает кадры и периодически выводит сводку
type TelemetrySystem struct {
	stats *telemetry.Manager
}

func NewTelemetrySystem(stats *telemetry.Manager) *TelemetrySystem {
	return &TelemetrySystem{stats: stats}
}

func (s *TelemetrySystem) Update(deltaTime time.Duration) error {
	s.stats.Inc(telemetry.CounterFrames)
	s.stats.MaybePrint(time.Now())
	return nil
}

func (s *TelemetrySystem) GetName() string  { return "TelemetrySystem" }
func (s *TelemetrySystem) GetPriority() int { return PriorityTelemetry }
