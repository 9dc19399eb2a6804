package peersync

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/core/port/out/physics"
	"x-avatar/internal/core/port/out/scene"
)

// Spawner создает и удаляет представления удаленных игроков
type Spawner interface {
	Spawn(name string) *RemoteAvatar
	Despawn(a *RemoteAvatar)
}

// Factory создает меш и тело удаленного аватара той же формы, что у локального
type Factory struct {
	scene   scene.Scene
	physics physics.World
	shape   entity.Shape
}

// NewFactory создает фабрику аватаров; любая из зависимостей может быть nil
func NewFactory(s scene.Scene, w physics.World, shape entity.Shape) *Factory {
	return &Factory{scene: s, physics: w, shape: shape}
}

// Spawn создает аватар в начале координат с цветом по числовому id из имени.
// Тело кинематическое: удаленный игрок - препятствие, его двигают только сообщения.
func (f *Factory) Spawn(name string) *RemoteAvatar {
	a := &RemoteAvatar{
		Name:  name,
		Color: entity.ColorForName(name),
	}
	if f.scene != nil {
		a.Mesh = f.scene.CreateMesh(name, f.shape)
		a.Mesh.SetColor(a.Color)
	}
	if f.physics != nil {
		a.Body = f.physics.CreateBody(name, f.shape, mgl64.Vec3{}, 0)
	}
	return a
}

// Despawn удаляет меш и тело
func (f *Factory) Despawn(a *RemoteAvatar) {
	if f.scene != nil && a.Mesh != nil {
		f.scene.RemoveMesh(a.Mesh)
	}
	if f.physics != nil && a.Body != nil {
		f.physics.RemoveBody(a.Body)
	}
}
