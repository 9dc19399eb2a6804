package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
)

// Node узел сцены с локальным преобразованием
type Node interface {
	Name() string
	SetPosition(p mgl64.Vec3)
	SetRotation(euler mgl64.Vec3)
}

// Mesh видимый объект сцены
type Mesh interface {
	Node
	SetColor(c entity.Color)
}

// Scene определяет интерфейс движка рендеринга
type Scene interface {
	// CreateMesh создает меш заданной формы
	CreateMesh(name string, shape entity.Shape) Mesh

	// Camera возвращает камеру рендера
	Camera() Node

	// Attach прикрепляет child к parent с фиксированным локальным смещением
	Attach(child, parent Node, offset mgl64.Vec3)

	// RemoveMesh удаляет меш со сцены
	RemoveMesh(mesh Mesh)

	// Render отрисовывает кадр
	Render() error

	// Resize уведомляет о новом размере окна
	Resize(width, height int)
}
