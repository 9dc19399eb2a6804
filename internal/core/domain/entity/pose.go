package entity

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Pose представляет позу аватара: позиция и необязательная ориентация (углы Эйлера)
type Pose struct {
	Position    mgl64.Vec3
	Rotation    mgl64.Vec3
	HasRotation bool
}

// NewPose создает позу только с позицией
func NewPose(position mgl64.Vec3) Pose {
	return Pose{Position: position}
}

// WithRotation возвращает копию позы с заданной ориентацией
func (p Pose) WithRotation(rotation mgl64.Vec3) Pose {
	p.Rotation = rotation
	p.HasRotation = true
	return p
}
