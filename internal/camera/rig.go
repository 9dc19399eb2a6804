package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/port/out/scene"
	"x-avatar/internal/input"
)

// Пределы тангажа
const (
	MinPitch = -math.Pi / 2
	MaxPitch = math.Pi / 2
)

// Rig накапливает рыскание и тангаж от дельт поворота.
// Источник дельт ему безразличен: захват указателя или жест касания.
type Rig struct {
	Yaw         float64
	Pitch       float64
	Sensitivity float64
	EyeHeight   float64

	source input.LookSource
}

// NewRig создает камеру с заданной чувствительностью
func NewRig(sensitivity, eyeHeight float64) *Rig {
	if sensitivity == 0 {
		sensitivity = 1
	}
	return &Rig{Sensitivity: sensitivity, EyeHeight: eyeHeight}
}

// ApplyLookDelta применяет дельту поворота; тангаж ограничивается [-π/2, π/2]
// Нечисловая дельта (NaN, ±Inf) отбрасывается целиком.
func (r *Rig) ApplyLookDelta(dx, dy float64) {
	yaw := r.Yaw + dx*r.Sensitivity
	pitch := r.Pitch + dy*r.Sensitivity
	if !finite(yaw) || !finite(pitch) {
		return
	}
	r.Yaw = WrapAngle(yaw)
	r.Pitch = mgl64.Clamp(pitch, MinPitch, MaxPitch)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Update применяет кадр ввода: запоминает активный источник и дельту
func (r *Rig) Update(frame input.Frame) {
	r.source = frame.LookSource
	if !frame.Look.IsZero() {
		r.ApplyLookDelta(frame.Look.Yaw, frame.Look.Pitch)
	}
}

// Source активный источник поворота
func (r *Rig) Source() input.LookSource { return r.source }

// LookActive управляет ли сейчас камерой какой-либо источник
func (r *Rig) LookActive() bool { return r.source != input.LookNone }

// Euler ориентация камеры в углах Эйлера (x - тангаж, y - рыскание, z - крен)
func (r *Rig) Euler() mgl64.Vec3 {
	return mgl64.Vec3{r.Pitch, r.Yaw, 0}
}

// Apply записывает ориентацию в камеру рендера
func (r *Rig) Apply(cam scene.Node) {
	if cam == nil {
		return
	}
	cam.SetRotation(r.Euler())
}

// Mount прикрепляет камеру к телу аватара на высоте глаз.
// Позиция дальше следует за родителем, независимо управляется только поворот.
func (r *Rig) Mount(s scene.Scene, avatar scene.Node) {
	s.Attach(s.Camera(), avatar, mgl64.Vec3{0, r.EyeHeight, 0})
}

// WrapAngle приводит угол к диапазону (-π, π] для долгих сессий
func WrapAngle(a float64) float64 {
	if a > -math.Pi && a <= math.Pi {
		return a
	}
	a = math.Remainder(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
