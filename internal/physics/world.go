package physics

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
	physicsport "x-avatar/internal/core/port/out/physics"
)

// World встроенный упрощенный физический мир: гравитация, плоскость земли,
// расталкивание вертикальных капсул и интегрирование вращения.
type World struct {
	cfg    *Config
	bodies []*Body
	logger *log.Logger
}

// NewWorld создает мир; nil-конфигурация берется из GetConfig
func NewWorld(cfg *Config, logger *log.Logger) *World {
	if cfg == nil {
		cfg = GetConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &World{cfg: cfg, logger: logger}
}

// CreateBody создает тело; mass <= 0 дает кинематическое препятствие
func (w *World) CreateBody(name string, shape entity.Shape, position mgl64.Vec3, mass float64) physicsport.RigidBody {
	b := newBody(name, shape, position, mass)
	w.bodies = append(w.bodies, b)
	return b
}

// RemoveBody удаляет тело из симуляции
func (w *World) RemoveBody(body physicsport.RigidBody) {
	for i, b := range w.bodies {
		if physicsport.RigidBody(b) == body {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// Bodies количество тел в мире
func (w *World) Bodies() int { return len(w.bodies) }

// Step продвигает симуляцию на dt секунд.
// Обработчики всех тел выполняются до интегрирования шага.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, b := range w.bodies {
		b.runHooks()
	}
	for _, b := range w.bodies {
		w.integrate(b, dt)
	}
	w.resolveContacts()
	for _, b := range w.bodies {
		w.resolveGround(b)
	}
}

func (w *World) integrate(b *Body, dt float64) {
	b.initialized = true
	if b.Kinematic() {
		return
	}

	b.velocity = b.velocity.Add(w.cfg.Gravity.Mul(dt))
	b.velocity = b.velocity.Mul(dampFactor(w.cfg.LinearDamping, dt))
	b.position = b.position.Add(b.velocity.Mul(dt))

	b.angular = b.angular.Mul(dampFactor(w.cfg.AngularDamping, dt))
	if l := b.angular.Len(); l > 0 {
		dq := mgl64.QuatRotate(l*dt, b.angular.Mul(1/l))
		b.orientation = dq.Mul(b.orientation).Normalize()
	}
}

func dampFactor(damping, dt float64) float64 {
	f := 1 - damping*dt
	if f < 0 {
		return 0
	}
	return f
}

func (w *World) resolveGround(b *Body) {
	half := b.shape.HalfHeight()
	bottom := b.position.Y() - half
	b.grounded = false
	if b.Kinematic() || bottom > w.cfg.GroundHeight+1e-3 {
		return
	}
	b.grounded = true
	if bottom < w.cfg.GroundHeight {
		b.position[1] = w.cfg.GroundHeight + half
	}
	if vy := b.velocity.Y(); vy < 0 {
		bounce := -vy * w.cfg.Restitution
		if bounce < 0.1 {
			bounce = 0
		}
		b.velocity[1] = bounce
	}
}

// resolveContacts расталкивает пересекающиеся капсулы в плоскости XZ.
// Боковой контакт создает опрокидывающий момент, как асимметричный импульс столкновения.
func (w *World) resolveContacts() {
	for i := 0; i < len(w.bodies); i++ {
		for j := i + 1; j < len(w.bodies); j++ {
			a, b := w.bodies[i], w.bodies[j]
			if a.Kinematic() && b.Kinematic() {
				continue
			}
			w.separate(a, b)
		}
	}
}

func (w *World) separate(a, b *Body) {
	if math.Abs(a.position.Y()-b.position.Y()) >= a.shape.HalfHeight()+b.shape.HalfHeight() {
		return
	}
	d := mgl64.Vec3{b.position.X() - a.position.X(), 0, b.position.Z() - a.position.Z()}
	dist := d.Len()
	minDist := a.shape.Radius + b.shape.Radius
	if dist >= minDist {
		return
	}
	normal := mgl64.Vec3{1, 0, 0}
	if dist > 0 {
		normal = d.Mul(1 / dist)
	}
	overlap := minDist - dist

	total := a.invMass + b.invMass
	a.position = a.position.Sub(normal.Mul(overlap * a.invMass / total))
	b.position = b.position.Add(normal.Mul(overlap * b.invMass / total))

	tip := mgl64.Vec3{0, 1, 0}.Cross(normal).Mul(w.cfg.ContactTipping)
	if !a.Kinematic() {
		a.angular = a.angular.Sub(tip)
	}
	if !b.Kinematic() {
		b.angular = b.angular.Add(tip)
	}
}
