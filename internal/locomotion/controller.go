package locomotion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/port/out/physics"
)

// Config параметры передвижения персонажа
type Config struct {
	MoveSpeed          float64 // целевая горизонтальная скорость
	Damping            float64 // множитель горизонтальной скорости за кадр без ввода
	JumpImpulse        float64 // вертикальный импульс прыжка
	JumpRequiresGround bool    // запрещать прыжок в воздухе, если тело умеет сообщать о контакте
}

// DefaultConfig настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		MoveSpeed:          5.0,
		Damping:            0.9,
		JumpImpulse:        5.0,
		JumpRequiresGround: true,
	}
}

// Controller переводит намерение движения в скорость тела и держит тело вертикально
type Controller struct {
	cfg  Config
	body physics.RigidBody
}

// NewController создает контроллер и регистрирует коррекцию ориентации перед каждым шагом физики
func NewController(cfg Config, body physics.RigidBody) *Controller {
	c := &Controller{cfg: cfg, body: body}
	body.OnBeforeStep(func() { KeepUpright(body) })
	return c
}

// Body управляемое тело
func (c *Controller) Body() physics.RigidBody { return c.body }

// Basis возвращает векторы "вперед" и "вправо" в плоскости XZ для рыскания
func Basis(yaw float64) (forward, right mgl64.Vec3) {
	forward = mgl64.Vec3{math.Sin(yaw), 0, math.Cos(yaw)}
	right = mgl64.Vec3{math.Sin(yaw + math.Pi/2), 0, math.Cos(yaw + math.Pi/2)}
	return forward, right
}

// MoveDirection вычисляет целевую скорость в мире.
// Нулевое намерение дает нулевой вектор, а не NaN.
func MoveDirection(intent mgl64.Vec2, yaw, speed float64) mgl64.Vec3 {
	forward, right := Basis(yaw)
	dir := forward.Mul(intent.Y()).Add(right.Mul(intent.X()))
	l := dir.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}
	}
	return dir.Mul(speed / l)
}

// Step применяет намерение к телу на текущем кадре
func (c *Controller) Step(intent mgl64.Vec2, yaw float64) mgl64.Vec3 {
	move := MoveDirection(intent, yaw, c.cfg.MoveSpeed)
	v := c.body.LinearVelocity()
	if move != (mgl64.Vec3{}) {
		// вертикальную составляющую оставляем физике
		c.body.SetLinearVelocity(mgl64.Vec3{move.X(), v.Y(), move.Z()})
	} else {
		c.body.SetLinearVelocity(mgl64.Vec3{v.X() * c.cfg.Damping, v.Y(), v.Z() * c.cfg.Damping})
	}
	return move
}

// Jump применяет импульс прыжка в центре масс.
// Возвращает false, если прыжок запрещен из-за отсутствия опоры.
func (c *Controller) Jump() bool {
	if c.cfg.JumpRequiresGround {
		if sensor, ok := c.body.(physics.GroundSensor); ok && !sensor.Grounded() {
			return false
		}
	}
	c.body.ApplyImpulse(mgl64.Vec3{0, c.cfg.JumpImpulse, 0}, c.body.CenterWorld())
	return true
}

// KeepUpright обнуляет крен и тангаж тела, оставляя только рыскание, и гасит угловую скорость.
// Если ориентация еще не инициализирована, коррекция ориентации пропускается.
func KeepUpright(body physics.RigidBody) {
	if q, ok := body.Orientation(); ok {
		body.SetOrientation(UprightOrientation(q))
	}
	body.SetAngularVelocity(mgl64.Vec3{})
}

// UprightOrientation оставляет от ориентации только поворот вокруг вертикальной оси
func UprightOrientation(q mgl64.Quat) mgl64.Quat {
	return mgl64.QuatRotate(YawOf(q), mgl64.Vec3{0, 1, 0})
}

// YawOf извлекает рыскание из ориентации по направлению локальной оси Z
func YawOf(q mgl64.Quat) float64 {
	if q.Len() == 0 {
		return 0
	}
	f := q.Normalize().Rotate(mgl64.Vec3{0, 0, 1})
	if f.X() == 0 && f.Z() == 0 {
		// взгляд строго вверх или вниз: рыскание берем по локальной оси X
		r := q.Normalize().Rotate(mgl64.Vec3{1, 0, 0})
		return math.Atan2(-r.Z(), r.X())
	}
	return math.Atan2(f.X(), f.Z())
}
