package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
)

// Body тело встроенного физического мира
type Body struct {
	name    string
	shape   entity.Shape
	invMass float64 // 0 для кинематических тел

	position    mgl64.Vec3
	velocity    mgl64.Vec3
	angular     mgl64.Vec3
	orientation mgl64.Quat
	initialized bool
	grounded    bool

	hooks []func()
}

func newBody(name string, shape entity.Shape, position mgl64.Vec3, mass float64) *Body {
	b := &Body{
		name:        name,
		shape:       shape,
		position:    position,
		orientation: mgl64.QuatIdent(),
	}
	if mass > 0 {
		b.invMass = 1 / mass
	}
	return b
}

func (b *Body) Name() string                    { return b.name }
func (b *Body) Shape() entity.Shape             { return b.shape }
func (b *Body) LinearVelocity() mgl64.Vec3      { return b.velocity }
func (b *Body) SetLinearVelocity(v mgl64.Vec3)  { b.velocity = v }
func (b *Body) AngularVelocity() mgl64.Vec3     { return b.angular }
func (b *Body) SetAngularVelocity(v mgl64.Vec3) { b.angular = v }
func (b *Body) CenterWorld() mgl64.Vec3         { return b.position }
func (b *Body) SetPosition(p mgl64.Vec3)        { b.position = p }
func (b *Body) Grounded() bool                  { return b.grounded }
func (b *Body) Kinematic() bool                 { return b.invMass == 0 }

// ApplyImpulse меняет скорость на impulse/mass; точка приложения вне центра закручивает тело
func (b *Body) ApplyImpulse(impulse, point mgl64.Vec3) {
	if b.Kinematic() {
		return
	}
	b.velocity = b.velocity.Add(impulse.Mul(b.invMass))
	arm := point.Sub(b.position)
	b.angular = b.angular.Add(arm.Cross(impulse).Mul(b.invMass))
}

// Orientation возвращает ориентацию; до первого шага мира она не инициализирована
func (b *Body) Orientation() (mgl64.Quat, bool) {
	return b.orientation, b.initialized
}

func (b *Body) SetOrientation(q mgl64.Quat) {
	b.orientation = q.Normalize()
	b.initialized = true
}

// OnBeforeStep регистрирует обработчик перед шагом симуляции
func (b *Body) OnBeforeStep(fn func()) {
	b.hooks = append(b.hooks, fn)
}

func (b *Body) runHooks() {
	for _, h := range b.hooks {
		h()
	}
}
