package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
)

// RigidBody определяет узкий интерфейс тела физического движка.
// Контроллер персонажа работает только через него и тестируется с фейковым телом.
type RigidBody interface {
	// Name возвращает имя тела
	Name() string

	// LinearVelocity возвращает текущую линейную скорость
	LinearVelocity() mgl64.Vec3

	// SetLinearVelocity устанавливает линейную скорость
	SetLinearVelocity(v mgl64.Vec3)

	// SetAngularVelocity устанавливает угловую скорость
	SetAngularVelocity(v mgl64.Vec3)

	// ApplyImpulse применяет импульс в точке мира
	ApplyImpulse(impulse, point mgl64.Vec3)

	// CenterWorld возвращает центр масс в мировых координатах
	CenterWorld() mgl64.Vec3

	// SetPosition переносит тело в точку мира
	SetPosition(p mgl64.Vec3)

	// Orientation возвращает ориентацию; false, если движок ее еще не инициализировал
	Orientation() (mgl64.Quat, bool)

	// SetOrientation перезаписывает ориентацию тела
	SetOrientation(q mgl64.Quat)

	// OnBeforeStep регистрирует обработчик, вызываемый перед каждым шагом симуляции
	OnBeforeStep(fn func())
}

// GroundSensor необязательная возможность тела сообщать о контакте с опорой
type GroundSensor interface {
	Grounded() bool
}

// World определяет интерфейс физического мира
type World interface {
	// CreateBody создает динамическое тело заданной формы
	CreateBody(name string, shape entity.Shape, position mgl64.Vec3, mass float64) RigidBody

	// RemoveBody удаляет тело из симуляции
	RemoveBody(body RigidBody)

	// Step продвигает симуляцию на dt секунд
	Step(dt float64)
}
