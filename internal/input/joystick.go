package input

import "github.com/go-gl/mathgl/mgl64"

// VirtualJoystick экранный джойстик: пока касание удерживается, выдает непрерывный 2D вектор.
// Занимает касания, начавшиеся в левой части экрана.
type VirtualJoystick struct {
	Radius  float64 // радиус хода в пикселях
	Region  float64 // доля ширины экрана, в которой начинается касание
	pressed bool
	touchID int
	origin  mgl64.Vec2
	delta   mgl64.Vec2
}

// NewVirtualJoystick создает джойстик
func NewVirtualJoystick(radius, region float64) *VirtualJoystick {
	if radius <= 0 {
		radius = 60
	}
	if region <= 0 || region > 1 {
		region = 0.5
	}
	return &VirtualJoystick{Radius: radius, Region: region}
}

// HitTest проверяет, попадает ли начало касания в область джойстика
func (j *VirtualJoystick) HitTest(x, viewportWidth float64) bool {
	if viewportWidth <= 0 {
		return false
	}
	return x < viewportWidth*j.Region
}

// Press начинает перетаскивание
func (j *VirtualJoystick) Press(touchID int, x, y float64) {
	j.pressed = true
	j.touchID = touchID
	j.origin = mgl64.Vec2{x, y}
	j.delta = mgl64.Vec2{}
}

// Drag обновляет вектор по текущей позиции касания.
// Ось Y экрана направлена вниз, поэтому перетаскивание вверх дает положительный Y.
func (j *VirtualJoystick) Drag(x, y float64) {
	d := mgl64.Vec2{(x - j.origin.X()) / j.Radius, (j.origin.Y() - y) / j.Radius}
	if l := d.Len(); l > 1 {
		d = d.Mul(1 / l)
	}
	j.delta = d
}

// Set задает вектор напрямую (для виджетов, считающих вектор сами)
func (j *VirtualJoystick) Set(pressed bool, delta mgl64.Vec2) {
	j.pressed = pressed
	if pressed {
		j.delta = delta
	} else {
		j.delta = mgl64.Vec2{}
	}
}

// Release отпускает джойстик
func (j *VirtualJoystick) Release() {
	j.pressed = false
	j.delta = mgl64.Vec2{}
}

// Owns проверяет, принадлежит ли касание джойстику
func (j *VirtualJoystick) Owns(touchID int) bool {
	return j.pressed && j.touchID == touchID
}

// Pressed удерживается ли джойстик
func (j *VirtualJoystick) Pressed() bool { return j.pressed }

// Origin точка начала касания в пикселях экрана
func (j *VirtualJoystick) Origin() mgl64.Vec2 { return j.origin }

// Delta текущий вектор перетаскивания
func (j *VirtualJoystick) Delta() mgl64.Vec2 { return j.delta }
