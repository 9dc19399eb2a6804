package input

import (
	"github.com/go-gl/mathgl/mgl64"
)

// LookSource активный источник поворота камеры
type LookSource int

const (
	LookNone LookSource = iota
	LookPointerLock
	LookTouch
)

func (s LookSource) String() string {
	switch s {
	case LookPointerLock:
		return "pointer-lock"
	case LookTouch:
		return "touch"
	default:
		return "none"
	}
}

// LookDelta приращение поворота в радианах с прошлого опроса
type LookDelta struct {
	Yaw   float64
	Pitch float64
}

// IsZero нет ли поворота
func (d LookDelta) IsZero() bool { return d.Yaw == 0 && d.Pitch == 0 }

// Frame результат одного опроса ввода
type Frame struct {
	Move       mgl64.Vec2 // x - вправо, y - вперед
	Look       LookDelta
	Jump       bool // фронт нажатия прыжка с прошлого опроса
	LookSource LookSource
}

// Config настройки слоя ввода
type Config struct {
	MouseSensitivity   float64 // радиан на пиксель мыши
	TouchRotationSpeed float64 // радиан на полную ширину экрана
	TouchZone          float64 // касания правее этой доли ширины поворачивают камеру
	JoystickScale      float64
	JoystickRadius     float64
	JoystickRegion     float64
	ViewportWidth      float64
	ViewportHeight     float64
}

// DefaultConfig настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		MouseSensitivity:   0.002,
		TouchRotationSpeed: 1.5,
		TouchZone:          0.7,
		JoystickScale:      1.0,
		JoystickRadius:     60,
		JoystickRegion:     0.5,
		ViewportWidth:      1280,
		ViewportHeight:     720,
	}
}

// InputState состояние ввода, накопленное между опросами
type InputState struct {
	Pressed       map[Key]bool
	PointerLocked bool
	PointerDelta  mgl64.Vec2 // пиксели с прошлого опроса
	TouchDelta    mgl64.Vec2 // пиксели жеста поворота с прошлого опроса
	JumpEdge      bool
}

// Reset сбрасывает дельты после чтения; удерживаемые клавиши сохраняются
func (s *InputState) Reset() {
	s.PointerDelta = mgl64.Vec2{}
	s.TouchDelta = mgl64.Vec2{}
	s.JumpEdge = false
}

// KeyVector вектор от направляющих клавиш
func (s *InputState) KeyVector() mgl64.Vec2 {
	var v mgl64.Vec2
	if s.Pressed[KeyRight] {
		v[0]++
	}
	if s.Pressed[KeyLeft] {
		v[0]--
	}
	if s.Pressed[KeyForward] {
		v[1]++
	}
	if s.Pressed[KeyBack] {
		v[1]--
	}
	return v
}

// Unifier сводит клавиатуру, мышь, касания и джойстик в одно намерение движения за кадр
type Unifier struct {
	cfg      Config
	profile  DeviceProfile
	keymap   Keymap
	queue    *Queue
	state    InputState
	joystick *VirtualJoystick

	viewport mgl64.Vec2

	// жест поворота: отслеживается только одно касание
	rotating  bool
	rotatorID int
	lastTouch mgl64.Vec2

	scratch []Event
}

// NewUnifier создает слой ввода
func NewUnifier(cfg Config, profile DeviceProfile, keymap Keymap) *Unifier {
	if keymap == nil {
		keymap = DefaultKeymap()
	}
	return &Unifier{
		cfg:      cfg,
		profile:  profile,
		keymap:   keymap,
		queue:    NewQueue(),
		state:    InputState{Pressed: make(map[Key]bool)},
		joystick: NewVirtualJoystick(cfg.JoystickRadius, cfg.JoystickRegion),
		viewport: mgl64.Vec2{cfg.ViewportWidth, cfg.ViewportHeight},
	}
}

// Queue очередь, в которую адаптеры устройств пишут события
func (u *Unifier) Queue() *Queue { return u.queue }

// Profile классификация устройства
func (u *Unifier) Profile() DeviceProfile { return u.profile }

// Joystick виртуальный джойстик; отрисовывается только при сенсорном профиле
func (u *Unifier) Joystick() *VirtualJoystick { return u.joystick }

// State текущее состояние (только чтение)
func (u *Unifier) State() InputState { return u.state }

// Poll вычитывает события, накопленные с прошлого кадра, и возвращает намерение.
// Вызывается не чаще одного раза за кадр.
func (u *Unifier) Poll() Frame {
	u.scratch = u.queue.Drain(u.scratch[:0])
	for _, e := range u.scratch {
		u.apply(e)
	}

	frame := Frame{
		Move:       u.movementIntent(),
		Look:       u.lookDelta(),
		Jump:       u.state.JumpEdge,
		LookSource: u.lookSource(),
	}
	u.state.Reset()
	return frame
}

// movementIntent суммирует клавиши и джойстик; нормализация выполняется ниже по потоку
func (u *Unifier) movementIntent() mgl64.Vec2 {
	move := u.state.KeyVector()
	if u.joystick.Pressed() {
		move = move.Add(u.joystick.Delta().Mul(u.cfg.JoystickScale))
	}
	return move
}

func (u *Unifier) lookDelta() LookDelta {
	var d LookDelta
	if u.state.PointerLocked {
		d.Yaw += u.state.PointerDelta.X() * u.cfg.MouseSensitivity
		d.Pitch += u.state.PointerDelta.Y() * u.cfg.MouseSensitivity
	}
	if w := u.viewport.X(); w > 0 {
		d.Yaw += u.state.TouchDelta.X() / w * u.cfg.TouchRotationSpeed
		d.Pitch += u.state.TouchDelta.Y() / w * u.cfg.TouchRotationSpeed
	}
	return d
}

func (u *Unifier) lookSource() LookSource {
	switch {
	case u.state.PointerLocked:
		return LookPointerLock
	case u.rotating:
		return LookTouch
	default:
		return LookNone
	}
}

func (u *Unifier) apply(e Event) {
	switch e.Kind {
	case EventKeyDown:
		key, ok := u.keymap.Lookup(e.Code)
		if !ok {
			return
		}
		if key == KeyJump && !u.state.Pressed[KeyJump] {
			u.state.JumpEdge = true
		}
		u.state.Pressed[key] = true

	case EventKeyUp:
		if key, ok := u.keymap.Lookup(e.Code); ok {
			delete(u.state.Pressed, key)
		}

	case EventBlur:
		for k := range u.state.Pressed {
			delete(u.state.Pressed, k)
		}
		u.joystick.Release()
		u.rotating = false

	case EventPointerLock:
		u.state.PointerLocked = e.Locked
		if !e.Locked {
			u.state.PointerDelta = mgl64.Vec2{}
		}

	case EventPointerMove:
		// без захвата указателя движения мыши не поворачивают камеру
		if u.state.PointerLocked {
			u.state.PointerDelta = u.state.PointerDelta.Add(mgl64.Vec2{e.DX, e.DY})
		}

	case EventTouchStart:
		u.touchStart(e)

	case EventTouchMove:
		if u.rotating && e.TouchID == u.rotatorID {
			cur := mgl64.Vec2{e.X, e.Y}
			u.state.TouchDelta = u.state.TouchDelta.Add(cur.Sub(u.lastTouch))
			u.lastTouch = cur
		} else if u.joystick.Owns(e.TouchID) {
			u.joystick.Drag(e.X, e.Y)
		}

	case EventTouchEnd:
		if u.rotating && e.TouchID == u.rotatorID {
			u.rotating = false
		}
		if u.joystick.Owns(e.TouchID) {
			u.joystick.Release()
		}

	case EventJoystick:
		if u.profile.JoystickEnabled() {
			u.joystick.Set(e.Pressed, mgl64.Vec2{e.DX, e.DY})
		}

	case EventResize:
		u.viewport = mgl64.Vec2{e.Width, e.Height}
	}
}

// touchStart правая часть экрана начинает жест поворота, левая отдается джойстику
func (u *Unifier) touchStart(e Event) {
	w := u.viewport.X()
	if w > 0 && e.X > w*u.cfg.TouchZone {
		if !u.rotating {
			u.rotating = true
			u.rotatorID = e.TouchID
			u.lastTouch = mgl64.Vec2{e.X, e.Y}
		}
		return
	}
	if u.profile.JoystickEnabled() && !u.joystick.Pressed() && u.joystick.HitTest(e.X, w) {
		u.joystick.Press(e.TouchID, e.X, e.Y)
	}
}
