package input

// Primary основной тип ввода устройства
type Primary string

const (
	PrimaryTouch Primary = "touch"
	PrimaryMouse Primary = "mouse"
)

// Capabilities возможности устройства, определяемые один раз при старте сессии
type Capabilities struct {
	FinePointer    bool // точный указатель (мышь, тачпад)
	Keyboard       bool
	TouchSupported bool
	MaxTouchPoints int
}

// DeviceProfile результат классификации устройства.
// Вычисляется один раз и передается в компоненты, повторно не запрашивается.
type DeviceProfile struct {
	MouseOrKeyboard bool
	Touch           bool
}

// Classify классифицирует устройство по его возможностям
func Classify(c Capabilities) DeviceProfile {
	return DeviceProfile{
		MouseOrKeyboard: c.FinePointer || c.Keyboard,
		Touch:           c.TouchSupported || c.MaxTouchPoints > 0,
	}
}

// Primary возвращает основной тип ввода
func (p DeviceProfile) Primary() Primary {
	if p.Touch {
		return PrimaryTouch
	}
	return PrimaryMouse
}

// JoystickEnabled показывает, отображается ли и принимает ли касания виртуальный джойстик.
// Клавиатура и мышь остаются активными при любой классификации.
func (p DeviceProfile) JoystickEnabled() bool {
	return p.Primary() == PrimaryTouch
}
