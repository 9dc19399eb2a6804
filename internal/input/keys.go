package input

// Key логическая клавиша управления
type Key string

const (
	KeyForward Key = "forward"
	KeyBack    Key = "back"
	KeyLeft    Key = "left"
	KeyRight   Key = "right"
	KeyJump    Key = "jump"
)

// Keymap отображает коды клавиш устройства в логические клавиши
type Keymap map[string]Key

// DefaultKeymap WASD, стрелки и пробел
func DefaultKeymap() Keymap {
	return Keymap{
		"KeyW":       KeyForward,
		"KeyS":       KeyBack,
		"KeyA":       KeyLeft,
		"KeyD":       KeyRight,
		"ArrowUp":    KeyForward,
		"ArrowDown":  KeyBack,
		"ArrowLeft":  KeyLeft,
		"ArrowRight": KeyRight,
		"Space":      KeyJump,
	}
}

// Lookup возвращает логическую клавишу для кода
func (m Keymap) Lookup(code string) (Key, bool) {
	k, ok := m[code]
	return k, ok
}
