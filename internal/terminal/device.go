package terminal

import (
	"strings"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"x-avatar/internal/input"
)

// Размер ячейки терминала в условных пикселях
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

// Device переводит события терминала в события слоя ввода.
// Терминал не сообщает об отпускании клавиш: клавиша считается отпущенной,
// если за keyHold не пришло повторов.
type Device struct {
	queue   *input.Queue
	keyHold time.Duration
	held    map[string]time.Time

	locked    bool
	haveMouse bool
	lastX     int
	lastY     int

	dragging bool
	touchID  int
}

// NewDevice создает адаптер, пишущий в очередь queue
func NewDevice(queue *input.Queue, keyHold time.Duration) *Device {
	if keyHold <= 0 {
		keyHold = 500 * time.Millisecond
	}
	return &Device{
		queue:   queue,
		keyHold: keyHold,
		held:    make(map[string]time.Time),
	}
}

// Capabilities возможности терминала: клавиатура и мышь
func Capabilities() input.Capabilities {
	return input.Capabilities{FinePointer: true, Keyboard: true}
}

func (d *Device) Capabilities() input.Capabilities { return Capabilities() }

// Locked захвачен ли указатель
func (d *Device) Locked() bool { return d.locked }

// Held удерживаемые клавиши
func (d *Device) Held() int { return len(d.held) }

// Handle обрабатывает событие терминала; возвращает true, если пользователь вышел
func (d *Device) Handle(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return d.handleKey(ev, now)
	case *tcell.EventMouse:
		x, y := ev.Position()
		d.handleMouse(x, y, ev.Buttons())
	case *tcell.EventResize:
		w, h := ev.Size()
		d.queue.Push(input.Resize(float64(w)*CellWidth, float64(h)*CellHeight))
	}
	return false
}

func (d *Device) handleKey(ev *tcell.EventKey, now time.Time) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		d.releaseAll()
		d.queue.Push(input.Blur())
		return true
	case tcell.KeyUp:
		d.press("ArrowUp", now)
	case tcell.KeyDown:
		d.press("ArrowDown", now)
	case tcell.KeyLeft:
		d.press("ArrowLeft", now)
	case tcell.KeyRight:
		d.press("ArrowRight", now)
	case tcell.KeyRune:
		r := unicode.ToLower(ev.Rune())
		if r == 'l' {
			d.toggleLock()
			return false
		}
		if code, ok := KeyCode(r); ok {
			d.press(code, now)
		}
	}
	return false
}

// KeyCode код клавиши в стиле KeyboardEvent.code для символа
func KeyCode(r rune) (string, bool) {
	switch {
	case r == ' ':
		return "Space", true
	case r >= 'a' && r <= 'z':
		return "Key" + strings.ToUpper(string(r)), true
	case r >= '0' && r <= '9':
		return "Digit" + string(r), true
	default:
		return "", false
	}
}

func (d *Device) press(code string, now time.Time) {
	if _, ok := d.held[code]; !ok {
		d.queue.Push(input.KeyDown(code))
	}
	d.held[code] = now
}

// Tick отпускает клавиши без повторов дольше keyHold; вызывается раз в кадр
func (d *Device) Tick(now time.Time) {
	for code, last := range d.held {
		if now.Sub(last) >= d.keyHold {
			d.queue.Push(input.KeyUp(code))
			delete(d.held, code)
		}
	}
}

func (d *Device) releaseAll() {
	for code := range d.held {
		delete(d.held, code)
	}
}

func (d *Device) toggleLock() {
	d.locked = !d.locked
	d.haveMouse = false
	if d.locked && d.dragging {
		d.endDrag()
	}
	d.queue.Push(input.PointerLock(d.locked))
}

// handleMouse: в режиме захвата движение мыши поворачивает камеру,
// иначе перетаскивание левой кнопкой эмулирует касание
func (d *Device) handleMouse(x, y int, buttons tcell.ButtonMask) {
	if d.locked {
		if d.haveMouse {
			d.queue.Push(input.PointerMove(float64(x-d.lastX)*CellWidth, float64(y-d.lastY)*CellHeight))
		}
		d.lastX, d.lastY = x, y
		d.haveMouse = true
		return
	}

	px, py := float64(x)*CellWidth, float64(y)*CellHeight
	if buttons&tcell.Button1 != 0 {
		if !d.dragging {
			d.dragging = true
			d.queue.Push(input.TouchStart(d.touchID, px, py))
		} else {
			d.queue.Push(input.TouchMove(d.touchID, px, py))
		}
		return
	}
	if d.dragging {
		d.endDrag()
	}
}

func (d *Device) endDrag() {
	d.queue.Push(input.TouchEnd(d.touchID))
	d.dragging = false
	d.touchID++
}
