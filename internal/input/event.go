package input

import "sync"

// EventKind тип события устройства
type EventKind int

const (
	EventKeyDown EventKind = iota
	EventKeyUp
	EventPointerLock // изменение захвата указателя
	EventPointerMove // смещение указателя при захвате
	EventTouchStart
	EventTouchMove
	EventTouchEnd
	EventJoystick // вектор джойстика от внешнего виджета
	EventResize
	EventBlur // потеря фокуса, все клавиши отпускаются
)

// Event сырое событие устройства
type Event struct {
	Kind    EventKind
	Code    string  // код клавиши
	Locked  bool    // для EventPointerLock
	DX, DY  float64 // смещение указателя или вектор джойстика
	TouchID int
	X, Y    float64 // экранные координаты касания
	Pressed bool    // для EventJoystick
	Width   float64 // для EventResize
	Height  float64
}

// KeyDown создает событие нажатия
func KeyDown(code string) Event { return Event{Kind: EventKeyDown, Code: code} }

// KeyUp создает событие отпускания
func KeyUp(code string) Event { return Event{Kind: EventKeyUp, Code: code} }

// PointerMove создает событие смещения указателя
func PointerMove(dx, dy float64) Event { return Event{Kind: EventPointerMove, DX: dx, DY: dy} }

// PointerLock создает событие изменения захвата указателя
func PointerLock(locked bool) Event { return Event{Kind: EventPointerLock, Locked: locked} }

// TouchStart создает событие начала касания
func TouchStart(id int, x, y float64) Event {
	return Event{Kind: EventTouchStart, TouchID: id, X: x, Y: y}
}

// TouchMove создает событие перемещения касания
func TouchMove(id int, x, y float64) Event {
	return Event{Kind: EventTouchMove, TouchID: id, X: x, Y: y}
}

// TouchEnd создает событие окончания касания
func TouchEnd(id int) Event { return Event{Kind: EventTouchEnd, TouchID: id} }

// Joystick создает событие вектора джойстика
func Joystick(pressed bool, x, y float64) Event {
	return Event{Kind: EventJoystick, Pressed: pressed, DX: x, DY: y}
}

// Resize создает событие изменения размера окна
func Resize(width, height float64) Event {
	return Event{Kind: EventResize, Width: width, Height: height}
}

// Blur создает событие потери фокуса
func Blur() Event { return Event{Kind: EventBlur} }

// Queue очередь событий устройства.
// Обработчики устройства пишут в нее из любых горутин, кадр вычитывает ее один раз.
type Queue struct {
	events []Event
	mutex  sync.Mutex
}

// NewQueue создает пустую очередь
func NewQueue() *Queue {
	return &Queue{events: make([]Event, 0, 64)}
}

// Push добавляет событие в очередь
func (q *Queue) Push(e Event) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.events = append(q.events, e)
}

// Drain переносит накопленные события в dst и очищает очередь
func (q *Queue) Drain(dst []Event) []Event {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	dst = append(dst, q.events...)
	q.events = q.events[:0]
	return dst
}

// Len количество ожидающих событий
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.events)
}
