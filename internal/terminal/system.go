package terminal

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// InputSystem передает события терминала адаптеру в потоке кадра.
// Чтение экрана идет в отдельной горутине, события приходят через канал.
type InputSystem struct {
	device *Device
	events <-chan tcell.Event
	quit   func()
	resize func(width, height int)
	now    func() time.Time
}

// NewInputSystem создает систему; quit вызывается при выходе пользователя
func NewInputSystem(device *Device, events <-chan tcell.Event, quit func()) *InputSystem {
	return &InputSystem{device: device, events: events, quit: quit, now: time.Now}
}

// OnResize задает обработчик изменения размера терминала (в ячейках)
func (s *InputSystem) OnResize(fn func(width, height int)) { s.resize = fn }

func (s *InputSystem) Update(deltaTime time.Duration) error {
	now := s.now()
	for {
		select {
		case ev, ok := <-s.events:
			if ok {
				if rs, isResize := ev.(*tcell.EventResize); isResize && s.resize != nil {
					s.resize(rs.Size())
				}
				if s.device.Handle(ev, now) && s.quit != nil {
					s.quit()
				}
				continue
			}
		default:
		}
		s.device.Tick(now)
		return nil
	}
}

func (s *InputSystem) GetName() string  { return "TerminalInputSystem" }
func (s *InputSystem) GetPriority() int { return 5 }

// PollEvents читает события экрана в канал до закрытия экрана
func PollEvents(screen tcell.Screen, buffer int) <-chan tcell.Event {
	ch := make(chan tcell.Event, buffer)
	go func() {
		defer close(ch)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			ch <- ev
		}
	}()
	return ch
}
