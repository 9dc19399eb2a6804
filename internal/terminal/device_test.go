package terminal

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"x-avatar/internal/input"
)

func drain(q *input.Queue) []input.Event {
	return q.Drain(nil)
}

func TestDevice_KeyHoldEmulation(t *testing.T) {
	q := input.NewQueue()
	d := NewDevice(q, 100*time.Millisecond)
	start := time.Unix(0, 0)

	d.Handle(tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), start)
	d.Handle(tcell.NewEventKey(tcell.KeyRune, 'W', tcell.ModNone), start.Add(50*time.Millisecond))
	events := drain(q)
	if len(events) != 1 || events[0].Kind != input.EventKeyDown || events[0].Code != "KeyW" {
		t.Fatalf("повтор клавиши не должен давать второе нажатие: %+v", events)
	}

	d.Tick(start.Add(120 * time.Millisecond))
	if len(drain(q)) != 0 {
		t.Fatal("клавиша с недавним повтором не отпускается")
	}
	d.Tick(start.Add(151 * time.Millisecond))
	events = drain(q)
	if len(events) != 1 || events[0].Kind != input.EventKeyUp || events[0].Code != "KeyW" {
		t.Fatalf("ожидали отпускание KeyW: %+v", events)
	}
	if d.Held() != 0 {
		t.Error("после отпускания клавиш не остается")
	}
}

func TestDevice_ArrowsSpaceAndQuit(t *testing.T) {
	q := input.NewQueue()
	d := NewDevice(q, time.Second)
	now := time.Now()

	d.Handle(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), now)
	d.Handle(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), now)
	events := drain(q)
	if len(events) != 2 || events[0].Code != "ArrowUp" || events[1].Code != "Space" {
		t.Fatalf("неверные коды: %+v", events)
	}

	if !d.Handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), now) {
		t.Error("Esc должен завершать работу")
	}
	events = drain(q)
	if len(events) != 1 || events[0].Kind != input.EventBlur {
		t.Errorf("при выходе клавиши отпускаются через blur: %+v", events)
	}
}

func TestDevice_PointerLockToggle(t *testing.T) {
	q := input.NewQueue()
	d := NewDevice(q, time.Second)
	now := time.Now()

	d.Handle(tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone), now)
	if !d.Locked() {
		t.Fatal("L должна захватывать указатель")
	}
	d.Handle(tcell.NewEventMouse(10, 5, tcell.ButtonNone, tcell.ModNone), now)
	d.Handle(tcell.NewEventMouse(12, 4, tcell.ButtonNone, tcell.ModNone), now)

	events := drain(q)
	if len(events) != 2 {
		t.Fatalf("ожидали захват и одно движение: %+v", events)
	}
	if events[0].Kind != input.EventPointerLock || !events[0].Locked {
		t.Errorf("ожидали событие захвата: %+v", events[0])
	}
	if events[1].Kind != input.EventPointerMove || events[1].DX != 2*CellWidth || events[1].DY != -CellHeight {
		t.Errorf("неверная дельта мыши: %+v", events[1])
	}

	d.Handle(tcell.NewEventKey(tcell.KeyRune, 'L', tcell.ModNone), now)
	events = drain(q)
	if d.Locked() || len(events) != 1 || events[0].Locked {
		t.Errorf("повторное L освобождает указатель: %+v", events)
	}
}

func TestDevice_MouseDragEmulatesTouch(t *testing.T) {
	q := input.NewQueue()
	d := NewDevice(q, time.Second)
	now := time.Now()

	d.Handle(tcell.NewEventMouse(3, 10, tcell.Button1, tcell.ModNone), now)
	d.Handle(tcell.NewEventMouse(4, 9, tcell.Button1, tcell.ModNone), now)
	d.Handle(tcell.NewEventMouse(4, 9, tcell.ButtonNone, tcell.ModNone), now)
	d.Handle(tcell.NewEventMouse(30, 2, tcell.Button1, tcell.ModNone), now)

	events := drain(q)
	kinds := []input.EventKind{input.EventTouchStart, input.EventTouchMove, input.EventTouchEnd, input.EventTouchStart}
	if len(events) != len(kinds) {
		t.Fatalf("ожидали %d событий, получили %+v", len(kinds), events)
	}
	for i, k := range kinds {
		if events[i].Kind != k {
			t.Errorf("событие %d: ожидали %v, получили %v", i, k, events[i].Kind)
		}
	}
	if events[0].X != 3*CellWidth || events[0].Y != 10*CellHeight {
		t.Errorf("неверные координаты касания: %+v", events[0])
	}
	if events[3].TouchID == events[0].TouchID {
		t.Error("новое перетаскивание должно получить новый идентификатор касания")
	}
}

func TestDevice_ResizeAndUnifier(t *testing.T) {
	u := input.NewUnifier(input.DefaultConfig(), input.Classify(NewDevice(nil, 0).Capabilities()), nil)
	d := NewDevice(u.Queue(), time.Second)

	d.Handle(tcell.NewEventResize(100, 40), time.Now())
	d.Handle(tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone), time.Now())
	frame := u.Poll()
	if frame.Move.X() != 1 || frame.Move.Y() != 0 {
		t.Errorf("D должна давать движение вправо: %v", frame.Move)
	}
	if u.Profile().JoystickEnabled() {
		t.Error("терминал классифицируется как клавиатура и мышь")
	}
}

func TestKeyCode(t *testing.T) {
	tests := []struct {
		r    rune
		code string
		ok   bool
	}{
		{'a', "KeyA", true},
		{' ', "Space", true},
		{'5', "Digit5", true},
		{'?', "", false},
	}
	for _, tt := range tests {
		code, ok := KeyCode(tt.r)
		if code != tt.code || ok != tt.ok {
			t.Errorf("KeyCode(%q) = %q,%v; ожидали %q,%v", tt.r, code, ok, tt.code, tt.ok)
		}
	}
}

func TestInputSystem_DrainsEventsInFrame(t *testing.T) {
	q := input.NewQueue()
	d := NewDevice(q, 100*time.Millisecond)
	events := make(chan tcell.Event, 4)
	quit := false
	s := NewInputSystem(d, events, func() { quit = true })
	clock := time.Unix(0, 0)
	s.now = func() time.Time { return clock }

	events <- tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone)
	s.Update(0)
	if got := drain(q); len(got) != 1 || got[0].Code != "KeyA" {
		t.Fatalf("ожидали нажатие KeyA: %+v", got)
	}

	clock = clock.Add(time.Second)
	s.Update(0)
	if got := drain(q); len(got) != 1 || got[0].Kind != input.EventKeyUp {
		t.Fatalf("ожидали отпускание по таймауту: %+v", got)
	}

	events <- tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	close(events)
	s.Update(0)
	if !quit {
		t.Error("Ctrl-C должен завершать клиент")
	}
}

func TestInputSystem_Resize(t *testing.T) {
	q := input.NewQueue()
	d := NewDevice(q, 0)
	events := make(chan tcell.Event, 1)
	s := NewInputSystem(d, events, nil)
	var w, h int
	s.OnResize(func(width, height int) { w, h = width, height })

	events <- tcell.NewEventResize(30, 12)
	s.Update(0)
	if w != 30 || h != 12 {
		t.Errorf("обработчик размера: %dx%d", w, h)
	}
	if got := drain(q); len(got) != 1 || got[0].Kind != input.EventResize {
		t.Errorf("ожидали событие Resize в очереди: %+v", got)
	}
}
