package bot

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/input"
)

// Паттерны движения
const (
	PatternRandom = "random"
	PatternCircle = "circle"
	PatternLinear = "linear"
)

// Driver управляет аватаром бота через виртуальный джойстик,
// как это делал бы игрок с сенсорного экрана
type Driver struct {
	pattern   string
	queue     *input.Queue
	rnd       *rand.Rand
	start     time.Time
	now       func() time.Time
	jumpEvery time.Duration

	direction  mgl64.Vec2
	nextChange time.Time
	lastJump   time.Time
	jumpHeld   bool

	commands int
}

// NewDriver создает водителя бота; seed задает случайный паттерн
func NewDriver(pattern string, queue *input.Queue, seed int64, jumpEvery time.Duration) (*Driver, error) {
	switch pattern {
	case PatternRandom, PatternCircle, PatternLinear:
	default:
		return nil, fmt.Errorf("unknown pattern %q", pattern)
	}
	return &Driver{
		pattern:   pattern,
		queue:     queue,
		rnd:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
		jumpEvery: jumpEvery,
	}, nil
}

// Commands количество отправленных команд джойстика
func (d *Driver) Commands() int { return d.commands }

// Vector вектор джойстика для момента now
func (d *Driver) Vector(now time.Time) mgl64.Vec2 {
	if d.start.IsZero() {
		d.start = now
	}
	elapsed := now.Sub(d.start).Seconds()

	switch d.pattern {
	case PatternCircle:
		// Плавное круговое движение
		angle := elapsed * 0.5
		return mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
	case PatternLinear:
		// Движение вперед-назад
		return mgl64.Vec2{0, math.Sin(elapsed * 0.3)}
	default:
		if now.After(d.nextChange) || d.direction == (mgl64.Vec2{}) {
			angle := d.rnd.Float64() * 2 * math.Pi
			d.direction = mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
			d.nextChange = now.Add(time.Duration(1+d.rnd.Intn(3)) * time.Second)
		}
		return d.direction
	}
}

// Update записывает вектор джойстика и прыжки в очередь ввода
func (d *Driver) Update(deltaTime time.Duration) error {
	now := d.now()
	v := d.Vector(now)
	d.queue.Push(input.Joystick(true, v.X(), v.Y()))
	d.commands++

	if d.jumpEvery <= 0 {
		return nil
	}
	if d.jumpHeld {
		d.queue.Push(input.KeyUp("Space"))
		d.jumpHeld = false
	} else if now.Sub(d.lastJump) >= d.jumpEvery {
		d.queue.Push(input.KeyDown("Space"))
		d.jumpHeld = true
		d.lastJump = now
	}
	return nil
}

// Stop отпускает джойстик и клавиши
func (d *Driver) Stop() {
	d.queue.Push(input.Joystick(false, 0, 0))
	d.queue.Push(input.Blur())
}

func (d *Driver) GetName() string  { return "BotDriver" }
func (d *Driver) GetPriority() int { return 5 }
