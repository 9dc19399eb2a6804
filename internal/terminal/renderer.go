package terminal

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/input"
	"x-avatar/internal/scene/headless"
)

// Символы виртуального джойстика
const (
	JoystickBase = '◎'
	JoystickKnob = '●'
)

// cell ячейка кадра
type cell struct {
	ch    rune
	style tcell.Style
	color entity.Color
}

// Renderer сцена с отрисовкой вида сверху в терминале.
// Узлы и меши хранит вложенная сцена в памяти, Render рисует их на экран.
type Renderer struct {
	*headless.Scene

	screen tcell.Screen
	scale  float64 // ячеек на метр по оси Z; по X вдвое больше, ячейки узкие
	follow   string
	hud      func() string
	joystick *input.VirtualJoystick

	width  int
	height int
	buf    []cell
}

// NewRenderer создает сцену поверх инициализированного экрана
func NewRenderer(screen tcell.Screen, scale float64) *Renderer {
	if scale <= 0 {
		scale = 2
	}
	return &Renderer{
		Scene:  headless.New(),
		screen: screen,
		scale:  scale,
	}
}

// Follow задает меш локального игрока: он рисуется со стрелкой направления взгляда
func (r *Renderer) Follow(name string) { r.follow = name }

// SetHUD задает строку состояния в верхней строке экрана
func (r *Renderer) SetHUD(hud func() string) { r.hud = hud }

// ShowJoystick рисует виртуальный джойстик слоя ввода, если профиль устройства сенсорный
func (r *Renderer) ShowJoystick(u *input.Unifier) {
	r.joystick = nil
	if u != nil && u.Profile().JoystickEnabled() {
		r.joystick = u.Joystick()
	}
}

// Render рисует кадр: сетку земли, меши и строку состояния
func (r *Renderer) Render() error {
	if err := r.Scene.Render(); err != nil {
		return err
	}

	r.width, r.height = r.screen.Size()
	if r.width <= 0 || r.height <= 1 {
		return nil
	}
	if len(r.buf) != r.width*r.height {
		r.buf = make([]cell, r.width*r.height)
	}
	for i := range r.buf {
		r.buf[i] = cell{}
	}

	cam := r.CameraNode()
	center := cam.WorldPosition()
	r.drawGround(center)

	for _, m := range r.Meshes() {
		if m.Shape.Type == entity.ShapePlane {
			continue
		}
		col, row, ok := r.Project(m.WorldPosition(), center)
		if !ok {
			continue
		}
		style := tcell.StyleDefault.Foreground(toColor(m.Color))
		r.put(col, row, glyph(m, m.Name() == r.follow), style, m.Color)
		if m.Name() == r.follow {
			dc, dr := heading(cam.Rotation.Y())
			r.put(col+dc, row+dr, arrow(cam.Rotation.Y()), style, m.Color)
		}
	}

	if r.joystick != nil {
		r.drawJoystick()
	}

	if r.hud != nil {
		r.text(0, 0, r.hud(), tcell.StyleDefault.Foreground(tcell.ColorWhite))
	}

	r.flush()
	return nil
}

// Resize обновляет размер; фактический размер берется у экрана при отрисовке
func (r *Renderer) Resize(width, height int) {
	r.Scene.Resize(width, height)
	r.screen.Sync()
}

// Project переводит мировую позицию в ячейку экрана относительно center.
// Верхняя строка занята строкой состояния; +Z направлено вверх экрана.
func (r *Renderer) Project(pos, center mgl64.Vec3) (col, row int, ok bool) {
	w, h := r.screen.Size()
	midCol := w / 2
	midRow := 1 + (h-1)/2
	col = midCol + int(math.Round((pos.X()-center.X())*r.scale*2))
	row = midRow - int(math.Round((pos.Z()-center.Z())*r.scale))
	ok = col >= 0 && col < w && row >= 1 && row < h
	return col, row, ok
}

// Cell символ и цвет ячейки последнего кадра
func (r *Renderer) Cell(col, row int) (rune, entity.Color) {
	if col < 0 || col >= r.width || row < 0 || row >= r.height {
		return 0, entity.Color{}
	}
	c := r.buf[row*r.width+col]
	return c.ch, c.color
}

func (r *Renderer) drawGround(center mgl64.Vec3) {
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(70, 70, 70))
	const spacing = 5.0
	for row := 1; row < r.height; row++ {
		z := center.Z() + float64(1+(r.height-1)/2-row)/r.scale
		if !nearMultiple(z, spacing, 0.5/r.scale) {
			continue
		}
		for col := 0; col < r.width; col++ {
			x := center.X() + float64(col-r.width/2)/(r.scale*2)
			if nearMultiple(x, spacing, 0.25/r.scale) {
				r.put(col, row, '+', style, entity.Color{})
			}
		}
	}
}

// drawJoystick рисует основание в точке касания (в покое - внизу области джойстика)
// и ручку, смещенную на вектор перетаскивания
func (r *Renderer) drawJoystick() {
	j := r.joystick
	col, row := r.JoystickRest()
	if origin := j.Origin(); j.Pressed() && origin != (mgl64.Vec2{}) {
		col = int(origin.X() / CellWidth)
		row = int(origin.Y() / CellHeight)
	}
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(160, 160, 160))
	r.put(col, row, JoystickBase, style, entity.White)

	if d := j.Delta(); j.Pressed() && d != (mgl64.Vec2{}) {
		kc := col + int(math.Round(d.X()*j.Radius/CellWidth))
		kr := row - int(math.Round(d.Y()*j.Radius/CellHeight))
		r.put(kc, kr, JoystickKnob, style, entity.White)
	}
}

// JoystickRest ячейка основания джойстика без касания
func (r *Renderer) JoystickRest() (col, row int) {
	region := 0.5
	if r.joystick != nil {
		region = r.joystick.Region
	}
	w, h := r.screen.Size()
	row = h - 3
	if row < 1 {
		row = 1
	}
	return int(float64(w) * region / 2), row
}

func nearMultiple(v, step, eps float64) bool {
	m := math.Mod(math.Abs(v), step)
	return m < eps || step-m < eps
}

func (r *Renderer) put(col, row int, ch rune, style tcell.Style, color entity.Color) {
	if col < 0 || col >= r.width || row < 0 || row >= r.height {
		return
	}
	r.buf[row*r.width+col] = cell{ch: ch, style: style, color: color}
}

func (r *Renderer) text(col, row int, s string, style tcell.Style) {
	for _, ch := range s {
		if col >= r.width {
			return
		}
		r.put(col, row, ch, style, entity.White)
		col++
	}
}

func (r *Renderer) flush() {
	r.screen.Clear()
	for row := 0; row < r.height; row++ {
		for col := 0; col < r.width; col++ {
			c := r.buf[row*r.width+col]
			if c.ch == 0 {
				continue
			}
			r.screen.SetContent(col, row, c.ch, nil, c.style)
		}
	}
	r.screen.Show()
}

func toColor(c entity.Color) tcell.Color {
	return tcell.NewRGBColor(int32(math.Round(c.R*255)), int32(math.Round(c.G*255)), int32(math.Round(c.B*255)))
}

func glyph(m *headless.Mesh, local bool) rune {
	if local {
		return '@'
	}
	switch m.Shape.Type {
	case entity.ShapeBox:
		return '#'
	case entity.ShapeSphere:
		return 'o'
	default:
		return 'O'
	}
}

// heading смещение ячейки в направлении взгляда: forward = (sin yaw, 0, cos yaw)
func heading(yaw float64) (int, int) {
	dc := int(math.Round(math.Sin(yaw) * 2))
	dr := -int(math.Round(math.Cos(yaw)))
	if dc == 0 && dr == 0 {
		dr = -1
	}
	return dc, dr
}

func arrow(yaw float64) rune {
	arrows := []rune{'^', '/', '>', '\\', 'v', '/', '<', '\\'}
	i := int(math.Round(yaw/(math.Pi/4))) % 8
	if i < 0 {
		i += 8
	}
	return arrows[i]
}

// StatusLine строка состояния клиента
func StatusLine(name string, pos mgl64.Vec3, yaw, pitch float64, source string, peers int, connected bool) string {
	link := "offline"
	if connected {
		link = "online"
	}
	return fmt.Sprintf("%s (%.1f, %.1f, %.1f) yaw %.0f° pitch %.0f° look:%s peers:%d %s  [L] lock  [Esc] quit",
		name, pos.X(), pos.Y(), pos.Z(), mgl64.RadToDeg(yaw), mgl64.RadToDeg(pitch), source, peers, link)
}
