package entity

import (
	"fmt"
	"strconv"
)

// Color цвет в диапазоне [0, 1] по каждому каналу
type Color struct {
	R, G, B float64
}

// White цвет по умолчанию
var White = Color{R: 1, G: 1, B: 1}

// ColorForID возвращает стабильный цвет для числового id.
// Коллизии между разными id допустимы.
func ColorForID(id int64) Color {
	// остаток до умножения, без переполнения int64
	m := id % 256
	if m < 0 {
		m = -m
	}
	return Color{
		R: float64((m*71)%256) / 255,
		G: float64((m*137)%256) / 255,
		B: float64((m*193)%256) / 255,
	}
}

// PlayerID извлекает числовой суффикс из имени игрока ("Player7" -> 7)
func PlayerID(name string) (int64, bool) {
	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	id, err := strconv.ParseInt(name[start:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ColorForName цвет аватара по имени; имена без числового суффикса получают цвет id 0
func ColorForName(name string) Color {
	id, _ := PlayerID(name)
	return ColorForID(id)
}

// Hex возвращает цвет в формате #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return int(v*255 + 0.5)
}
