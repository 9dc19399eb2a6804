package entity

// ShapeType тип формы для меша и коллайдера
type ShapeType string

const (
	ShapeCapsule ShapeType = "capsule"
	ShapeBox     ShapeType = "box"
	ShapeSphere  ShapeType = "sphere"
	ShapePlane   ShapeType = "plane"
)

// Shape описывает форму объекта
type Shape struct {
	Type   ShapeType
	Radius float64 // для капсулы и сферы
	Height float64 // полная высота капсулы
	Width  float64 // для ящика и плоскости
	Depth  float64 // для ящика и плоскости
}

// Capsule создает описание вертикальной капсулы
func Capsule(radius, height float64) Shape {
	return Shape{Type: ShapeCapsule, Radius: radius, Height: height}
}

// HalfHeight возвращает расстояние от центра до нижней точки формы
func (s Shape) HalfHeight() float64 {
	switch s.Type {
	case ShapeCapsule, ShapeBox:
		return s.Height / 2
	case ShapeSphere:
		return s.Radius
	default:
		return 0
	}
}
