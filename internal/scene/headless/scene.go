package headless

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/core/port/out/scene"
)

// Node узел сцены в памяти
type Node struct {
	name     string
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Parent   *Node
	Offset   mgl64.Vec3
}

func (n *Node) Name() string                 { return n.name }
func (n *Node) SetPosition(p mgl64.Vec3)     { n.Position = p }
func (n *Node) SetRotation(euler mgl64.Vec3) { n.Rotation = euler }

// WorldPosition позиция с учетом родителя
func (n *Node) WorldPosition() mgl64.Vec3 {
	if n.Parent != nil {
		return n.Parent.WorldPosition().Add(n.Offset)
	}
	return n.Position
}

// Mesh меш сцены в памяти
type Mesh struct {
	Node
	Shape entity.Shape
	Color entity.Color
}

func (m *Mesh) SetColor(c entity.Color) { m.Color = c }

// Scene сцена без отрисовки: хранит меши для тестов и ботов
type Scene struct {
	meshes map[string]*Mesh
	camera *Node
	frames int
	width  int
	height int
	mu     sync.RWMutex
}

// New создает пустую сцену
func New() *Scene {
	return &Scene{
		meshes: make(map[string]*Mesh),
		camera: &Node{name: "camera"},
	}
}

func (s *Scene) CreateMesh(name string, shape entity.Shape) scene.Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &Mesh{Node: Node{name: name}, Shape: shape, Color: entity.White}
	s.meshes[name] = m
	return m
}

func (s *Scene) Camera() scene.Node { return s.camera }

// CameraNode камера с конкретным типом
func (s *Scene) CameraNode() *Node { return s.camera }

func (s *Scene) Attach(child, parent scene.Node, offset mgl64.Vec3) {
	c := asNode(child)
	p := asNode(parent)
	if c == nil || p == nil {
		return
	}
	c.Parent = p
	c.Offset = offset
}

func (s *Scene) RemoveMesh(mesh scene.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.meshes, mesh.Name())
}

func (s *Scene) Render() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	return nil
}

func (s *Scene) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

// Mesh возвращает меш по имени
func (s *Scene) Mesh(name string) (*Mesh, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meshes[name]
	return m, ok
}

// Meshes меши, отсортированные по имени
func (s *Scene) Meshes() []*Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Mesh, 0, len(s.meshes))
	for _, m := range s.meshes {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Size размер окна из последнего Resize
func (s *Scene) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// MeshCount количество мешей
func (s *Scene) MeshCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meshes)
}

// Frames количество отрисованных кадров
func (s *Scene) Frames() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

func asNode(n scene.Node) *Node {
	switch v := n.(type) {
	case *Node:
		return v
	case *Mesh:
		return &v.Node
	default:
		return nil
	}
}
