package headless

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
)

func TestScene_CameraFollowsParent(t *testing.T) {
	s := New()
	m := s.CreateMesh("Player1", entity.Capsule(0.5, 2))
	s.Attach(s.Camera(), m, mgl64.Vec3{0, 0.8, 0})

	m.SetPosition(mgl64.Vec3{3, 1, -2})
	got := s.CameraNode().WorldPosition()
	if !got.ApproxEqual(mgl64.Vec3{3, 1.8, -2}) {
		t.Errorf("позиция камеры %v", got)
	}
}

func TestScene_MeshLifecycle(t *testing.T) {
	s := New()
	b := s.CreateMesh("Player2", entity.Capsule(0.5, 2))
	s.CreateMesh("Player1", entity.Capsule(0.5, 2))
	if s.MeshCount() != 2 {
		t.Fatalf("мешей %d", s.MeshCount())
	}
	if names := s.Meshes(); names[0].Name() != "Player1" || names[1].Name() != "Player2" {
		t.Errorf("порядок мешей: %s, %s", names[0].Name(), names[1].Name())
	}

	b.SetColor(entity.ColorForID(2))
	if m, ok := s.Mesh("Player2"); !ok || m.Color != entity.ColorForID(2) {
		t.Errorf("цвет не сохранен")
	}

	s.RemoveMesh(b)
	if _, ok := s.Mesh("Player2"); ok {
		t.Error("меш должен быть удален")
	}

	s.Render()
	s.Resize(640, 480)
	if w, h := s.Size(); s.Frames() != 1 || w != 640 || h != 480 {
		t.Errorf("кадров %d, размер %dx%d", s.Frames(), w, h)
	}
}
