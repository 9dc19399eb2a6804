package peersync

import (
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/core/port/out/physics"
	"x-avatar/internal/core/port/out/scene"
)

// RemoteAvatar аватар другого клиента.
// Создается один раз при первом упоминании и дальше изменяется на месте.
type RemoteAvatar struct {
	Name        string
	Mesh        scene.Mesh
	Body        physics.RigidBody
	Color       entity.Color
	Position    mgl64.Vec3
	Rotation    mgl64.Vec3
	HasRotation bool
	LastSeen    time.Time
}

// Apply применяет позу: позиция перезаписывается всегда,
// ориентация - только если она есть в сообщении
func (a *RemoteAvatar) Apply(pose entity.Pose, now time.Time) {
	a.Position = pose.Position
	if pose.HasRotation {
		a.Rotation = pose.Rotation
		a.HasRotation = true
	}
	a.LastSeen = now

	if a.Body != nil {
		a.Body.SetPosition(a.Position)
	}
	if a.Mesh != nil {
		a.Mesh.SetPosition(a.Position)
		if pose.HasRotation {
			a.Mesh.SetRotation(a.Rotation)
		}
	}
}

// Pose последняя известная поза
func (a *RemoteAvatar) Pose() entity.Pose {
	return entity.Pose{Position: a.Position, Rotation: a.Rotation, HasRotation: a.HasRotation}
}

// Registry реестр удаленных аватаров по имени.
// Изменяется только из потока кадра, поэтому блокировок нет.
type Registry struct {
	avatars map[string]*RemoteAvatar
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{avatars: make(map[string]*RemoteAvatar)}
}

// Get возвращает аватар по имени
func (r *Registry) Get(name string) (*RemoteAvatar, bool) {
	a, ok := r.avatars[name]
	return a, ok
}

// Put регистрирует аватар
func (r *Registry) Put(a *RemoteAvatar) {
	r.avatars[a.Name] = a
}

// Remove удаляет аватар из реестра
func (r *Registry) Remove(name string) {
	delete(r.avatars, name)
}

// Len количество аватаров
func (r *Registry) Len() int { return len(r.avatars) }

// Names имена аватаров в алфавитном порядке
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.avatars))
	for name := range r.avatars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All возвращает все аватары
func (r *Registry) All() []*RemoteAvatar {
	result := make([]*RemoteAvatar, 0, len(r.avatars))
	for _, a := range r.avatars {
		result = append(result, a)
	}
	return result
}
