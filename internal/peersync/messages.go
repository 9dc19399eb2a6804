package peersync

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
)

// Типы сообщений
const (
	MessageTypeJoin   = "join"   // Вход в сессию, отправляется один раз при открытии сокета
	MessageTypeUpdate = "update" // Поза игрока, в обе стороны
)

var (
	// ErrMalformed сообщение не разбирается или не содержит обязательных полей
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType неизвестный тип сообщения
	ErrUnknownType = errors.New("unknown message type")
)

// JoinMessage сообщение о входе
type JoinMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// UpdateMessage исходящее сообщение с позой одного игрока.
// Без номера последовательности, метки времени и подтверждений.
type UpdateMessage struct {
	Type     string      `json:"type"`
	Name     string      `json:"name"`
	Position [3]float64  `json:"position"`
	Rotation *[3]float64 `json:"rotation,omitempty"`
}

// PeerUpdate разобранное обновление позы одного игрока
type PeerUpdate struct {
	Name string
	Pose entity.Pose
}

// NewJoinMessage создает сообщение о входе
func NewJoinMessage(name string) JoinMessage {
	return JoinMessage{Type: MessageTypeJoin, Name: name}
}

// NewUpdateMessage создает сообщение с позой; NaN заменяются нулями
func NewUpdateMessage(name string, pose entity.Pose) UpdateMessage {
	msg := UpdateMessage{
		Type:     MessageTypeUpdate,
		Name:     name,
		Position: safeVec(pose.Position),
	}
	if pose.HasRotation {
		r := safeVec(pose.Rotation)
		msg.Rotation = &r
	}
	return msg
}

// inboundPlayer запись об игроке во входящем сообщении
type inboundPlayer struct {
	Name     string    `json:"name"`
	Position []float64 `json:"position"`
	Rotation []float64 `json:"rotation"`
}

// inboundMessage входящее сообщение: одиночное обновление или пакет players
type inboundMessage struct {
	Type string `json:"type"`
	inboundPlayer
	Players []inboundPlayer `json:"players"`
}

// GetMessageType возвращает тип сообщения
func GetMessageType(data []byte) (string, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return base.Type, nil
}

// ParseUpdate разбирает входящее сообщение в список обновлений.
// Сообщения join от других клиентов не несут позы и дают пустой список.
// В пакете некорректные записи отбрасываются по одной: корректные возвращаются
// вместе с ошибкой ErrMalformed.
func ParseUpdate(data []byte) ([]PeerUpdate, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch msg.Type {
	case MessageTypeUpdate:
	case MessageTypeJoin:
		return nil, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, msg.Type)
	}

	if msg.Players == nil {
		u, err := msg.inboundPlayer.toUpdate()
		if err != nil {
			return nil, err
		}
		return []PeerUpdate{u}, nil
	}

	updates := make([]PeerUpdate, 0, len(msg.Players))
	var errs []error
	for i, p := range msg.Players {
		u, err := p.toUpdate()
		if err != nil {
			errs = append(errs, fmt.Errorf("players[%d]: %w", i, err))
			continue
		}
		updates = append(updates, u)
	}
	return updates, errors.Join(errs...)
}

func (p inboundPlayer) toUpdate() (PeerUpdate, error) {
	if p.Name == "" {
		return PeerUpdate{}, fmt.Errorf("%w: missing name", ErrMalformed)
	}
	pos, ok := vec3(p.Position)
	if !ok {
		return PeerUpdate{}, fmt.Errorf("%w: player %s: position must have 3 components", ErrMalformed, p.Name)
	}
	pose := entity.NewPose(pos)
	if p.Rotation != nil {
		rot, ok := vec3(p.Rotation)
		if !ok {
			return PeerUpdate{}, fmt.Errorf("%w: player %s: rotation must have 3 components", ErrMalformed, p.Name)
		}
		pose = pose.WithRotation(rot)
	}
	return PeerUpdate{Name: p.Name, Pose: pose}, nil
}

func vec3(v []float64) (mgl64.Vec3, bool) {
	if len(v) != 3 {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, true
}

// safeValue проверяет значения на NaN и бесконечность и заменяет их нулем
func safeValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func safeVec(v mgl64.Vec3) [3]float64 {
	return [3]float64{safeValue(v[0]), safeValue(v[1]), safeValue(v[2])}
}
