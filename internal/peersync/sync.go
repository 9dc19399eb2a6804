package peersync

import (
	"errors"
	"log"
	"time"

	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/telemetry"
)

// Publisher отправляет сообщения в сокет
type Publisher interface {
	Send(v interface{}) error
}

// Sync синхронизирует позы: публикует локальную позу раз в кадр
// и применяет входящие обновления к реестру удаленных аватаров
type Sync struct {
	name       string
	registry   *Registry
	spawner    Spawner
	out        Publisher
	stats      *telemetry.Manager
	logger     *log.Logger
	staleAfter time.Duration
	now        func() time.Time
}

// Options дополнительные параметры Sync
type Options struct {
	// StaleAfter удалять аватары без обновлений дольше этого времени; 0 - никогда
	StaleAfter time.Duration
	Stats      *telemetry.Manager
	Logger     *log.Logger
	Now        func() time.Time
}

// NewSync создает синхронизацию для локального игрока name
func NewSync(name string, spawner Spawner, out Publisher, opts Options) *Sync {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sync{
		name:       name,
		registry:   NewRegistry(),
		spawner:    spawner,
		out:        out,
		stats:      opts.Stats,
		logger:     opts.Logger,
		staleAfter: opts.StaleAfter,
		now:        opts.Now,
	}
}

// Name имя локального игрока
func (s *Sync) Name() string { return s.name }

// Registry реестр удаленных аватаров
func (s *Sync) Registry() *Registry { return s.registry }

// Join сообщение о входе для отправки при каждом открытии сокета
func (s *Sync) Join() JoinMessage { return NewJoinMessage(s.name) }

// Publish отправляет локальную позу. Без ограничения частоты и дельта-сжатия;
// если сокет недоступен, кадр просто теряется.
func (s *Sync) Publish(pose entity.Pose) error {
	s.stats.RecordPose(s.name, "local", pose.Position)
	if s.out == nil {
		return nil
	}
	if err := s.out.Send(NewUpdateMessage(s.name, pose)); err != nil {
		s.stats.Inc(telemetry.CounterDropped)
		if errors.Is(err, ErrNotConnected) {
			return nil
		}
		return err
	}
	s.stats.Inc(telemetry.CounterSent)
	return nil
}

// HandleMessage разбирает входящее сообщение и применяет его.
// Ошибка разбора не прерывает сессию: вызывающий ее только логирует.
func (s *Sync) HandleMessage(data []byte) error {
	s.stats.Inc(telemetry.CounterReceived)
	updates, err := ParseUpdate(data)
	if err != nil {
		s.stats.Inc(telemetry.CounterMalformed)
	}
	s.Apply(updates)
	return err
}

// Apply применяет обновления; собственное имя пропускается
func (s *Sync) Apply(updates []PeerUpdate) {
	now := s.now()
	for _, u := range updates {
		if u.Name == s.name {
			continue
		}
		a, ok := s.registry.Get(u.Name)
		if !ok {
			a = s.spawner.Spawn(u.Name)
			s.registry.Put(a)
			s.stats.Inc(telemetry.CounterSpawned)
			s.logger.Printf("[PeerSync] Новый игрок %s, цвет %s", u.Name, a.Color.Hex())
		}
		a.Apply(u.Pose, now)
		s.stats.RecordPose(u.Name, "remote", u.Pose.Position)
	}
}

// Drain применяет все сообщения, накопленные в канале, не блокируясь.
// Вызывается из потока кадра, поэтому реестр и хэндлы сцены меняются только в нем.
func (s *Sync) Drain(inbound <-chan []byte) int {
	n := 0
	for {
		select {
		case data, ok := <-inbound:
			if !ok {
				return n
			}
			n++
			if err := s.HandleMessage(data); err != nil {
				s.logger.Printf("[PeerSync] Отброшено входящее сообщение: %v", err)
			}
		default:
			return n
		}
	}
}

// EvictStale удаляет аватары без обновлений дольше StaleAfter
func (s *Sync) EvictStale() int {
	if s.staleAfter <= 0 {
		return 0
	}
	now := s.now()
	evicted := 0
	for _, a := range s.registry.All() {
		if now.Sub(a.LastSeen) <= s.staleAfter {
			continue
		}
		s.spawner.Despawn(a)
		s.registry.Remove(a.Name)
		s.stats.Forget(a.Name)
		s.stats.Inc(telemetry.CounterEvicted)
		evicted++
		s.logger.Printf("[PeerSync] Игрок %s удален: нет обновлений %v", a.Name, now.Sub(a.LastSeen).Round(time.Millisecond))
	}
	return evicted
}
