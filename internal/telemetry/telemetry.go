package telemetry

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Имена счетчиков
const (
	CounterFrames     = "frames"
	CounterSent       = "sent"
	CounterDropped    = "dropped"
	CounterReceived   = "received"
	CounterMalformed  = "malformed"
	CounterSpawned    = "spawned"
	CounterEvicted    = "evicted"
	CounterReconnects = "reconnects"
)

// PoseSample последняя известная поза игрока
type PoseSample struct {
	Timestamp int64      `json:"timestamp"` // Время в миллисекундах
	Name      string     `json:"name"`
	Position  mgl64.Vec3 `json:"position"`
	Source    string     `json:"source"` // local/remote
}

// Manager собирает счетчики сети и кадров и периодически выводит сводку
type Manager struct {
	enabled bool
	mutex   sync.RWMutex
	logger  *log.Logger

	counters map[string]int
	totals   map[string]int
	poses    map[string]PoseSample

	lastPrint     time.Time
	printInterval time.Duration
}

// NewManager создает менеджер телеметрии
func NewManager(enabled bool, printInterval time.Duration, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if printInterval <= 0 {
		printInterval = 5 * time.Second
	}
	return &Manager{
		enabled:       enabled,
		logger:        logger,
		counters:      make(map[string]int),
		totals:        make(map[string]int),
		poses:         make(map[string]PoseSample),
		lastPrint:     time.Now(),
		printInterval: printInterval,
	}
}

// Inc увеличивает счетчик
func (m *Manager) Inc(name string) {
	m.Add(name, 1)
}

// Add увеличивает счетчик на n
func (m *Manager) Add(name string, n int) {
	if m == nil || !m.enabled {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.counters[name] += n
	m.totals[name] += n
}

// RecordPose запоминает последнюю позу игрока
func (m *Manager) RecordPose(name, source string, position mgl64.Vec3) {
	if m == nil || !m.enabled {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.poses[name] = PoseSample{
		Timestamp: time.Now().UnixMilli(),
		Name:      name,
		Position:  position,
		Source:    source,
	}
}

// Forget удаляет позу игрока
func (m *Manager) Forget(name string) {
	if m == nil {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.poses, name)
}

// Total общее значение счетчика с момента запуска
func (m *Manager) Total(name string) int {
	if m == nil {
		return 0
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.totals[name]
}

// MaybePrint выводит сводку, если прошел интервал
func (m *Manager) MaybePrint(now time.Time) {
	if m == nil || !m.enabled {
		return
	}
	m.mutex.RLock()
	due := now.Sub(m.lastPrint) >= m.printInterval
	m.mutex.RUnlock()
	if due {
		m.PrintSummary(now)
	}
}

// PrintSummary выводит сводку за интервал и сбрасывает интервальные счетчики
func (m *Manager) PrintSummary(now time.Time) {
	if m == nil || !m.enabled {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	elapsed := now.Sub(m.lastPrint).Seconds()
	keys := make([]string, 0, len(m.counters))
	for k := range m.counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m.logger.Printf("[Telemetry] Сводка за %.1fс", elapsed)
	for _, k := range keys {
		m.logger.Printf("[Telemetry]   %s: %d", k, m.counters[k])
	}
	if frames := m.counters[CounterFrames]; frames > 0 && elapsed > 0 {
		m.logger.Printf("[Telemetry]   fps: %.1f", float64(frames)/elapsed)
	}
	for _, p := range m.poses {
		m.logger.Printf("[Telemetry]   %s (%s): (%.2f, %.2f, %.2f)",
			p.Name, p.Source, p.Position.X(), p.Position.Y(), p.Position.Z())
	}

	m.counters = make(map[string]int)
	m.lastPrint = now
}

// SnapshotJSON возвращает общие счетчики и позы в JSON
// Для nil-менеджера счетчики пустые.
func (m *Manager) SnapshotJSON() (string, error) {
	snapshot := struct {
		Totals map[string]int        `json:"totals"`
		Poses  map[string]PoseSample `json:"poses"`
	}{map[string]int{}, map[string]PoseSample{}}
	if m != nil {
		m.mutex.RLock()
		defer m.mutex.RUnlock()
		snapshot.Totals, snapshot.Poses = m.totals, m.poses
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
