package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"x-avatar/internal/peersync"
	"x-avatar/internal/telemetry"
)

// Config параметры ретранслятора
type Config struct {
	// BatchInterval 0 - пересылать каждый кадр сразу остальным клиентам;
	// иначе собирать последнюю позу каждого игрока и рассылать пачкой
	BatchInterval time.Duration
}

// frameWriter запись кадров клиенту; peersync.SafeWriter в рабочем режиме
type frameWriter interface {
	WriteText(data []byte) error
	Close() error
}

// client подключенный клиент
type client struct {
	writer frameWriter
	name   string
}

// recipient получатель рассылки, снятый под блокировкой
type recipient struct {
	writer frameWriter
	name   string
}

// batchEntry запись игрока в пачке; значения пересылаются без проверки
type batchEntry struct {
	Name     string          `json:"name"`
	Position json.RawMessage `json:"position,omitempty"`
	Rotation json.RawMessage `json:"rotation,omitempty"`
}

type batchMessage struct {
	Type    string       `json:"type"`
	Players []batchEntry `json:"players"`
}

// Hub ретранслятор для разработки: рассылает кадры клиентов друг другу.
// Не проверяет, не упорядочивает и не согласует состояние.
type Hub struct {
	cfg       Config
	upgrader  websocket.Upgrader
	handlers  map[string]func(*client, []byte) error
	clients   map[*client]bool
	clientsMu sync.Mutex

	pending   map[string]batchEntry
	pendingMu sync.Mutex

	stats  *telemetry.Manager
	logger *log.Logger
}

// NewHub создает ретранслятор
func NewHub(cfg Config, stats *telemetry.Manager, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	h := &Hub{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]bool),
		pending: make(map[string]batchEntry),
		stats:   stats,
		logger:  logger,
	}
	h.registerHandlers()
	return h
}

func (h *Hub) registerHandlers() {
	h.handlers = map[string]func(*client, []byte) error{
		peersync.MessageTypeJoin: func(c *client, data []byte) error {
			var join peersync.JoinMessage
			if err := json.Unmarshal(data, &join); err != nil {
				return fmt.Errorf("join: %w", err)
			}
			h.clientsMu.Lock()
			c.name = join.Name
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Printf("[Relay] Игрок %s вошел (клиентов: %d)", join.Name, n)
			return nil
		},
		peersync.MessageTypeUpdate: func(c *client, data []byte) error {
			if h.cfg.BatchInterval <= 0 {
				h.broadcast(data, c)
				return nil
			}
			return h.enqueue(data)
		},
	}
}

// HandleWS обрабатывает WebSocket соединения
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[Relay] Ошибка при установке WebSocket соединения: %v", err)
		return
	}

	c := &client{writer: peersync.NewSafeWriter(conn)}
	h.clientsMu.Lock()
	h.clients[c] = true
	h.clientsMu.Unlock()

	defer func() {
		h.clientsMu.Lock()
		delete(h.clients, c)
		h.clientsMu.Unlock()
		conn.Close()
		h.logger.Printf("[Relay] Игрок %s отключился", c.name)
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Printf("[Relay] Ошибка при чтении сообщения: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		h.stats.Inc(telemetry.CounterReceived)

		msgType, err := peersync.GetMessageType(data)
		if err != nil {
			h.stats.Inc(telemetry.CounterMalformed)
			h.logger.Printf("[Relay] Получено сообщение без типа: %v", err)
			continue
		}
		handler, ok := h.handlers[msgType]
		if !ok {
			h.logger.Printf("[Relay] Нет обработчика для типа сообщения: %s", msgType)
			continue
		}
		if err := handler(c, data); err != nil {
			h.stats.Inc(telemetry.CounterMalformed)
			h.logger.Printf("[Relay] Ошибка обработки сообщения типа %s: %v", msgType, err)
		}
	}
}

// broadcast отправляет кадр всем клиентам, кроме отправителя
// Запись идет вне clientsMu.
func (h *Hub) broadcast(data []byte, from *client) {
	for _, r := range h.recipients(from) {
		if err := r.writer.WriteText(data); err != nil {
			h.stats.Inc(telemetry.CounterDropped)
			h.logger.Printf("[Relay] Ошибка при отправке клиенту %s: %v", r.name, err)
			continue
		}
		h.stats.Inc(telemetry.CounterSent)
	}
}

// recipients снимок клиентов, кроме from
func (h *Hub) recipients(from *client) []recipient {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	out := make([]recipient, 0, len(h.clients))
	for c := range h.clients {
		if c != from {
			out = append(out, recipient{writer: c.writer, name: c.name})
		}
	}
	return out
}

// enqueue запоминает последнюю позу игрока до следующей рассылки пачки
func (h *Hub) enqueue(data []byte) error {
	var entry batchEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if entry.Name == "" {
		return fmt.Errorf("update: %w", peersync.ErrMalformed)
	}
	h.pendingMu.Lock()
	h.pending[entry.Name] = entry
	h.pendingMu.Unlock()
	return nil
}

// Flush рассылает накопленные позы одной пачкой всем клиентам.
// Клиенты сами пропускают собственное имя.
func (h *Hub) Flush() int {
	h.pendingMu.Lock()
	if len(h.pending) == 0 {
		h.pendingMu.Unlock()
		return 0
	}
	players := make([]batchEntry, 0, len(h.pending))
	for _, e := range h.pending {
		players = append(players, e)
	}
	h.pending = make(map[string]batchEntry)
	h.pendingMu.Unlock()

	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	data, err := json.Marshal(batchMessage{Type: peersync.MessageTypeUpdate, Players: players})
	if err != nil {
		h.logger.Printf("[Relay] Ошибка сериализации пачки: %v", err)
		return 0
	}
	h.broadcast(data, nil)
	return len(players)
}

// Run рассылает пачки с интервалом BatchInterval до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	if h.cfg.BatchInterval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(h.cfg.BatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Flush()
		}
	}
}

// Pending количество игроков, ожидающих рассылки пачкой
func (h *Hub) Pending() int {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	return len(h.pending)
}

// ClientCount количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// Names имена вошедших игроков
func (h *Hub) Names() []string {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	names := make([]string, 0, len(h.clients))
	for c := range h.clients {
		if c.name != "" {
			names = append(names, c.name)
		}
	}
	sort.Strings(names)
	return names
}

// Health состояние ретранслятора для /health
type Health struct {
	Clients   int             `json:"clients"`
	Names     []string        `json:"names"`
	Pending   int             `json:"pending"`
	Telemetry json.RawMessage `json:"telemetry"`
}

// Health снимает текущее состояние: клиенты, вошедшие игроки, ожидающие пачки позы и счетчики
func (h *Hub) Health() Health {
	report := Health{
		Clients: h.ClientCount(),
		Names:   h.Names(),
		Pending: h.Pending(),
	}
	snapshot, err := h.stats.SnapshotJSON()
	if err != nil {
		h.logger.Printf("[Relay] Ошибка снимка телеметрии: %v", err)
		snapshot = "null"
	}
	report.Telemetry = json.RawMessage(snapshot)
	return report
}

// CloseAll закрывает все соединения
func (h *Hub) CloseAll() {
	for _, r := range h.recipients(nil) {
		r.writer.Close()
	}
}
