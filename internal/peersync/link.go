package peersync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"x-avatar/internal/telemetry"
)

// ErrNotConnected сокет сейчас не открыт
var ErrNotConnected = errors.New("socket not connected")

const writeWait = 5 * time.Second

// SafeWriter обеспечивает потокобезопасную запись в WebSocket
type SafeWriter struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

// NewSafeWriter создает новый экземпляр SafeWriter
func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{conn: conn}
}

// WriteJSON потокобезопасно отправляет JSON данные через WebSocket
func (w *SafeWriter) WriteJSON(v interface{}) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(v)
}

// WriteText потокобезопасно отправляет готовый текстовый кадр
func (w *SafeWriter) WriteText(data []byte) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// Close закрывает соединение WebSocket
func (w *SafeWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return w.conn.Close()
}

// LinkConfig параметры соединения с ретранслятором
type LinkConfig struct {
	URL              string
	ReconnectDelay   time.Duration // 0 - не переподключаться
	HandshakeTimeout time.Duration
	InboundBuffer    int
}

// Link постоянное соединение с ретранслятором.
// Входящие кадры читаются в отдельной горутине и передаются в поток кадра через канал.
type Link struct {
	cfg     LinkConfig
	hello   func() interface{}
	dialer  websocket.Dialer
	inbound chan []byte
	stats   *telemetry.Manager
	logger  *log.Logger

	mu     sync.RWMutex
	writer *SafeWriter
}

// NewLink создает соединение; hello вызывается при каждом открытии сокета,
// его результат отправляется первым сообщением
func NewLink(cfg LinkConfig, hello func() interface{}, stats *telemetry.Manager, logger *log.Logger) *Link {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.InboundBuffer <= 0 {
		cfg.InboundBuffer = 256
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Link{
		cfg:   cfg,
		hello: hello,
		dialer: websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		inbound: make(chan []byte, cfg.InboundBuffer),
		stats:   stats,
		logger:  logger,
	}
}

// Inbound канал входящих кадров
func (l *Link) Inbound() <-chan []byte { return l.inbound }

// Connected открыт ли сокет
func (l *Link) Connected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.writer != nil
}

// Send отправляет сообщение; без открытого сокета возвращает ErrNotConnected
func (l *Link) Send(v interface{}) error {
	l.mu.RLock()
	w := l.writer
	l.mu.RUnlock()
	if w == nil {
		return ErrNotConnected
	}
	return w.WriteJSON(v)
}

// Run держит соединение до отмены ctx.
// После обрыва переподключается через ReconnectDelay и заново отправляет hello.
func (l *Link) Run(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			l.stats.Inc(telemetry.CounterReconnects)
		}
		err := l.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if l.cfg.ReconnectDelay <= 0 {
			return err
		}
		l.logger.Printf("[Link] Соединение потеряно: %v, повтор через %v", err, l.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.cfg.ReconnectDelay):
		}
	}
}

func (l *Link) session(ctx context.Context) error {
	conn, _, err := l.dialer.DialContext(ctx, l.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", l.cfg.URL, err)
	}
	w := NewSafeWriter(conn)

	if l.hello != nil {
		if err := w.WriteJSON(l.hello()); err != nil {
			conn.Close()
			return fmt.Errorf("send join: %w", err)
		}
	}

	l.mu.Lock()
	l.writer = w
	l.mu.Unlock()
	l.logger.Printf("[Link] Подключен к %s", l.cfg.URL)

	done := make(chan struct{})
	defer func() {
		close(done)
		l.mu.Lock()
		l.writer = nil
		l.mu.Unlock()
		conn.Close()
	}()
	go func() {
		select {
		case <-ctx.Done():
			w.Close()
		case <-done:
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		select {
		case l.inbound <- data:
		default:
			// поток кадра не успевает, кадр теряется
			l.stats.Inc(telemetry.CounterDropped)
			l.logger.Printf("[Link] Буфер входящих переполнен, сообщение отброшено")
		}
	}
}
