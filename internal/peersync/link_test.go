package peersync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/telemetry"
)

// testRelay тестовый сервер: передает первые сообщения каждого соединения в канал
func testRelay(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestLink_SendsJoinFirstAndDeliversInbound(t *testing.T) {
	joins := make(chan JoinMessage, 1)
	updates := make(chan UpdateMessage, 1)
	server := testRelay(t, func(conn *websocket.Conn) {
		var join JoinMessage
		if err := conn.ReadJSON(&join); err != nil {
			t.Errorf("Error reading join: %v", err)
			return
		}
		joins <- join
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"update","name":"Player7","position":[1,2,3]}`))

		var upd UpdateMessage
		if err := conn.ReadJSON(&upd); err != nil {
			return
		}
		updates <- upd
		conn.ReadMessage()
	})
	defer server.Close()

	logger := log.New(io.Discard, "", 0)
	link := NewLink(LinkConfig{URL: wsURL(server)}, func() interface{} {
		return NewJoinMessage("Player42")
	}, telemetry.NewManager(false, 0, logger), logger)

	if err := link.Send(NewJoinMessage("Player42")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ожидали ErrNotConnected до подключения, получили %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- link.Run(ctx) }()

	select {
	case join := <-joins:
		if join.Type != MessageTypeJoin || join.Name != "Player42" {
			t.Errorf("неверный join: %+v", join)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("join не получен")
	}

	select {
	case data := <-link.Inbound():
		updates, err := ParseUpdate(data)
		if err != nil || len(updates) != 1 || updates[0].Name != "Player7" {
			t.Errorf("неверный входящий кадр: %s (%v)", data, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("входящее сообщение не доставлено")
	}

	waitFor(t, "connection", link.Connected)
	if err := link.Send(NewUpdateMessage("Player42", poseAt(1, 0, 0))); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	select {
	case upd := <-updates:
		if upd.Type != MessageTypeUpdate || upd.Position != [3]float64{1, 0, 0} {
			t.Errorf("неверное обновление: %+v", upd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("обновление не получено")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run после отмены должен вернуть nil: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run не завершился после отмены")
	}
	if link.Connected() {
		t.Error("после отмены сокет должен быть закрыт")
	}
}

func TestLink_ReconnectResendsJoin(t *testing.T) {
	joins := make(chan string, 4)
	server := testRelay(t, func(conn *websocket.Conn) {
		var join JoinMessage
		if err := conn.ReadJSON(&join); err != nil {
			return
		}
		select {
		case joins <- join.Name:
		default:
		}
		// соединение сразу обрывается
	})
	defer server.Close()

	logger := log.New(io.Discard, "", 0)
	stats := telemetry.NewManager(true, time.Minute, logger)
	link := NewLink(LinkConfig{URL: wsURL(server), ReconnectDelay: 10 * time.Millisecond}, func() interface{} {
		return NewJoinMessage("Player42")
	}, stats, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go link.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case name := <-joins:
			if name != "Player42" {
				t.Errorf("неверное имя в join: %s", name)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("join #%d не получен", i+1)
		}
	}
	waitFor(t, "reconnect counter", func() bool { return stats.Total(telemetry.CounterReconnects) >= 1 })
}

func TestLink_NoReconnectReturnsError(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	link := NewLink(LinkConfig{URL: "ws://127.0.0.1:1/ws", HandshakeTimeout: time.Second}, nil, nil, logger)
	if err := link.Run(context.Background()); err == nil {
		t.Error("ожидали ошибку подключения")
	}
}

func TestSafeWriter_WriteJSON(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	server := testRelay(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var m map[string]interface{}
		json.Unmarshal(data, &m)
		received <- m
	})
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	w := NewSafeWriter(conn)
	defer w.Close()

	if err := w.WriteJSON(NewJoinMessage("Player1")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	select {
	case m := <-received:
		if m["type"] != "join" || m["name"] != "Player1" {
			t.Errorf("неверное сообщение: %v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("сообщение не получено")
	}
}

func poseAt(x, y, z float64) entity.Pose {
	return entity.NewPose(mgl64.Vec3{x, y, z})
}
