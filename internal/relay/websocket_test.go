package relay

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWebSocket(t *testing.T, r *Relay) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(WebSocketHandler(r))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	_ = ws.SetReadDeadline(time.Now().Add(ioTimeout))
	return ws
}

func TestWebSocket_Command(t *testing.T) {
	r, _ := startRelay(t, execFunc(func(command byte, params []byte) ([]byte, error) {
		return []byte{0x01, 0x02}, nil
	}), Config{})
	ws := dialWebSocket(t, r)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("51\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	mt, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Errorf("message type = %d, want text", mt)
	}
	if string(msg) != "0102\n" {
		t.Errorf("message = %q, want %q", msg, "0102\n")
	}
}

func TestWebSocket_LineSplitAcrossMessages(t *testing.T) {
	r, _ := startRelay(t, execFunc(echoBoiler), Config{})
	ws := dialWebSocket(t, r)

	for _, part := range []string{"30", "01\n"} {
		if err := ws.WriteMessage(websocket.BinaryMessage, []byte(part)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != "3001\n" {
		t.Errorf("message = %q, want %q", msg, "3001\n")
	}
}

func TestWebSocket_DisallowedByteCloses(t *testing.T) {
	r, _ := startRelay(t, execFunc(echoBoiler), Config{})
	ws := dialWebSocket(t, r)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, msg, err := ws.ReadMessage(); err == nil {
		t.Fatalf("read = %q, want the connection closed", msg)
	}
}
