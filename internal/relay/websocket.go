package relay

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/froeling/internal/logging"
	"go.uber.org/zap"
)

const closeWriteTimeout = time.Second

// WebSocketHandler upgrades HTTP requests and attaches them to r. Message
// boundaries carry no meaning: inbound text or binary messages are joined
// into one stream with the same line rules as TCP clients, and each chunk of
// output is sent as one text message.
func WebSocketHandler(r *Relay) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// The relay has no notion of origin or authentication
		CheckOrigin: func(*http.Request) bool { return true },
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logging.Warn("WebSocket upgrade failed",
				zap.String("remote_addr", req.RemoteAddr),
				zap.Error(err),
			)
			return
		}

		if err := r.Attach(&wsConn{ws: ws}, req.RemoteAddr, TransportWebSocket); err != nil {
			_ = ws.Close()
		}
	})
}

// wsConn presents a WebSocket as a byte stream
type wsConn struct {
	ws  *websocket.Conn
	cur io.Reader
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.cur == nil {
			mt, rd, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
				continue
			}
			c.cur = rd
		}

		n, err := c.cur.Read(p)
		if err == io.EOF {
			c.cur = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWriteTimeout))
	return c.ws.Close()
}
