package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRelay_NilSafe(t *testing.T) {
	var m *Relay
	m.ClientAccepted("tcp")
	m.ClientClosed("eof")
	m.Received(3)
	m.Command(0x51, "ok", time.Millisecond)
}

func TestRelay_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRelay(reg)

	m.ClientAccepted("tcp")
	m.ClientAccepted("websocket")
	m.ClientClosed("protocol_violation")
	m.Received(4)
	m.Command(0x51, "ok", 20*time.Millisecond)
	m.Command(0x51, "NoResponse", time.Second)

	if got := testutil.ToFloat64(m.Connected); got != 1 {
		t.Errorf("connected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Accepted.WithLabelValues("websocket")); got != 1 {
		t.Errorf("accepted{websocket} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Dropped.WithLabelValues("protocol_violation")); got != 1 {
		t.Errorf("dropped{protocol_violation} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BytesReceived); got != 4 {
		t.Errorf("bytes received = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.Commands.WithLabelValues("51", "NoResponse")); got != 1 {
		t.Errorf("commands{51,NoResponse} = %v, want 1", got)
	}
}

func TestHandler_Exposition(t *testing.T) {
	reg := NewRegistry()
	m := NewRelay(reg)
	m.Command(0x30, "ok", 10*time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`froeling_boiler_commands_total{command="30",result="ok"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
