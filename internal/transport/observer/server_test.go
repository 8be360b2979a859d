package observer

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"moltmud.ai/internal/observerproto"
	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/sim/tuning"
	"moltmud.ai/internal/sim/world"
	"moltmud.ai/internal/sim/worlddef"
	"moltmud.ai/internal/store"
)

func newTestSetup(t *testing.T) (*world.World, *httptest.Server) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "mud.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	graph, err := worlddef.Compile(worlddef.Defaults())
	if err != nil {
		t.Fatalf("compile world: %v", err)
	}
	w, err := world.New(st, graph, tuning.Defaults(), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}

	s := NewServer(w, log.New(io.Discard, "", 0))
	mux := http.NewServeMux()
	mux.HandleFunc("/obs/v1/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/obs/v1/ws", s.WSHandler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return w, srv
}

func TestBootstrapListsRooms(t *testing.T) {
	_, srv := newTestSetup(t)

	resp, err := http.Get(srv.URL + "/obs/v1/bootstrap")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var boot observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if boot.ProtocolVersion != observerproto.Version {
		t.Fatalf("protocol_version = %s", boot.ProtocolVersion)
	}
	if len(boot.Rooms) != 4 {
		t.Fatalf("rooms = %d, want 4", len(boot.Rooms))
	}
}

func TestFeedDeliversEvents(t *testing.T) {
	w, srv := newTestSetup(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/obs/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(observerproto.SubscribeMsg{
		Type:            "SUBSCRIBE",
		ProtocolVersion: observerproto.Version,
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// Give the server a beat to register the subscription before acting.
	time.Sleep(50 * time.Millisecond)

	if _, werr := w.Connect(protocol.ConnectRequest{AgentID: "a1", Name: "Ada"}); werr != nil {
		t.Fatalf("connect: %v", werr)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev observerproto.EventMsg
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Kind != world.EventConnect || ev.AgentID != "a1" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestHandshakeRequired(t *testing.T) {
	_, srv := newTestSetup(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/obs/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"type": "NOPE"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("connection survived a bad handshake")
	}
}
