package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/branch-scheduler/internal/model"
	"github.com/iliyamo/branch-scheduler/internal/utils"
)

const testSecret = "ws-test-secret"

type wsFixture struct {
	server   *httptest.Server
	registry *Registry
	chats    *memChats
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	users := userStub{memberID: model.RoleMember, otherID: model.RoleMember, adminUser: model.RoleSuperAdmin}
	reg := NewRegistry(nil)
	chats := &memChats{}
	h := NewHandler(NewAuthenticator(testSecret, users), reg, NewRouter(reg, users, chats, nil), nil, nil)

	e := echo.New()
	e.GET("/ws", h.Serve)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &wsFixture{server: srv, registry: reg, chats: chats}
}

func (f *wsFixture) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
}

func tokenFor(t *testing.T, id uint64, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, id, role, 5)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok.Token
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(f.url(), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *wsFixture) waitForClients(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.registry.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, f.registry.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestHandler_RejectsUnauthenticated(t *testing.T) {
	t.Parallel()

	f := newWSFixture(t)
	tests := []struct {
		name  string
		query string
	}{
		{"no token", ""},
		{"garbage token", "?token=not-a-jwt"},
		{"unknown user", "?token=" + tokenFor(t, 404, model.RoleMember)},
	}
	for _, tt := range tests {
		_, resp, err := websocket.DefaultDialer.Dial(f.url()+tt.query, nil)
		if err == nil {
			t.Fatalf("%s: expected handshake failure", tt.name)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %+v", tt.name, resp)
		}
		resp.Body.Close()
	}
	if f.registry.Len() != 0 {
		t.Fatalf("rejected handshakes must not join rooms, have %d clients", f.registry.Len())
	}
}

func TestHandler_DirectMessageRoundTrip(t *testing.T) {
	t.Parallel()

	f := newWSFixture(t)
	sender := f.dial(t, tokenFor(t, memberID, model.RoleMember))
	receiver, _, err := websocket.DefaultDialer.Dial(f.url()+"?token="+tokenFor(t, otherID, model.RoleMember), nil)
	if err != nil {
		t.Fatalf("dial with query token: %v", err)
	}
	defer receiver.Close()
	f.waitForClients(t, 2)

	if err := sender.WriteJSON(map[string]any{
		"event": EventDirectMessage,
		"data":  map[string]any{"toUserId": otherID, "message": "hello"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, conn := range []*websocket.Conn{receiver, sender} {
		env := readEnvelope(t, conn)
		if env.Event != EventDirectMessage {
			t.Fatalf("expected direct_message, got %q", env.Event)
		}
		var out MessageOut
		if err := json.Unmarshal(env.Data, &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.From != memberID || out.Message != "hello" {
			t.Fatalf("unexpected payload %+v", out)
		}
	}
	if len(f.chats.all()) != 1 {
		t.Fatal("message must be persisted")
	}
}

func TestHandler_ErrorsGoToSenderOnly(t *testing.T) {
	t.Parallel()

	f := newWSFixture(t)
	member := f.dial(t, tokenFor(t, memberID, model.RoleMember))
	f.waitForClients(t, 1)

	tests := []struct {
		frame string
		code  string
	}{
		{`{"event":"dance","data":{}}`, "unknown_event"},
		{`not json`, "invalid_payload"},
		{`{"event":"direct_message","data":{"message":"x"}}`, "invalid_payload"},
		{`{"event":"direct_message","data":{"toUserId":2,"message":"   "}}`, "invalid_message"},
		{`{"event":"direct_message","data":{"toUserId":404,"message":"hi"}}`, "not_found"},
		{`{"event":"broadcast","data":{"message":"hi all"}}`, "forbidden"},
	}
	for _, tt := range tests {
		if err := member.WriteMessage(websocket.TextMessage, []byte(tt.frame)); err != nil {
			t.Fatalf("write: %v", err)
		}
		env := readEnvelope(t, member)
		if env.Event != EventError {
			t.Fatalf("%s: expected error event, got %q", tt.frame, env.Event)
		}
		var out ErrorOut
		if err := json.Unmarshal(env.Data, &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.Code != tt.code {
			t.Fatalf("%s: code = %q, want %q", tt.frame, out.Code, tt.code)
		}
	}
	if len(f.chats.all()) != 0 {
		t.Fatal("failed events must not persist anything")
	}
}

func TestHandler_AdminBroadcast(t *testing.T) {
	t.Parallel()

	f := newWSFixture(t)
	admin := f.dial(t, tokenFor(t, adminUser, model.RoleSuperAdmin))
	member := f.dial(t, tokenFor(t, memberID, model.RoleMember))
	f.waitForClients(t, 2)

	if err := admin.WriteJSON(map[string]any{
		"event": EventBroadcast,
		"data":  map[string]any{"message": "pool closed today"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, conn := range []*websocket.Conn{member, admin} {
		if env := readEnvelope(t, conn); env.Event != EventBroadcast {
			t.Fatalf("expected broadcast, got %q", env.Event)
		}
	}
}
