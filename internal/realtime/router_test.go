package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/iliyamo/branch-scheduler/internal/model"
	"github.com/iliyamo/branch-scheduler/internal/repository"
	"github.com/iliyamo/branch-scheduler/internal/service"
)

type userStub map[uint64]model.Role

func (u userStub) FindUser(ctx context.Context, id uint64) (model.User, error) {
	role, ok := u[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return model.User{ID: id, Role: role}, nil
}

type memChats struct {
	mu   sync.Mutex
	rows []model.ChatMessage
}

func (m *memChats) Create(ctx context.Context, msg *model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, *msg)
	return nil
}

func (m *memChats) all() []model.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ChatMessage(nil), m.rows...)
}

const (
	memberID  uint64 = 1
	otherID   uint64 = 2
	adminUser uint64 = 3
)

func newTestRouter() (*Router, *Registry, *memChats) {
	reg := NewRegistry(nil)
	chats := &memChats{}
	users := userStub{memberID: model.RoleMember, otherID: model.RoleMember, adminUser: model.RoleBranchAdmin}
	return NewRouter(reg, users, chats, nil), reg, chats
}

func decodeMessage(t *testing.T, env Envelope) MessageOut {
	t.Helper()
	var out MessageOut
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode %s: %v", env.Event, err)
	}
	return out
}

func TestRouter_SendDirect(t *testing.T) {
	t.Parallel()

	r, reg, chats := newTestRouter()
	sender1, sender2 := newFakeClient("s1"), newFakeClient("s2")
	receiver, bystander := newFakeClient("r"), newFakeClient("x")
	reg.OnConnect(sender1, memberID, model.RoleMember)
	reg.OnConnect(sender2, memberID, model.RoleMember)
	reg.OnConnect(receiver, otherID, model.RoleMember)
	reg.OnConnect(bystander, adminUser, model.RoleBranchAdmin)

	msg, err := r.SendDirect(context.Background(), memberID, otherID, "  see you at spin  ")
	if err != nil {
		t.Fatalf("send direct: %v", err)
	}
	if msg.Type != model.MessageDirect || msg.ReceiverID == nil || *msg.ReceiverID != otherID {
		t.Fatalf("unexpected stored message %+v", msg)
	}
	if got := chats.all(); len(got) != 1 || got[0].Message != "see you at spin" {
		t.Fatalf("expected one persisted message, got %+v", got)
	}

	for _, c := range []*fakeClient{receiver, sender1, sender2} {
		envs := c.received()
		if len(envs) != 1 || envs[0].Event != EventDirectMessage {
			t.Fatalf("%s: expected one direct_message, got %+v", c.id, envs)
		}
		if out := decodeMessage(t, envs[0]); out.From != memberID || out.Message != "see you at spin" || out.CreatedAt.IsZero() {
			t.Fatalf("%s: unexpected payload %+v", c.id, out)
		}
	}
	if bystander.count() != 0 {
		t.Fatal("direct message leaked to a third party")
	}
}

func TestRouter_SendDirect_OfflineReceiverStillPersists(t *testing.T) {
	t.Parallel()

	r, _, chats := newTestRouter()
	if _, err := r.SendDirect(context.Background(), memberID, otherID, "hi"); err != nil {
		t.Fatalf("send direct: %v", err)
	}
	if len(chats.all()) != 1 {
		t.Fatal("message must be stored even when nobody is connected")
	}
}

func TestRouter_SendDirect_Errors(t *testing.T) {
	t.Parallel()

	r, _, chats := newTestRouter()
	if _, err := r.SendDirect(context.Background(), memberID, 404, "hi"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.SendDirect(context.Background(), memberID, otherID, "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if len(chats.all()) != 0 {
		t.Fatal("nothing should be persisted on failure")
	}
}

func TestRouter_SendBroadcast(t *testing.T) {
	t.Parallel()

	t.Run("member is forbidden", func(t *testing.T) {
		r, reg, chats := newTestRouter()
		c := newFakeClient("m")
		reg.OnConnect(c, memberID, model.RoleMember)

		if _, err := r.SendBroadcast(context.Background(), memberID, model.RoleMember, "hello all"); !errors.Is(err, service.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if len(chats.all()) != 0 || c.count() != 0 {
			t.Fatal("forbidden broadcast must be neither stored nor delivered")
		}
	})

	t.Run("branch admin reaches every connection", func(t *testing.T) {
		r, reg, chats := newTestRouter()
		admin1, admin2 := newFakeClient("a1"), newFakeClient("a2")
		m1, m2 := newFakeClient("m1"), newFakeClient("m2")
		reg.OnConnect(admin1, adminUser, model.RoleBranchAdmin)
		reg.OnConnect(admin2, adminUser, model.RoleBranchAdmin)
		reg.OnConnect(m1, memberID, model.RoleMember)
		reg.OnConnect(m2, otherID, model.RoleMember)

		msg, err := r.SendBroadcast(context.Background(), adminUser, model.RoleBranchAdmin, "gym closes at 8")
		if err != nil {
			t.Fatalf("broadcast: %v", err)
		}
		if msg.Type != model.MessageBroadcast || msg.ReceiverID != nil {
			t.Fatalf("broadcast must have no receiver, got %+v", msg)
		}
		if len(chats.all()) != 1 {
			t.Fatal("broadcast must be persisted once")
		}
		for _, c := range []*fakeClient{admin1, admin2, m1, m2} {
			envs := c.received()
			if len(envs) != 1 || envs[0].Event != EventBroadcast {
				t.Fatalf("%s: expected one broadcast, got %+v", c.id, envs)
			}
		}
	})
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{ErrInvalidMessage, "invalid_message"},
		{errUnknownEvent, "unknown_event"},
		{errBadPayload, "invalid_payload"},
		{service.ErrForbidden, "forbidden"},
		{service.ErrNotFound, "not_found"},
		{errors.New("db down"), "internal"},
	}
	for _, tc := range cases {
		if got := errorCode(tc.err); got != tc.want {
			t.Errorf("errorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
