package realtime

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/iliyamo/branch-scheduler/internal/model"
)

type fakeClient struct {
	id   string
	full bool

	mu   sync.Mutex
	msgs [][]byte
}

func newFakeClient(id string) *fakeClient { return &fakeClient{id: id} }

func (f *fakeClient) ID() string { return f.id }

func (f *fakeClient) Send(payload []byte) error {
	if f.full {
		return ErrSendBufferFull
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, payload)
	return nil
}

func (f *fakeClient) received() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, 0, len(f.msgs))
	for _, m := range f.msgs {
		var env Envelope
		if err := json.Unmarshal(m, &env); err == nil {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func TestRegistry_OnConnectJoinsRooms(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	tests := []struct {
		role model.Role
		want []string
	}{
		{model.RoleMember, []string{"user:1"}},
		{model.RoleTrainer, []string{"user:1"}},
		{model.RoleBranchAdmin, []string{"admins", "user:1"}},
		{model.RoleSuperAdmin, []string{"admins", "user:1"}},
	}
	for i, tt := range tests {
		c := newFakeClient(fmt.Sprintf("c%d", i))
		r.OnConnect(c, 1, tt.role)
		if got := r.Rooms(c); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: rooms = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestRegistry_RouteTargetsRoomOnly(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	alice1, alice2, bob, admin := newFakeClient("a1"), newFakeClient("a2"), newFakeClient("b"), newFakeClient("adm")
	r.OnConnect(alice1, 1, model.RoleMember)
	r.OnConnect(alice2, 1, model.RoleMember)
	r.OnConnect(bob, 2, model.RoleMember)
	r.OnConnect(admin, 3, model.RoleBranchAdmin)

	if n := r.Route(UserRoom(1), []byte(`{}`)); n != 2 {
		t.Fatalf("expected both sessions of user 1, got %d", n)
	}
	if bob.count() != 0 || admin.count() != 0 {
		t.Fatal("other users must not receive a personal room message")
	}
	if n := r.Route(AdminsRoom, []byte(`{}`)); n != 1 || admin.count() != 1 {
		t.Fatalf("admins room delivery = %d", n)
	}
	if n := r.Route("user:404", []byte(`{}`)); n != 0 {
		t.Fatalf("empty room delivered to %d", n)
	}
	if n := r.RouteAll([]byte(`{}`)); n != 4 {
		t.Fatalf("RouteAll delivered to %d, want 4", n)
	}
}

func TestRegistry_OnDisconnect(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	c := newFakeClient("c")
	r.OnConnect(c, 7, model.RoleSuperAdmin)
	r.OnDisconnect(c)
	r.OnDisconnect(c)

	if r.Len() != 0 {
		t.Fatalf("expected no clients, got %d", r.Len())
	}
	if n := r.Route(AdminsRoom, []byte(`{}`)); n != 0 {
		t.Fatalf("disconnected client still routed (%d)", n)
	}
	if stats := r.Stats(); stats["rooms"] != 0 {
		t.Fatalf("empty rooms must be dropped, stats %v", stats)
	}
}

func TestRegistry_SlowClientDoesNotBlock(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	slow := &fakeClient{id: "slow", full: true}
	fast := newFakeClient("fast")
	r.OnConnect(slow, 1, model.RoleMember)
	r.OnConnect(fast, 2, model.RoleMember)

	if n := r.RouteAll([]byte(`{}`)); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	if fast.count() != 1 {
		t.Fatal("fast client must still receive")
	}
}

func TestRegistry_ConcurrentJoinLeaveAndRoute(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c := newFakeClient(fmt.Sprintf("c%d", i))
			r.OnConnect(c, uint64(i%5), model.RoleBranchAdmin)
			r.OnDisconnect(c)
		}(i)
		go func() {
			defer wg.Done()
			r.RouteAll([]byte(`{}`))
			r.Route(AdminsRoom, []byte(`{}`))
		}()
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}
