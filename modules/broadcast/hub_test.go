package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/example/taskboard/events"
)

// fakeConn captures everything written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) lastFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})
	return hub
}

func admit(t *testing.T, hub *Hub, id, userID string) (*Client, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	client := &Client{ID: id, UserID: userID, Username: userID, Conn: conn}
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() > 0 })
	return client, conn
}

func TestHub_RelayReachesAllIncludingOrigin(t *testing.T) {
	hub := startHub(t)

	a, connA := admit(t, hub, "conn-a", "alice")
	_, connB := admit(t, hub, "conn-b", "bob")
	_, connC := admit(t, hub, "conn-c", "carol")
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	frame, err := events.Encode(events.TaskCreated, map[string]string{"id": "t1", "title": "T1"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	hub.Relay(a, events.TaskCreated, frame)

	for name, conn := range map[string]*fakeConn{"B": connB, "C": connC, "A (self-echo)": connA} {
		conn := conn
		waitFor(t, func() bool { return conn.frameCount() == 1 })
		env, err := events.Decode(conn.lastFrame())
		if err != nil {
			t.Fatalf("client %s received undecodable frame: %v", name, err)
		}
		if env.Event != events.TaskCreated {
			t.Errorf("client %s received event %q, want %q", name, env.Event, events.TaskCreated)
		}
	}
}

func TestHub_RelayIsVerbatim(t *testing.T) {
	hub := startHub(t)

	a, _ := admit(t, hub, "conn-a", "alice")
	_, connB := admit(t, hub, "conn-b", "bob")
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	// A malformed payload passes through untouched; the relay never
	// inspects it.
	frame := []byte(`{"event":"task-updated","payload":{"junk":true}}`)
	hub.Relay(a, events.TaskUpdated, frame)

	waitFor(t, func() bool { return connB.frameCount() == 1 })
	if string(connB.lastFrame()) != string(frame) {
		t.Errorf("relayed frame = %s, want verbatim %s", connB.lastFrame(), frame)
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := startHub(t)

	a, _ := admit(t, hub, "conn-a", "alice")
	b, connB := admit(t, hub, "conn-b", "bob")
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.Unregister(b)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	frame, _ := events.Encode(events.TaskDeleted, "t1")
	hub.Relay(a, events.TaskDeleted, frame)

	// A sees the disconnect snapshot and then its own echo; B, already
	// removed, must not receive anything.
	connA := a.Conn.(*fakeConn)
	waitFor(t, func() bool { return connA.frameCount() == 2 })
	env, err := events.Decode(connA.lastFrame())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if env.Event != events.TaskDeleted {
		t.Errorf("last event = %q, want %q", env.Event, events.TaskDeleted)
	}
	if connB.frameCount() != 0 {
		t.Errorf("unregistered client received %d frames, want 0", connB.frameCount())
	}
}

func TestHub_DisconnectAlwaysBroadcastsSnapshot(t *testing.T) {
	hub := startHub(t)

	_, connA := admit(t, hub, "conn-a", "alice")
	b, _ := admit(t, hub, "conn-b", "bob")
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	// B never announced, but its disconnect still produces a snapshot.
	hub.Unregister(b)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	waitFor(t, func() bool { return connA.frameCount() == 1 })

	env, err := events.Decode(connA.lastFrame())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if env.Event != events.PresenceSnapshot {
		t.Fatalf("event = %q, want presence-snapshot", env.Event)
	}
	users, err := env.Users()
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("snapshot users = %v, want empty", users)
	}
}

func TestHub_PresenceAnnounceAndDisconnect(t *testing.T) {
	hub := startHub(t)

	a, connA := admit(t, hub, "conn-a", "alice")
	b, connB := admit(t, hub, "conn-b", "bob")
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.Announce(a, "alice")
	hub.Announce(b, "bob")
	waitFor(t, func() bool { return len(hub.OnlineUsers()) == 2 })

	// Both clients got snapshots; the latest lists both identities sorted.
	waitFor(t, func() bool { return connA.frameCount() >= 2 && connB.frameCount() >= 1 })
	env, err := events.Decode(connA.lastFrame())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if env.Event != events.PresenceSnapshot {
		t.Fatalf("last event = %q, want presence-snapshot", env.Event)
	}
	users, err := env.Users()
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if len(users) != 2 || users[0] != "alice" || users[1] != "bob" {
		t.Errorf("snapshot users = %v, want [alice bob]", users)
	}

	// Disconnect drops the identity and re-broadcasts.
	hub.Unregister(b)
	waitFor(t, func() bool { return len(hub.OnlineUsers()) == 1 })
	waitFor(t, func() bool {
		env, err := events.Decode(connA.lastFrame())
		if err != nil || env.Event != events.PresenceSnapshot {
			return false
		}
		users, err := env.Users()
		return err == nil && len(users) == 1 && users[0] == "alice"
	})
}

func TestHub_AnnounceFromUnknownConnectionIgnored(t *testing.T) {
	hub := startHub(t)

	_, _ = admit(t, hub, "conn-a", "alice")
	ghost := &Client{ID: "conn-ghost", Conn: &fakeConn{}}
	hub.Announce(ghost, "ghost")

	// Give the loop a chance to process, then confirm nothing changed.
	time.Sleep(20 * time.Millisecond)
	if n := len(hub.OnlineUsers()); n != 0 {
		t.Errorf("OnlineUsers() = %d, want 0", n)
	}
}

func TestHub_SnapshotPayloadShape(t *testing.T) {
	// The snapshot payload is a stable JSON object, not a bare array.
	data, err := events.Encode(events.PresenceSnapshot, events.Snapshot{Users: []string{"u1"}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var env struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if string(env.Payload) != `{"users":["u1"]}` {
		t.Errorf("payload = %s, want {\"users\":[\"u1\"]}", env.Payload)
	}
}
