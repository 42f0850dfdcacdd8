package websocket

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEventEnvelope(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	fragment, err := json.Marshal(StreamEvent{Type: "fragment", ConversationId: id, Delta: "Hel"})
	require.NoError(t, err)
	assert.JSONEq(t,
		fmt.Sprintf(`{"type":"fragment","conversation_id":"%s","delta":"Hel"}`, id),
		string(fragment))

	done, err := json.Marshal(StreamEvent{Type: "done", ConversationId: id, Content: "Hello."})
	require.NoError(t, err)
	assert.JSONEq(t,
		fmt.Sprintf(`{"type":"done","conversation_id":"%s","content":"Hello."}`, id),
		string(done))

	stopped, err := json.Marshal(StreamEvent{Type: "stopped", ConversationId: id, Content: "Hel"})
	require.NoError(t, err)
	assert.JSONEq(t,
		fmt.Sprintf(`{"type":"stopped","conversation_id":"%s","content":"Hel"}`, id),
		string(stopped))
}

func newTestClient(h *Hub, scope entity.ScopeKey, buffer int) *Client {
	return &Client{Hub: h, Scope: scope, Send: make(chan []byte, buffer)}
}

func registerAndWait(t *testing.T, h *Hub, c *Client) {
	t.Helper()
	h.register <- c
	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		for _, registered := range h.clients[c.Scope] {
			if registered == c {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestHubFansOutPerScope(t *testing.T) {
	h := NewHub(nil, logger.NewNopLogger())
	go h.Run()

	alicePhone := newTestClient(h, "alice", 1)
	aliceLaptop := newTestClient(h, "alice", 1)
	bob := newTestClient(h, "bob", 1)
	registerAndWait(t, h, alicePhone)
	registerAndWait(t, h, aliceLaptop)
	registerAndWait(t, h, bob)

	event := StreamEvent{Type: "fragment", ConversationId: uuid.New(), Delta: "hi"}
	h.Send("alice", event)

	want, err := json.Marshal(event)
	require.NoError(t, err)

	for _, c := range []*Client{alicePhone, aliceLaptop} {
		select {
		case got := <-c.Send:
			assert.JSONEq(t, string(want), string(got))
		case <-time.After(time.Second):
			t.Fatal("alice socket never received the event")
		}
	}

	select {
	case got := <-bob.Send:
		t.Fatalf("bob received alice's event: %s", got)
	default:
	}
}

func TestHubDropsSlowClientOnce(t *testing.T) {
	h := NewHub(nil, logger.NewNopLogger())
	go h.Run()

	// Zero buffer and no reader, so every delivery attempt overflows.
	slow := newTestClient(h, "alice", 0)
	registerAndWait(t, h, slow)

	event := StreamEvent{Type: "fragment", ConversationId: uuid.New(), Delta: "x"}
	h.Send("alice", event)

	// The hub unregisters the client and closes its channel exactly once.
	select {
	case _, ok := <-slow.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("slow client channel was never closed")
	}

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		_, ok := h.clients["alice"]
		return !ok
	}, time.Second, 5*time.Millisecond)

	// A later broadcast must not touch the dropped client again.
	h.Send("alice", event)
}
