package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ehcaw/documix/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
}

func TestChatStreamDeliversFragments(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"role":"assistant","content":"Hello"},"done":false}`,
		`{"message":{"role":"assistant","content":" world"},"done":false}`,
		`{"done":true}`,
	})
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	chunks, err := provider.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	var got string
	var done bool
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		got += chunk.Delta
		done = done || chunk.Done
	}
	assert.Equal(t, "Hello world", got)
	assert.True(t, done)
}

func TestChatStreamOpenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	_, err := provider.ChatStream(context.Background(), nil)
	assert.ErrorIs(t, err, llm.ErrProviderUnavailable)
}

func TestChatStreamAbandonedConsumerClosesChannel(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"role":"assistant","content":"first"},"done":false}`,
		`{"done":true}`,
	})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	provider := NewOllamaProvider(srv.URL, "llama3")
	chunks, err := provider.ChatStream(ctx, nil)
	require.NoError(t, err)

	first := <-chunks
	require.Equal(t, "first", first.Delta)

	// Walk away mid-stream. The producer must not block on the terminal
	// send; the channel has to close instead.
	cancel()
	time.Sleep(200 * time.Millisecond)

	select {
	case chunk, ok := <-chunks:
		assert.False(t, ok, "expected closed channel, got %+v", chunk)
	case <-time.After(time.Second):
		t.Fatal("stream channel never closed after cancellation")
	}
}
