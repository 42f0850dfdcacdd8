package openai

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

func sseServer(t *testing.T, events []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, ev := range events {
			fmt.Fprintf(w, "data: %s\n\n", ev)
			flusher.Flush()
		}
	}))
}

func TestChatStreamParsesSSE(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"content":"The answer"}}]}`,
		`{"choices":[{"delta":{"content":" is 42."}}]}`,
		`[DONE]`,
	})
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "test-key", "gpt-4o-mini")
	chunks, err := provider.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "q"}})
	require.NoError(t, err)

	var got string
	var done bool
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		got += chunk.Delta
		done = done || chunk.Done
	}
	assert.Equal(t, "The answer is 42.", got)
	assert.True(t, done)
}

func TestChatStreamAbandonedConsumerClosesChannel(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"content":"partial"}}]}`,
		`[DONE]`,
	})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	provider := NewOpenAIProvider(srv.URL, "test-key", "gpt-4o-mini")
	chunks, err := provider.ChatStream(ctx, nil)
	require.NoError(t, err)

	first := <-chunks
	require.Equal(t, "partial", first.Delta)

	cancel()
	time.Sleep(200 * time.Millisecond)

	select {
	case chunk, ok := <-chunks:
		assert.False(t, ok, "expected closed channel, got %+v", chunk)
	case <-time.After(time.Second):
		t.Fatal("stream channel never closed after cancellation")
	}
}
