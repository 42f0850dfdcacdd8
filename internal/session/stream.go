package session

import (
	"context"
	"strings"
	"time"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/pkg/llm"

	"github.com/google/uuid"
)

// FragmentSink receives each incremental answer fragment as it arrives.
// Implementations must not block indefinitely.
type FragmentSink func(delta string)

// StreamController drives one generation stream and finalizes its output.
type StreamController struct {
	provider llm.LLMProvider
	options  []llm.Option
}

func NewStreamController(provider llm.LLMProvider, options ...llm.Option) *StreamController {
	return &StreamController{
		provider: provider,
		options:  options,
	}
}

// Run streams a completion for history, forwarding fragments to sink. It
// returns the finalized assistant message built from every fragment received
// before the stream ended.
//
// Opening failure surfaces an ErrProviderUnavailable-wrapped error and no
// message. A mid-stream failure or a cancelled ctx is not an error here: the
// fragments accumulated so far are finalized into a partial message, with
// interrupted set true.
func (s *StreamController) Run(ctx context.Context, history []llm.Message, sink FragmentSink) (entity.Message, bool, error) {
	chunks, err := s.provider.ChatStream(ctx, history, s.options...)
	if err != nil {
		return entity.Message{}, false, err
	}

	var sb strings.Builder
	interrupted := false

consume:
	for {
		select {
		case <-ctx.Done():
			interrupted = true
			break consume
		case chunk, ok := <-chunks:
			if !ok {
				break consume
			}
			if chunk.Err != nil {
				interrupted = true
				break consume
			}
			if chunk.Delta != "" {
				sb.WriteString(chunk.Delta)
				if sink != nil {
					sink(chunk.Delta)
				}
			}
			if chunk.Done {
				break consume
			}
		}
	}

	if ctx.Err() != nil {
		interrupted = true
	}

	// Opening succeeded but the stream died before the first fragment.
	if interrupted && sb.Len() == 0 && ctx.Err() == nil {
		return entity.Message{}, false, llm.ErrProviderUnavailable
	}

	msg := entity.Message{
		Id:        uuid.New(),
		Role:      entity.MessageRoleAssistant,
		Content:   sb.String(),
		CreatedAt: time.Now(),
	}
	return msg, interrupted, nil
}
