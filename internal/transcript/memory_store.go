package transcript

import (
	"context"
	"sort"
	"time"

	"github.com/ehcaw/documix/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type memoryRecord struct {
	Scope     entity.ScopeKey
	Title     string
	CreatedAt time.Time
	Messages  []entity.Message
}

// MemoryStore is the embedded default implementation, backed by go-cache.
// It keeps records until archived and serves tests and single-node setups
// that run without Postgres.
type MemoryStore struct {
	cache *cache.Cache
}

var _ Store = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

func (s *MemoryStore) Create(ctx context.Context, scope entity.ScopeKey) (uuid.UUID, error) {
	id := uuid.New()
	s.cache.Set(id.String(), &memoryRecord{
		Scope:     scope,
		Title:     DeriveTitle(id, nil),
		CreatedAt: time.Now(),
	}, cache.NoExpiration)
	return id, nil
}

func (s *MemoryStore) Load(ctx context.Context, id uuid.UUID) ([]entity.Message, error) {
	x, found := s.cache.Get(id.String())
	if !found {
		return []entity.Message{}, nil
	}
	record := x.(*memoryRecord)
	messages := make([]entity.Message, len(record.Messages))
	copy(messages, record.Messages)
	return messages, nil
}

func (s *MemoryStore) Save(ctx context.Context, id uuid.UUID, messages []entity.Message) error {
	var scope entity.ScopeKey
	createdAt := deriveCreatedAt(messages)
	if x, found := s.cache.Get(id.String()); found {
		existing := x.(*memoryRecord)
		scope = existing.Scope
		createdAt = existing.CreatedAt
	}

	stored := make([]entity.Message, len(messages))
	copy(stored, messages)

	s.cache.Set(id.String(), &memoryRecord{
		Scope:     scope,
		Title:     DeriveTitle(id, messages),
		CreatedAt: createdAt,
		Messages:  stored,
	}, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, scope entity.ScopeKey) ([]entity.ConversationSummary, error) {
	summaries := make([]entity.ConversationSummary, 0)
	for key, item := range s.cache.Items() {
		record := item.Object.(*memoryRecord)
		if record.Scope != scope {
			continue
		}
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		summaries = append(summaries, entity.ConversationSummary{
			Id:        id,
			Title:     record.Title,
			CreatedAt: record.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *MemoryStore) Archive(ctx context.Context, id uuid.UUID) error {
	s.cache.Delete(id.String())
	return nil
}
