package bootstrap

import (
	"context"
	"log"

	"github.com/ehcaw/documix/internal/config"
	"github.com/ehcaw/documix/internal/controller"
	"github.com/ehcaw/documix/internal/pkg/logger"
	"github.com/ehcaw/documix/internal/repository/unitofwork"
	"github.com/ehcaw/documix/internal/retriever"
	"github.com/ehcaw/documix/internal/service"
	"github.com/ehcaw/documix/internal/session"
	"github.com/ehcaw/documix/internal/transcript"
	"github.com/ehcaw/documix/internal/websocket"
	"github.com/ehcaw/documix/pkg/embedding"
	"github.com/ehcaw/documix/pkg/llm/factory"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background workers (exposed for main.go to run)
	Persister *session.Persister

	// WebSockets
	WebSocketHub *websocket.Hub

	Coordinator *session.Coordinator
	Logger      logger.ILogger
}

// NewContainer wires the dependency graph. A nil db degrades to the embedded
// transcript store with retrieval and ingestion disabled.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	embeddingProvider := embedding.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaEmbeddingModel,
	)
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.OllamaEmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Storage and retrieval
	var store transcript.Store
	var ret retriever.Retriever = retriever.Disabled{}
	var ingestService service.IIngestService

	if db != nil {
		uowFactory := unitofwork.NewRepositoryFactory(db)
		store = transcript.NewGormStore(uowFactory)
		ret = retriever.NewVectorRetriever(uowFactory, embeddingProvider)
		ingestService = service.NewIngestService(uowFactory, embeddingProvider, sysLogger)
	} else {
		sysLogger.Warn("Bootstrap", "No database configured, using embedded store and ungrounded answers", nil)
		store = transcript.NewMemoryStore()
	}

	// Redis for cross-instance websocket fan-out
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Session engine
	persister := session.NewPersister(store, sysLogger)
	streams := session.NewStreamController(llmProvider)
	coordinator := session.NewCoordinator(
		store,
		ret,
		streams,
		persister,
		sysLogger,
		cfg.Chat.TopK,
		cfg.Chat.HistoryLimit,
	)

	c := &Container{
		ChatController: controller.NewChatController(coordinator, wsHub),
		Persister:      persister,
		WebSocketHub:   wsHub,
		Coordinator:    coordinator,
		Logger:         sysLogger,
	}
	if ingestService != nil {
		c.DocumentController = controller.NewDocumentController(ingestService)
	}
	return c
}
