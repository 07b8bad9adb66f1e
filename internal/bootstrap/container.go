package bootstrap

import (
	"context"
	"log"

	"citation-assist-be/internal/config"
	"citation-assist-be/internal/controller"
	"citation-assist-be/internal/handler"
	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/internal/repository/implementation"
	"citation-assist-be/internal/repository/memory"
	"citation-assist-be/internal/repository/unitofwork"
	"citation-assist-be/internal/service"
	"citation-assist-be/internal/websocket"
	"citation-assist-be/pkg/chunker"
	"citation-assist-be/pkg/embedding"
	"citation-assist-be/pkg/index"
	"citation-assist-be/pkg/llm/factory"
	pktNats "citation-assist-be/pkg/nats"
	"citation-assist-be/pkg/reranker"
	"citation-assist-be/pkg/retrieval/pipeline"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	PaperController   controller.IPaperController
	SuggestController controller.ISuggestController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & streaming
	SuggestStreamHandler *handler.SuggestStreamHandler
	WebSocketHub         *websocket.Hub

	// IndexManager is exposed for the startup warm-up and shutdown.
	IndexManager *index.Manager

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
			cfg.Ai.EmbeddingDimension,
			cfg.Ai.EmbeddingBatchSize,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Index Manager
	chunkRepo := implementation.NewChunkRepository(db)
	indexManager := index.NewManager(
		embeddingProvider.Dimension(),
		embeddingProvider.ModelVersion(),
		chunkRepo,
		sysLogger,
	)

	// 5. Sessions
	sessionRepo := memory.NewSessionRepository()

	// 6. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/suggest_stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 7. Services
	chunkOpts := chunker.Options{
		MinWords: cfg.Retrieval.ChunkMinWords,
		MaxWords: cfg.Retrieval.ChunkMaxWords,
	}
	ingestService := service.NewIngestService(
		uowFactory,
		embeddingProvider,
		indexManager,
		natsPub,
		chunkOpts,
		sysLogger,
	)

	publisherService := service.NewPublisherService(cfg.Keys.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IngestTopic,
		ingestService,
		sysLogger,
	)

	rerankStage := reranker.NewStage(
		reranker.NewLLMReranker(llmProvider, cfg.Ai.LLMModel),
		cfg.Retrieval.RerankTimeout,
		sysLogger,
	)

	paperRepo := implementation.NewPaperRepository(db)
	suggestPipeline := pipeline.New(
		embeddingProvider,
		indexManager,
		rerankStage,
		paperRepo,
		cfg.Retrieval.HybridAlpha,
		sysLogger,
	)

	suggestService := service.NewSuggestService(
		suggestPipeline,
		sessionRepo,
		indexManager,
		uowFactory,
		cfg.Retrieval.DefaultK,
		cfg.Retrieval.SuggestBudget,
		sysLogger,
	)

	// 8. Streaming surface
	streamHandler := handler.NewSuggestStreamHandler(suggestService, natsSub, wsHub, indexManager, wsLogger)
	if natsSub != nil {
		go streamHandler.Start()
	}

	return &Container{
		PaperController:      controller.NewPaperController(ingestService, publisherService),
		SuggestController:    controller.NewSuggestController(suggestService),
		ConsumerService:      consumerService,
		SuggestStreamHandler: streamHandler,
		WebSocketHub:         wsHub,
		IndexManager:         indexManager,
		Logger:               sysLogger,
	}
}
