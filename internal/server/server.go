package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "docchat/docs"
	"docchat/internal/ai"
	"docchat/internal/config"
	"docchat/internal/handler"
	documentHandler "docchat/internal/handler/document"
	"docchat/internal/pkg/cache"
	"docchat/internal/pkg/jwt"
	"docchat/internal/pkg/kvstore"
	"docchat/internal/pkg/metrics"
	"docchat/internal/pkg/mongodb"
	"docchat/internal/pkg/queue"
	"docchat/internal/pkg/segment"
	"docchat/internal/pkg/storage"
	"docchat/internal/pkg/storagefactory"
	"docchat/internal/pkg/vector"
	"docchat/internal/repository"
	docRepo "docchat/internal/repository/document"
	historyRepo "docchat/internal/repository/history"
	"docchat/internal/repository/memory"
	qaRepo "docchat/internal/repository/qa"
	"docchat/internal/server/middleware"
	"docchat/internal/service"
)

const (
	roleKeyPrefix   = "docchat:roles:"
	shutdownTimeout = 10 * time.Second
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	mongo  *mongodb.Client
	redis  *cache.RedisCache
	queue  queue.Queue
	ai     *ai.Client

	storage storage.Storage

	chatSvc         *service.ChatService
	conversationSvc *service.ConversationService
	roleSvc         *service.RoleService
	historySvc      *service.HistoryService
	documentSvc     *service.DocumentService
	qaSvc           *service.QAService
}

// BuildInfo 构建信息，由 cmd 注入
var BuildInfo = handler.BuildInfo{Name: "docchat", Version: "dev"}

// New 创建服务器实例
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.Document.MaxFileSize + 1<<20

	srv := &Server{cfg: cfg, engine: engine}

	// 初始化 MongoDB (可选)
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			srv.mongo = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			if err := mongodb.EnsureIndexes(ctx, client.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	// 初始化 Redis (可选)
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			srv.redis = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	if err := srv.initServices(ctx); err != nil {
		srv.closeDeps()
		return nil, err
	}

	srv.setupRoutes()
	return srv, nil
}

// initServices 按可用的依赖组装服务
// MongoDB 不可用时记录与文档保存在内存中，对话管理接口不可用
func (s *Server) initServices(ctx context.Context) error {
	aiClient, err := ai.NewClient(ctx, s.cfg)
	if err != nil {
		return err
	}
	s.ai = aiClient

	store, err := storagefactory.NewStorage(ctx, &s.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	s.storage = store

	s.queue, err = newQueue(&s.cfg.Queue)
	if err != nil {
		return err
	}

	var (
		histories service.HistoryRepository
		documents service.DocumentRepository
		feedback  service.FeedbackRepository
		vectors   vector.Store
		convRepo  service.ConversationRepository
	)
	if s.mongo != nil {
		db := s.mongo.Database()
		histories = historyRepo.NewHistoryRepo(db)
		documents = docRepo.NewDocumentRepo(db)
		feedback = qaRepo.NewFeedbackRepo(db)
		vectors = docRepo.NewChunkRepo(db)
		convRepo = repository.NewConversationRepo(db)
	} else {
		log.Warn().Msg("MongoDB not configured, history and documents are kept in memory, conversation endpoints disabled")
		histories = memory.NewHistoryRepo()
		documents = memory.NewDocumentRepo()
		feedback = memory.NewFeedbackRepo()
		vectors = vector.NewMemoryStore()
	}

	var roleStore kvstore.Store = kvstore.NewMemoryStore()
	var statusCache service.StatusCache
	if s.redis != nil {
		roleStore = kvstore.NewRedisStore(s.redis, roleKeyPrefix)
		statusCache = s.redis
	}

	defaults := service.DefaultParams(&s.cfg.AI)
	s.roleSvc = service.NewRoleService(roleStore, defaults)
	s.historySvc = service.NewHistoryService(histories)
	s.chatSvc = service.NewChatService(aiClient.ChatChain(), s.roleSvc, s.historySvc, convRepo, defaults)
	if convRepo != nil {
		s.conversationSvc = service.NewConversationService(convRepo)
	}

	s.documentSvc = service.NewDocumentService(documents, vectors, store, aiClient.Embedder(), s.queue, statusCache, s.cfg.Document)
	if err := s.documentSvc.Start(); err != nil {
		return fmt.Errorf("failed to subscribe document jobs: %w", err)
	}

	s.qaSvc = service.NewQAService(aiClient.QAChain(), aiClient.Embedder(), vectors, feedback, segment.Default(), s.cfg.Document.ScoreThreshold)
	return nil
}

func newQueue(cfg *config.QueueConfig) (queue.Queue, error) {
	switch cfg.Type {
	case "nats":
		q, err := queue.NewNATSQueue(&cfg.NATS)
		if err != nil {
			return nil, err
		}
		log.Info().Str("url", cfg.NATS.URL).Bool("embedded", cfg.NATS.URL == "" || cfg.NATS.Embedded).Msg("using NATS queue")
		return q, nil
	default:
		log.Info().Int("workers", cfg.Workers).Msg("using in-memory queue")
		return queue.NewMemoryQueue(cfg.Workers), nil
	}
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler(BuildInfo, s.dependencies()...)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)
	s.engine.GET("/version", healthHandler.Version)

	if s.cfg.Metrics.Enabled {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.engine.GET(path, gin.WrapH(metrics.Handler()))
	}

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地存储的预签名下载
	files, _ := s.storage.(documentHandler.SignedStorage)
	docHdl := documentHandler.NewHandler(s.documentSvc, files)
	s.engine.GET("/files/*key", docHdl.DownloadFile)

	v1 := s.engine.Group("/api/v1")
	if s.cfg.Auth.Enabled {
		v1.Use(middleware.Auth(jwt.NewJWT(s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenExpiry)))
	} else {
		v1.Use(middleware.Identity())
	}
	{
		// 对话
		chatHdl := handler.NewChatHandler(s.chatSvc)
		v1.POST("/chat", chatHdl.Chat)
		v1.POST("/chat/stream", chatHdl.ChatStream)

		convHdl := handler.NewConversationHandler(s.conversationSvc)
		v1.POST("/conversations", convHdl.Create)
		v1.GET("/conversations", convHdl.List)
		v1.GET("/conversations/:id", convHdl.Get)
		v1.DELETE("/conversations/:id", convHdl.Delete)

		// 角色
		roleHdl := handler.NewRoleHandler(s.roleSvc)
		v1.GET("/roles", roleHdl.List)
		v1.GET("/roles/default", roleHdl.GetDefault)
		v1.GET("/roles/:id", roleHdl.Get)
		v1.POST("/roles", roleHdl.Create)
		v1.PUT("/roles/:id", roleHdl.Update)
		v1.DELETE("/roles/:id", roleHdl.Delete)
		v1.POST("/roles/:id/default", roleHdl.SetDefault)

		// 历史
		historyHdl := handler.NewHistoryHandler(s.historySvc)
		v1.GET("/history", historyHdl.List)
		v1.PUT("/history/:id/evaluation", historyHdl.UpdateEvaluation)
		v1.DELETE("/history", historyHdl.Clear)

		// 文档
		docs := v1.Group("/documents")
		{
			docs.POST("/upload", docHdl.Upload)
			docs.GET("", docHdl.List)
			docs.GET("/:document_id", docHdl.Get)
			docs.GET("/:document_id/status", docHdl.Status)
			docs.GET("/:document_id/stats", docHdl.Stats)
			docs.GET("/:document_id/download-url", docHdl.GetDownloadURL)
			docs.DELETE("/:document_id", docHdl.Delete)
		}

		// 问答
		qaHdl := handler.NewQAHandler(s.qaSvc)
		v1.POST("/qa/query", qaHdl.Query)
		v1.POST("/qa/search", qaHdl.Search)
		v1.GET("/qa/suggestions", qaHdl.Suggestions)
		v1.POST("/qa/feedback", qaHdl.Feedback)

		statsHdl := handler.NewStatsHandler(s.documentSvc, s.historySvc, s.roleSvc)
		v1.GET("/stats", statsHdl.Stats)
	}
}

// dependencies 健康检查依赖，未启用的依赖 Ping 为空
func (s *Server) dependencies() []handler.Dependency {
	deps := []handler.Dependency{
		{Name: "mongo"},
		{Name: "redis"},
		{Name: "llm"},
		{Name: "embedding", Ping: s.ai.PingEmbedding},
		{Name: "queue", Required: true, Ping: s.pingQueue},
	}
	// mock 模型视为未启用
	if s.ai.Provider() != "mock" {
		deps[2].Ping = s.ai.PingChat
	}
	if s.mongo != nil {
		deps[0].Required = true
		deps[0].Ping = s.mongo.Ping
	}
	if s.redis != nil {
		deps[1].Ping = s.redis.Ping
	}
	return deps
}

func (s *Server) pingQueue(ctx context.Context) error {
	if p, ok := s.queue.(interface{ Ping() error }); ok {
		return p.Ping()
	}
	return nil
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	// write_timeout 默认 0，非零值会截断长时间的流式响应
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().Str("addr", addr).Str("provider", s.ai.Provider()).Msg("server started")

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeDeps()
		return err
	case err := <-errCh:
		s.closeDeps()
		return err
	}
}

// closeDeps 先停止队列消费，再关闭连接
func (s *Server) closeDeps() {
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close queue")
		}
	}
	if s.ai != nil {
		if err := s.ai.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close AI client")
		}
	}
	if s.mongo != nil {
		if err := s.mongo.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
