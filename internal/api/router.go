package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ecodanforum/backend/internal/api/handlers"
	"github.com/ecodanforum/backend/internal/api/middleware"
	"github.com/ecodanforum/backend/internal/auth"
	"github.com/ecodanforum/backend/internal/cache"
	"github.com/ecodanforum/backend/internal/config"
	"github.com/ecodanforum/backend/internal/errorcodes"
	"github.com/ecodanforum/backend/internal/forum"
	"github.com/ecodanforum/backend/internal/knowledge"
	"github.com/ecodanforum/backend/internal/llm"
	"github.com/ecodanforum/backend/internal/manuals"
	"github.com/ecodanforum/backend/internal/notifications"
	"github.com/ecodanforum/backend/internal/queue"
	"github.com/ecodanforum/backend/internal/storage"
	"github.com/ecodanforum/backend/internal/translate"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	cfg      *config.Config
	forumSvc *forum.Service
	reloader *forum.Reloader
	llmGW    llm.Gateway
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, forumSvc *forum.Service, reloader *forum.Reloader) *Router {
	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		cfg:      cfg,
		forumSvc: forumSvc,
		reloader: reloader,
		llmGW:    llm.NewGateway(cfg.LLM),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	store := storage.NewSupabaseStorage(rt.cfg.Storage.SupabaseURL, rt.cfg.Storage.SupabaseKey)
	redisCache := cache.NewCache(rt.redis)
	queueClient := queue.NewClient(rt.cfg.Redis)
	translator := translate.NewTranslator(rt.llmGW, rt.cfg.LLM.DefaultModel)
	knowledgeSvc := knowledge.NewService(rt.db, rt.llmGW, rt.cfg.LLM.DefaultModel)
	manualSvc := manuals.NewService(rt.db, store, rt.cfg.Storage.ManualsBucket, rt.cfg.Storage.SignedURLTTL)
	errorCodeSvc := errorcodes.NewService(rt.db)
	notifySvc := notifications.NewService(rt.db)

	adminCheck := auth.NewAdminChecker(rt.db, redisCache)
	authMW := auth.NewMiddleware(rt.cfg.Auth.JWTSecret, rt.forumSvc, adminCheck)

	threadH := handlers.NewThreadHandler(rt.forumSvc, rt.reloader, queueClient)
	messageH := handlers.NewMessageHandler(rt.forumSvc, rt.reloader, queueClient)
	translateH := handlers.NewTranslateHandler(translator)
	summarizeH := handlers.NewSummarizeHandler(rt.forumSvc, knowledgeSvc)
	uploadH := handlers.NewUploadHandler(store, rt.cfg.Storage.AttachmentsBucket)
	manualH := handlers.NewManualHandler(manualSvc)
	errorCodeH := handlers.NewErrorCodeHandler(errorCodeSvc)
	notifyH := handlers.NewNotificationHandler(notifySvc)
	authH := handlers.NewAuthHandler()

	// Authenticated surface
	r.Group(func(r chi.Router) {
		r.Use(authMW.Authenticate)

		r.Route("/threads", func(r chi.Router) {
			r.Get("/", threadH.List)
			r.Post("/", threadH.Create)
			r.Patch("/{id}", threadH.UpdateStatus)
		})

		r.Post("/messages", messageH.Create)
		r.Post("/translate", translateH.Translate)
		r.Post("/summarize", summarizeH.Summarize)
		r.Post("/upload", uploadH.Upload)

		r.Get("/error-codes", errorCodeH.Search)

		r.Route("/notifications/settings", func(r chi.Router) {
			r.Get("/", notifyH.GetSettings)
			r.Put("/", notifyH.SaveSettings)
		})

		r.Post("/auth/signout", authH.Signout)
		r.Get("/admin/check", authH.AdminCheck)

		r.Get("/manuals", manualH.List)

		// Admin-only manual management
		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAdmin)
			r.Post("/manuals", manualH.Upload)
			r.Post("/manuals/upload", manualH.Upload)
			r.Delete("/manuals/{id}", manualH.Delete)
		})
	})

	return r
}
