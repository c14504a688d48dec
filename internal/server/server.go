package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nexus-dash/apiserver/config"
	"github.com/nexus-dash/apiserver/internal/activity"
	"github.com/nexus-dash/apiserver/internal/db"
	"github.com/nexus-dash/apiserver/internal/directory"
	"github.com/nexus-dash/apiserver/internal/handlers"
	"github.com/nexus-dash/apiserver/internal/logging"
	"github.com/nexus-dash/apiserver/internal/mq"
	"github.com/nexus-dash/apiserver/internal/services"
	"github.com/nexus-dash/apiserver/internal/storage"
	"github.com/nexus-dash/apiserver/internal/store"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	logger     *zap.Logger
	stop       context.CancelFunc
	consumer   chan struct{}
}

// Services are the use-cases the router exposes.
type Services struct {
	Accounts  *services.AccountService
	Directory *services.DirectoryService
	Settings  *services.SettingsService
	Profiles  *services.ProfileService
	Insights  *services.InsightsService
}

// RouterConfig carries what NewRouter needs besides the services.
type RouterConfig struct {
	JWTSecret string
	SignInURL string
	Logger    *zap.Logger
}

// New constructs a Server with its backing stores and defaults.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	source, err := directory.NewHTTPSource(cfg.Directory.SourceURL, cfg.Directory.Timeout)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open mq: %w", err)
	}

	accountRepo := store.NewAccountRepository(dbConn)
	profileRepo := store.NewProfileRepository(dbConn)
	activityRepo := store.NewActivityRepository(dbConn)

	events := activity.NewPublisher(queue, cfg.ActivityChannel, logger)

	seed := cfg.Directory.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	svcs := Services{
		Accounts:  services.NewAccountService(accountRepo, events),
		Directory: services.NewDirectoryService(source, directory.NewNormalizer(directory.NewRandomSynthesizer(seed)), objects, events, logger),
		Settings:  services.NewSettingsService(events),
		Profiles:  services.NewProfileService(profileRepo, activityRepo, objects, events),
		Insights:  services.NewInsightsService(),
	}

	router := NewRouter(svcs, RouterConfig{
		JWTSecret: jwtSecret,
		SignInURL: cfg.SignInURL,
		Logger:    logger,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s := &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		logger:     logger,
	}

	// Without a broker nobody else can drain the activity channel.
	if queue.InProcess() {
		consumeCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
		s.stop = stop
		s.consumer = make(chan struct{})
		go func() {
			defer close(s.consumer)
			err := activity.Consume(consumeCtx, queue, cfg.ActivityChannel, activityRepo, logger)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mq.ErrClosed) {
				logger.Error("activity_consumer_stopped", zap.Error(err))
			}
		}()
	}

	return s, nil
}

// NewRouter builds the route tree. Unknown paths redirect to the landing
// page.
func NewRouter(svcs Services, cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authMiddleware := handlers.RequireAuth(cfg.JWTSecret, cfg.SignInURL)
	insights := handlers.NewInsightsHandler(svcs.Insights, svcs.Accounts)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.AccessLog(logger),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/", insights.Landing)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, svcs.Accounts, svcs.Settings, cfg.JWTSecret, authMiddleware)
	})
	router.With(authMiddleware).Get("/dashboard", insights.Dashboard)
	router.With(authMiddleware).Get("/analytics", insights.Analytics)
	router.Route("/users", func(r chi.Router) {
		handlers.DirectoryRouter(r, svcs.Directory, svcs.Accounts, authMiddleware)
	})
	router.Route("/settings", func(r chi.Router) {
		handlers.SettingsRouter(r, svcs.Settings, svcs.Accounts, authMiddleware)
	})
	router.Route("/profile", func(r chi.Router) {
		handlers.ProfileRouter(r, svcs.Profiles, svcs.Accounts, authMiddleware)
	})
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server_listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then stops the activity consumer and
// releases the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	if s.stop != nil {
		s.stop()
		<-s.consumer
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
