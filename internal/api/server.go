package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/inkwell/internal/audit"
	"github.com/nerrad567/inkwell/internal/auth"
	"github.com/nerrad567/inkwell/internal/blog"
	"github.com/nerrad567/inkwell/internal/infrastructure/config"
	"github.com/nerrad567/inkwell/internal/infrastructure/database"
	"github.com/nerrad567/inkwell/internal/infrastructure/logging"
	"github.com/nerrad567/inkwell/internal/notify"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// BusStatus reports whether the cross-instance relay is connected.
type BusStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	DB      *database.DB
	Hub     *notify.Hub
	Auth    *auth.Service
	Gate    *auth.Gate
	Authors blog.AuthorRepository
	Posts   blog.PostRepository

	// Notifier receives mutation messages. Defaults to Hub; set to a
	// *notify.Relay to fan out across instances.
	Notifier notify.Notifier

	// Optional.
	AuditRepo     audit.Repository
	AuditRecorder *audit.Recorder
	Bus           BusStatus
	Version       string
}

// Server is the HTTP API server for Inkwell.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	db        *database.DB
	hub       *notify.Hub
	notifier  notify.Notifier
	auth      *auth.Service
	gate      *auth.Gate
	authors   blog.AuthorRepository
	posts     blog.PostRepository
	auditRepo audit.Repository
	auditRec  *audit.Recorder
	bus       BusStatus
	version   string
	startTime time.Time

	server    *http.Server
	cancel    context.CancelFunc
	auditDone chan struct{}
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("notification hub is required")
	}
	if deps.Auth == nil || deps.Gate == nil {
		return nil, fmt.Errorf("auth service and gate are required")
	}
	if deps.Authors == nil || deps.Posts == nil {
		return nil, fmt.Errorf("author and post repositories are required")
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = deps.Hub
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		db:        deps.DB,
		hub:       deps.Hub,
		notifier:  notifier,
		auth:      deps.Auth,
		gate:      deps.Gate,
		authors:   deps.Authors,
		posts:     deps.Posts,
		auditRepo: deps.AuditRepo,
		auditRec:  deps.AuditRecorder,
		bus:       deps.Bus,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine
// and starts the audit writer. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditRec != nil {
		s.auditDone = make(chan struct{})
		go func() {
			defer close(s.auditDone)
			s.auditRec.Run(srvCtx)
		}()
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// flushes queued audit entries. Hijacked WebSocket connections are not
// tracked by http.Server; the hub closes them.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	if s.auditDone != nil {
		<-s.auditDone
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
