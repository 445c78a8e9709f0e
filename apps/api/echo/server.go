package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/attendance"
	"github.com/enghaven/portal/core/enrollment"
	"github.com/enghaven/portal/core/quiz"
	"github.com/enghaven/portal/core/user"
	"github.com/enghaven/portal/services/metrics"
)

// maxProofSize is the largest payment proof accepted on /enroll.
const maxProofSize = 5 << 20

type (
	// Pinger reports the health of the document store.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	Options struct {
		Conf          *core.Config
		Logger        core.Logger
		Validator     *core.Validator
		Metrics       *metrics.Metrics
		Store         Pinger
		UserSvc       *user.Service
		EnrollmentSvc *enrollment.Service
		AttendanceSvc *attendance.Service
		QuizSvc       *quiz.Service
	}

	Server struct {
		opts     *Options
		app      *echo.Echo
		sessions *sessionCodec
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(opts *Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		sessions: newSessionCodec(opts.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.INFO)
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Validator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	if s.opts.Metrics != nil {
		s.app.Use(metricsMiddleware(s.opts.Metrics))
	}
	s.app.Use(s.sessions.middleware)

	s.app.GET("/healthz", s.health)
	if s.opts.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}

	registerUserAPI(s.app, s.sessions, authRateLimiter(conf.Server.AuthRateLimit), s.opts)
	registerEnrollmentAPI(s.app, s.opts)
	registerQuizAPI(s.app, s.opts)
	registerAdminAPI(s.app, s.opts)
}

// Start listens on the configured address. Listening errors are sent to Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.opts.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) health(ctx echo.Context) error {
	if err := s.opts.Store.Ping(ctx.Request().Context()); err != nil {
		s.opts.Logger.Error("store ping failed", err)
		return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
