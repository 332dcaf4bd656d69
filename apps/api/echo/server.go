package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/elimuhq/elimu/core"
	"github.com/elimuhq/elimu/core/course"
	"github.com/elimuhq/elimu/core/user"
)

const (
	apiV1           = "/api/v1"
	shutdownTimeout = 5 * time.Second
)

type Options struct {
	Addr           string
	DisableReqLogs bool

	Conf      *core.Config
	Logger    core.Logger
	UserSvc   user.Service
	CourseSvc course.Service
}

type Server interface {
	http.Handler
	Start()
	Stop(ctx context.Context) error
}

type server struct {
	opts     *Options
	app      *echo.Echo
	shutdown chan os.Signal
}

func NewServer(opts *Options) Server {
	srv := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
	}
	srv.setup()
	return srv
}

func (srv *server) setup() {
	srv.app.HideBanner = true
	srv.app.Debug = srv.opts.Conf.Debug
	srv.app.HTTPErrorHandler = appHTTPErrorHandler(srv.opts.Logger, srv.signalShutdown)

	srv.app.Pre(middleware.RemoveTrailingSlash())
	if !srv.opts.DisableReqLogs {
		srv.app.Use(middleware.Logger())
	}
	if !srv.opts.Conf.Debug {
		srv.app.Use(middleware.Recover())
	}
	srv.app.Use(middleware.CORS())

	srv.registerRoutes()
}

func (srv *server) registerRoutes() {
	v1 := srv.app.Group(apiV1)

	v1.GET("/health", func(ctx echo.Context) error {
		return ok(ctx, response{Message: "up and running"})
	})

	sessionMW := sessionMiddleware(srv.opts.Conf)
	instructorMW := roleMiddleware(srv.opts.UserSvc, user.RoleInstructor)

	registerUserAPI(v1, sessionMW, srv.opts.UserSvc, srv.opts.Conf)
	registerCourseAPI(v1, sessionMW, instructorMW, srv.opts.CourseSvc)
}

func (srv *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv.app.ServeHTTP(w, r)
}

// Start runs the server and blocks until an interrupt or a shutdown signal
// from the error handler is received, then shuts down gracefully.
func (srv *server) Start() {
	signal.Notify(srv.shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		srv.opts.Logger.Info("API server listening on " + srv.opts.Addr)
		if err := srv.app.Start(srv.opts.Addr); err != nil && err != http.ErrServerClosed {
			srv.opts.Logger.Fatal("starting server", err)
		}
	}()

	sig := <-srv.shutdown
	srv.opts.Logger.Info("shutting down: " + sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		srv.opts.Logger.Error("graceful shutdown failed", err)
		if err = srv.app.Close(); err != nil {
			srv.opts.Logger.Fatal("forcing server close", err)
		}
	}
}

func (srv *server) Stop(ctx context.Context) error {
	return srv.app.Shutdown(ctx)
}

// signalShutdown lets the error handler bring the server down on
// unrecoverable errors.
func (srv *server) signalShutdown() {
	srv.shutdown <- syscall.SIGTERM
}
