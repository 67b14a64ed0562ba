package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/chat"
	"github.com/prajin1910/eval/core/task"
	"github.com/prajin1910/eval/core/user"
	pushsvc "github.com/prajin1910/eval/services/push"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc    *user.Service
		TaskSvc    *task.Service
		ChatSvc    *chat.Service
		Hub        *pushsvc.Hub
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

// set once at server construction; used by the HTTP error handler
var translator ut.Translator

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug
	translator = s.opts.Translator

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = appHTTPErrorHandler
	s.app.Debug = debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	registerUserAPI(v1, s.opts.UserSvc, s.opts.Validate)
	registerTaskAPI(v1, s.opts.TaskSvc, s.opts.Validate)
	registerChatAPI(v1, s.opts.ChatSvc)

	if s.opts.Hub != nil {
		registerWsAPI(s.app, s.opts.Hub)
	}
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
