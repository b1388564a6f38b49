package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const (
	_defaultAddr            = ":80"
	_defaultReadTimeout     = 5 * time.Second
	_defaultWriteTimeout    = 5 * time.Second
	_defaultShutdownTimeout = 3 * time.Second
	_defaultBodyLimit       = 4 * 1024 * 1024
)

type Server struct {
	ctx context.Context
	eg  *errgroup.Group

	App    *fiber.App
	notify chan error

	name            string
	address         string
	prefork         bool
	bodyLimit       int
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration

	logger logger.Interface
}

func New(name string, l logger.Interface, opts ...Option) *Server {
	group, ctx := errgroup.WithContext(context.Background())
	group.SetLimit(1)

	s := &Server{
		ctx:             ctx,
		eg:              group,
		notify:          make(chan error, 1),
		name:            name,
		address:         _defaultAddr,
		bodyLimit:       _defaultBodyLimit,
		readTimeout:     _defaultReadTimeout,
		writeTimeout:    _defaultWriteTimeout,
		shutdownTimeout: _defaultShutdownTimeout,
		logger:          l,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.App = fiber.New(fiber.Config{
		AppName:      name,
		Prefork:      s.prefork,
		BodyLimit:    s.bodyLimit,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		JSONDecoder:  json.Unmarshal,
		JSONEncoder:  json.Marshal,
		ErrorHandler: s.errorHandler,
	})

	return s
}

// errorHandler keeps fiber's own errors (404 route, 413 body) in the JSON
// shape the handlers use.
func (s *Server) errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	} else {
		s.logger.Error(err, "httpserver - %s - unhandled error on %s %s", s.name, ctx.Method(), ctx.Path())
	}

	return ctx.Status(code).JSON(fiber.Map{"error": errMessage(code, err)})
}

func errMessage(code int, err error) string {
	if code == fiber.StatusInternalServerError {
		return "internal server error"
	}

	return err.Error()
}

func (s *Server) Start() {
	s.eg.Go(func() error {
		err := s.App.Listen(s.address)
		if err != nil {
			s.notify <- err
			close(s.notify)

			return err
		}
		return nil
	})

	s.logger.Info("httpserver - %s - started on %s", s.name, s.address)
}

func (s *Server) Notify() <-chan error {
	return s.notify
}

func (s *Server) Shutdown() error {
	var shutdownErrors []error

	err := s.App.ShutdownWithTimeout(s.shutdownTimeout)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error(err, "httpserver - %s - Shutdown - s.App.ShutdownWithTimeout", s.name)

		shutdownErrors = append(shutdownErrors, err)
	}

	err = s.eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error(err, "httpserver - %s - Shutdown - s.eg.Wait", s.name)

		shutdownErrors = append(shutdownErrors, err)
	}

	s.logger.Info("httpserver - %s - stopped", s.name)

	return errors.Join(shutdownErrors...)
}
