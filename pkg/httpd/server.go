// Package httpd exposes the contact service over HTTP. It carries no store
// logic of its own: handlers decode JSON, fan requests into the service layer
// and map the store's error taxonomy onto status codes.
package httpd

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ServerOption overrides a default option
type ServerOption func(*options)

type options struct {
	addr            string
	readTimeout     time.Duration
	shutdownTimeout time.Duration
}

// Addr overrides the default listen address ":8080"
func Addr(a string) ServerOption {
	return func(opts *options) {
		opts.addr = a
	}
}

// ReadTimeout overrides the default read timeout to the duration passed in
func ReadTimeout(t time.Duration) ServerOption {
	return func(opts *options) {
		opts.readTimeout = t
	}
}

// ShutdownTimeout overrides the default value for how long the server waits
// for in-flight requests to finish before Close returns.
func ShutdownTimeout(t time.Duration) ServerOption {
	return func(opts *options) {
		opts.shutdownTimeout = t
	}
}

const (
	defaultReadTimeout     = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Server is an http server that receives contact requests and interacts with
// the service layer.
type Server struct {
	log             *logrus.Logger
	addr            string
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewServer returns a configured Server instance ready to start serving.
func NewServer(log *logrus.Logger, h *Handler, opts ...ServerOption) (*Server, error) {
	cfg := &options{
		addr:            ":8080",
		readTimeout:     defaultReadTimeout,
		shutdownTimeout: defaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Server{
		log:  log,
		addr: cfg.addr,
		srv: &http.Server{
			Handler:     h,
			ReadTimeout: cfg.readTimeout,
		},
		shutdownTimeout: cfg.shutdownTimeout,
	}, nil
}

// Serve starts the server and blocks until Close is called or the listener
// fails.
func (s *Server) Serve() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "could not listen on %s", s.addr)
	}

	s.log.Infof("accepting connections on %s", s.addr)

	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}

	s.log.Info("server exited")

	return nil
}

// Close triggers a graceful shutdown, waiting up to the shutdown timeout for
// in-flight requests to finish.
func (s *Server) Close() error {
	s.log.Info("closing")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "could not shut down cleanly")
	}

	return nil
}
