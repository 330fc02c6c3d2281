// Package server exposes the GraphQL schema over HTTP.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cricwidget/gateway/internal/config"
	"github.com/cricwidget/gateway/internal/metrics"
)

// Path is the single route the GraphQL endpoint is mounted on.
const Path = "/"

const shutdownTimeout = 10 * time.Second

// Server serves a GraphQL schema, and optionally Prometheus metrics on a
// separate listener.
type Server struct {
	cfg     *config.Config
	schema  *graphql.Schema
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New returns a server for schema configured by cfg. logger and m may be
// nil.
func New(cfg *config.Config, schema *graphql.Schema, logger *zap.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, schema: schema, logger: logger, metrics: m}
}

// Handler returns the HTTP handler for the GraphQL route. Middleware runs in
// this order: request id, access log, CORS, body limit, API keys, GraphQL.
func (s *Server) Handler() http.Handler {
	gql := &Handler{Schema: s.schema, Metrics: s.metrics, Logger: s.logger}
	if s.cfg.Playground {
		gql.Playground = playground("Cricket gateway", Path)
	}

	r := mux.NewRouter()
	// Every method reaches the middleware so that rejected requests still get
	// a request id, an access log line and CORS headers.
	r.Handle(Path, gql)
	r.Use(
		withRequestID,
		withAccessLog(s.logger),
		(&cors{allowedOrigins: s.cfg.AllowedOrigins}).handler,
		withBodyLimit(s.cfg.MaxBodyBytes),
		withKeys(s.cfg.Keys),
	)
	return otelhttp.NewHandler(r, "graphql")
}

// MetricsHandler returns the handler of the metrics listener. Without
// metrics every path is answered 404.
func (s *Server) MetricsHandler() http.Handler {
	r := mux.NewRouter()
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

// Run binds the configured addresses and serves until ctx is done. A bind
// failure, such as the port being in use, is returned right away.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.cfg.Addr)
	}

	var metricsLn net.Listener
	if s.cfg.MetricsAddr != "" && s.metrics != nil {
		metricsLn, err = net.Listen("tcp", s.cfg.MetricsAddr)
		if err != nil {
			ln.Close()
			return errors.Wrapf(err, "listening on %s", s.cfg.MetricsAddr)
		}
	}
	return s.Serve(ctx, ln, metricsLn)
}

// Serve serves on already bound listeners. metricsLn may be nil.
func (s *Server) Serve(ctx context.Context, ln, metricsLn net.Listener) error {
	servers := []*http.Server{{Handler: s.Handler()}}
	listeners := []net.Listener{ln}
	if metricsLn != nil {
		servers = append(servers, &http.Server{Handler: s.MetricsHandler()})
		listeners = append(listeners, metricsLn)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range servers {
		srv, l := servers[i], listeners[i]
		g.Go(func() error {
			if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrapf(err, "serving on %s", l.Addr())
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var firstErr error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil && firstErr == nil {
				firstErr = errors.Wrap(err, "shutting down")
			}
		}
		return firstErr
	})

	s.logger.Info("server running", zap.String("url", "http://"+displayAddr(ln.Addr())+Path))
	if metricsLn != nil {
		s.logger.Info("metrics listening", zap.String("url", "http://"+displayAddr(metricsLn.Addr())+"/metrics"))
	}

	err := g.Wait()
	s.logger.Info("server stopped")
	return err
}

// displayAddr renders wildcard listeners as localhost.
func displayAddr(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
