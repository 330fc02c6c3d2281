// Package gateway assembles the GraphQL schema from the cricket, weather and
// news domains.
package gateway

import (
	"context"
	_ "embed"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/trace/noop"
	opentracinggraphql "github.com/graph-gophers/graphql-go/trace/opentracing"
	otelgraphql "github.com/graph-gophers/graphql-go/trace/otel"
	"github.com/graph-gophers/graphql-go/trace/tracer"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/cricwidget/gateway/internal/config"
	"github.com/cricwidget/gateway/internal/cricket"
	"github.com/cricwidget/gateway/internal/logging"
	"github.com/cricwidget/gateway/internal/metrics"
	"github.com/cricwidget/gateway/internal/news"
	"github.com/cricwidget/gateway/internal/upstream"
	"github.com/cricwidget/gateway/internal/weather"
)

const tracerName = "github.com/cricwidget/gateway"

// Schema is the GraphQL type definition document served by the gateway.
//
//go:embed schema.graphql
var Schema string

// Query is the root resolver. Each embedded domain resolver contributes the
// methods for the Query fields it registers.
type Query struct {
	*cricket.MatchResolver
	*weather.WeatherResolver
	*news.NewsResolver
}

// Domains returns the embedded resolvers in registration order.
func (q *Query) Domains() []Domain {
	return []Domain{q.MatchResolver, q.WeatherResolver, q.NewsResolver}
}

type options struct {
	logger         *zap.Logger
	metrics        *metrics.Metrics
	requestID      logging.RequestIDFunc
	maxParallelism int
}

// Option configures NewSchema.
type Option func(*options)

// WithLogger sets the logger for upstream calls and resolver panics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics records upstream calls in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRequestID lets panic reports carry the request identifier.
func WithRequestID(f func(ctx context.Context) string) Option {
	return func(o *options) {
		o.requestID = f
	}
}

// WithMaxParallelism bounds how many fields of one query resolve at once.
func WithMaxParallelism(n int) Option {
	return func(o *options) {
		o.maxParallelism = n
	}
}

// NewQuery builds the upstream clients described by cfg and the domain
// resolvers on top of them.
func NewQuery(cfg *config.Config, opts ...Option) *Query {
	o := newOptions(opts)
	client := func(name, baseURL string) *upstream.Client {
		return upstream.New(name, baseURL,
			upstream.WithTimeout(cfg.UpstreamTimeout),
			upstream.WithLogger(o.logger),
			upstream.WithMetrics(o.metrics),
		)
	}

	wc := weather.NewClient(client(weather.Name, cfg.WeatherURL))
	return &Query{
		MatchResolver:   cricket.NewResolver(cricket.NewClient(client(cricket.Name, cfg.CricketURL)), wc),
		WeatherResolver: weather.NewResolver(wc),
		NewsResolver:    news.NewResolver(news.NewClient(client(news.Name, cfg.NewsURL))),
	}
}

// NewSchema wires cfg into a parsed, executable schema.
func NewSchema(cfg *config.Config, opts ...Option) (*graphql.Schema, error) {
	return Parse(NewQuery(cfg, opts...), cfg.Tracing, opts...)
}

// Parse registers the domains of q, parses Schema against q and checks that
// every Query field is answered by exactly one domain.
func Parse(q *Query, tracing string, opts ...Option) (*graphql.Schema, error) {
	o := newOptions(opts)

	reg, err := Merge(q.Domains()...)
	if err != nil {
		return nil, errors.Wrap(err, "registering resolvers")
	}

	t, err := newTracer(tracing)
	if err != nil {
		return nil, err
	}

	schemaOpts := []graphql.SchemaOpt{
		graphql.UseFieldResolvers(),
		graphql.Tracer(t),
		graphql.Logger(&logging.PanicLogger{Logger: o.logger, RequestID: o.requestID}),
	}
	if o.maxParallelism > 0 {
		schemaOpts = append(schemaOpts, graphql.MaxParallelism(o.maxParallelism))
	}

	s, err := graphql.ParseSchema(Schema, q, schemaOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "parsing schema")
	}
	if err := reg.Check(QueryFields(s)); err != nil {
		return nil, err
	}

	o.logger.Debug("schema ready", zap.Strings("query_fields", reg.Fields()))
	return s, nil
}

// QueryFields lists the fields of the schema's Query type.
func QueryFields(s *graphql.Schema) []string {
	qt := s.Inspect().QueryType()
	if qt == nil {
		return nil
	}
	fields := qt.Fields(&struct{ IncludeDeprecated bool }{IncludeDeprecated: true})
	if fields == nil {
		return nil
	}
	out := make([]string, 0, len(*fields))
	for _, f := range *fields {
		out = append(out, f.Name())
	}
	return out
}

func newTracer(name string) (tracer.Tracer, error) {
	switch name {
	case config.TracingOTel, "":
		return &otelgraphql.Tracer{Tracer: otel.Tracer(tracerName)}, nil
	case config.TracingOpenTracing:
		return opentracinggraphql.Tracer{}, nil
	case config.TracingNone:
		return noop.Tracer{}, nil
	default:
		return nil, errors.Errorf("unknown tracer %q", name)
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
