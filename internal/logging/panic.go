package logging

import (
	"context"
	"runtime"

	"github.com/graph-gophers/graphql-go/log"
	"go.uber.org/zap"
)

// RequestIDFunc extracts a request identifier from a context, if any.
type RequestIDFunc func(ctx context.Context) string

// PanicLogger reports panics recovered by the GraphQL engine during query
// execution. It is settable via graphql.Logger.
type PanicLogger struct {
	Logger    *zap.Logger
	RequestID RequestIDFunc
}

var _ log.Logger = (*PanicLogger)(nil)

// LogPanic logs the recovered value together with the goroutine stack.
func (l *PanicLogger) LogPanic(ctx context.Context, value interface{}) {
	const size = 64 << 10
	buf := make([]byte, size)
	buf = buf[:runtime.Stack(buf, false)]

	fields := []zap.Field{
		zap.Any("panic", value),
		zap.ByteString("stack", buf),
	}
	if l.RequestID != nil {
		if id := l.RequestID(ctx); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
	}
	l.Logger.Error("graphql: panic occurred", fields...)
}
