package log

import (
	"context"
	"github.com/cottand/kinfer/frontend/types"
	"log/slog"
)

// typeLogValuer wraps a types.Type as a slog.LogValuer to not render
// type strings unless they definitely need to be logged
type typeLogValuer struct{ types.Type }

func (l typeLogValuer) LogValue() slog.Value {
	if l.Type == nil {
		return slog.StringValue("<nil>")
	}
	return slog.StringValue(l.Type.String())
}

// TypesHandler is a slog.Handler capable of lazy-printing types
func TypesHandler(underlying slog.Handler) slog.Handler {
	return &typesHandler{underlying: underlying}
}

type typesHandler struct {
	underlying slog.Handler
}

func (l *typesHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return l.underlying.Enabled(ctx, level)
}

func (l *typesHandler) Handle(ctx context.Context, record slog.Record) error {
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	// for each attr, add it wrapped in typeLogValuer if it is an Any and then a Type
	record.Attrs(func(attr slog.Attr) bool {
		newRecord.AddAttrs(wrapType(attr))
		return true
	})
	return l.underlying.Handle(ctx, newRecord)
}

func (l *typesHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		wrapped[i] = wrapType(attr)
	}
	return TypesHandler(l.underlying.WithAttrs(wrapped))
}

func (l *typesHandler) WithGroup(name string) slog.Handler {
	return TypesHandler(l.underlying.WithGroup(name))
}

func wrapType(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindAny {
		return attr
	}
	if t, ok := attr.Value.Any().(types.Type); ok {
		attr.Value = slog.AnyValue(typeLogValuer{t})
	}
	return attr
}
