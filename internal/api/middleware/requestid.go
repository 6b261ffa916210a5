package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

type contextKey int

const (
	requestIDKey contextKey = iota
	accountKey
	resourceKey
	identityKey
)

type resourceScope struct {
	databaseID   string
	collectionID string
}

// RequestID is middleware that injects a unique request ID into the context
// and sets it as a response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Account tags every request context with the account the server is bound to.
func Account(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, name)))
		})
	}
}

// WithResource tags ctx with the database and collection a request acts on.
func WithResource(ctx context.Context, databaseID, collectionID string) context.Context {
	return context.WithValue(ctx, resourceKey, resourceScope{databaseID: databaseID, collectionID: collectionID})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetAccount returns the account name set by Account.
func GetAccount(ctx context.Context) string {
	name, _ := ctx.Value(accountKey).(string)
	return name
}

// GetResource returns the ids set by WithResource.
func GetResource(ctx context.Context) (databaseID, collectionID string) {
	s, _ := ctx.Value(resourceKey).(resourceScope)
	return s.databaseID, s.collectionID
}

// LogAttrs returns the request-scoped log attributes present in ctx.
func LogAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, slog.String("requestId", id))
	}
	if name := GetAccount(ctx); name != "" {
		attrs = append(attrs, slog.String("account", name))
	}
	db, coll := GetResource(ctx)
	if db != "" {
		attrs = append(attrs, slog.String("databaseId", db))
	}
	if coll != "" {
		attrs = append(attrs, slog.String("collectionId", coll))
	}
	return attrs
}

// ContextHandler adds LogAttrs of the record's context to every record.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		r.AddAttrs(LogAttrs(ctx)...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
