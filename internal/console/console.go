package console

import (
	"context"
	"log/slog"

	"github.com/Azure/cosmos-explorer-sub003/internal/metrics"
)

// Logger is the in-app notification console. Every message goes to slog and,
// when a repository is set, is persisted for the console view.
type Logger struct {
	repo    Repository
	metrics *metrics.Metrics
}

// New creates a console logger. repo and m may be nil.
func New(repo Repository, m *metrics.Metrics) *Logger {
	return &Logger{repo: repo, metrics: m}
}

func (l *Logger) Info(ctx context.Context, msg string) {
	slog.InfoContext(ctx, msg, "console", LevelInfo)
	l.append(ctx, &Entry{Level: LevelInfo, Message: msg})
}

func (l *Logger) Error(ctx context.Context, msg string) {
	slog.ErrorContext(ctx, msg, "console", LevelError)
	l.append(ctx, &Entry{Level: LevelError, Message: msg})
}

// Progress records an in-progress message and returns a func that clears it.
func (l *Logger) Progress(ctx context.Context, msg string) func() {
	slog.InfoContext(ctx, msg, "console", LevelProgress)
	e := &Entry{Level: LevelProgress, Message: msg, InProgress: true}
	if !l.append(ctx, e) {
		return func() {}
	}
	return func() {
		// The caller's context may already be cancelled when clearing.
		if err := l.repo.Clear(context.WithoutCancel(ctx), e.ID); err != nil {
			slog.Warn("console: failed to clear progress entry", "id", e.ID, "error", err)
		}
	}
}

// Recent lists persisted entries. Without a repository it returns an empty page.
func (l *Logger) Recent(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if l.repo == nil {
		filter.normalize()
		return &ListResult{Entries: []Entry{}, Page: filter.Page, Limit: filter.Limit}, nil
	}
	return l.repo.List(ctx, filter)
}

func (l *Logger) append(ctx context.Context, e *Entry) bool {
	l.metrics.RecordConsole(string(e.Level))
	if l.repo == nil {
		return false
	}
	if err := l.repo.Append(ctx, e); err != nil {
		slog.Warn("console: failed to persist entry", "level", e.Level, "error", err)
		return false
	}
	return true
}
