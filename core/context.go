package core

import (
	"context"
	"time"

	"github.com/huangsam/popilot/schema"
)

// Context keys for run options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	clockKey          contextKey = "clock"
)

// WithSuppressHeader turns off the sprint headline logs, e.g. for the MCP server.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// WithClock replaces the wall clock used to decide which sprint days lie before today.
func WithClock(ctx context.Context, now func() time.Time) context.Context {
	return context.WithValue(ctx, clockKey, now)
}

// nowFrom returns the current time from the context clock or the wall clock.
func nowFrom(ctx context.Context) time.Time {
	if now, ok := ctx.Value(clockKey).(func() time.Time); ok && now != nil {
		return now()
	}
	return time.Now()
}

// todayFrom returns the calendar date of the context clock.
func todayFrom(ctx context.Context) time.Time {
	return schema.DateOf(nowFrom(ctx))
}
