package services

import "context"

type contextKey string

const (
	movieIDKey   contextKey = "movie_id"
	requestIDKey contextKey = "request_id"
)

// WithMovieID annotates context with the movie identifier an operation is
// acting on.
func WithMovieID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, movieIDKey, id)
}

// MovieIDFromContext extracts the movie identifier if present.
func MovieIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(movieIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
