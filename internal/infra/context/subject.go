package context

import (
	"context"
)

const contextKeySubject = contextKey("subject")

// SubjectFromContext extracts the authenticated user ID from the context.
// Returns false if the request was never authenticated.
func SubjectFromContext(ctx context.Context) (int64, bool) {
	subject, ok := ctx.Value(contextKeySubject).(int64)

	return subject, ok
}

// WithSubject returns a copy of ctx carrying the authenticated user ID.
// Only the authorizing middleware should call this.
func WithSubject(ctx context.Context, subject int64) context.Context {
	return context.WithValue(ctx, contextKeySubject, subject)
}
