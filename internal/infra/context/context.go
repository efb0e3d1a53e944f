// Package context carries request-scoped values shared between transport middleware,
// services and logging.
package context

type contextKey string
