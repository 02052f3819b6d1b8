package middleware

import (
	"context"
)

type contextKey string

const (
	ContextKeyLearner contextKey = "learner"
)

// LearnerFromContext returns the authenticated learner (the token subject).
func LearnerFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyLearner).(string)
	return v, ok && v != ""
}
