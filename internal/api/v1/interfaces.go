package v1

import (
	"context"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	SessionRecords() domain.SessionRecordRepository
}

// LessonCapabilities is the part of the gateway the lesson routes call.
// *capability.Gateway satisfies this interface, so every route answers even
// when a provider fails.
type LessonCapabilities interface {
	Plan(ctx context.Context, req capability.PathRequest) capability.Outcome[domain.LearningPath]
	Generate(ctx context.Context, req capability.ContentRequest) capability.Outcome[[]domain.ContentUnit]
	Refine(ctx context.Context, req capability.ToneRequest) capability.Outcome[[]string]
}
