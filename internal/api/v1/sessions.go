package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/kairos/internal/domain"
)

type ListSessionRecordsInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListSessionRecordsOutput struct {
	Body []*domain.SessionRecord
}

type GetSessionRecordInput struct {
	SessionID uuid.UUID `path:"sessionID" doc:"Tutoring session ID"`
}

type GetSessionRecordOutput struct {
	Body *domain.SessionRecord
}

// RegisterSessionRoutes exposes the analytics of finished sessions.
func RegisterSessionRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-session-records",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List finished tutoring sessions, newest first",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *ListSessionRecordsInput) (*ListSessionRecordsOutput, error) {
		records, err := store.SessionRecords().List(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list session records", err)
		}
		if records == nil {
			records = []*domain.SessionRecord{}
		}

		return &ListSessionRecordsOutput{Body: records}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session-record",
		Method:      http.MethodGet,
		Path:        "/sessions/{sessionID}",
		Summary:     "Get the analytics of a finished session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *GetSessionRecordInput) (*GetSessionRecordOutput, error) {
		rec, err := store.SessionRecords().GetBySession(ctx, input.SessionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("session record not found")
			}
			return nil, huma.Error500InternalServerError("failed to get session record", err)
		}

		return &GetSessionRecordOutput{Body: rec}, nil
	})
}
