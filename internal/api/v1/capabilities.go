package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/kairos/internal/domain"
)

// ModelInfo describes the configured model provider. Emotion
// classification and tone refinement run on the fast model, everything
// else on the quality model.
type ModelInfo struct {
	Provider  string
	Fast      string
	Quality   string
	Providers []string
}

func (m ModelInfo) modelFor(c domain.Capability) string {
	switch c {
	case domain.CapabilityEmotion, domain.CapabilityTone:
		return m.Fast
	}
	return m.Quality
}

type CapabilityStatus struct {
	Capability   domain.Capability `json:"capability"`
	Provider     string            `json:"provider"`
	Model        string            `json:"model,omitempty"`
	FallbackOnly bool              `json:"fallback_only" doc:"True when no model backs the capability"`
}

type ListCapabilitiesOutput struct {
	Body struct {
		Capabilities []CapabilityStatus `json:"capabilities"`
		Providers    []string           `json:"providers" doc:"Registered model providers"`
	}
}

func RegisterCapabilityRoutes(api huma.API, info ModelInfo) {
	huma.Register(api, huma.Operation{
		OperationID: "list-capabilities",
		Method:      http.MethodGet,
		Path:        "/capabilities",
		Summary:     "List the capabilities and the models serving them",
		Tags:        []string{"Capabilities"},
	}, func(_ context.Context, _ *struct{}) (*ListCapabilitiesOutput, error) {
		out := &ListCapabilitiesOutput{}
		fallbackOnly := info.Provider == "" || info.Provider == "none"
		for _, c := range domain.Capabilities() {
			status := CapabilityStatus{
				Capability:   c,
				Provider:     info.Provider,
				FallbackOnly: fallbackOnly,
			}
			if !fallbackOnly {
				status.Model = info.modelFor(c)
			}
			out.Body.Capabilities = append(out.Body.Capabilities, status)
		}
		out.Body.Providers = append([]string{}, info.Providers...)
		return out, nil
	})
}
