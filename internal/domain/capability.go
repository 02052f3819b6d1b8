package domain

// Capability names a model-backed unit of functionality.
type Capability string

const (
	CapabilityEmotion  Capability = "emotion_classifier"
	CapabilityContent  Capability = "content_generator"
	CapabilityPath     Capability = "path_planner"
	CapabilityAssessor Capability = "assessor"
	CapabilityTone     Capability = "tone_refiner"
)

// Capabilities lists every capability in a stable order.
func Capabilities() []Capability {
	return []Capability{
		CapabilityEmotion,
		CapabilityContent,
		CapabilityPath,
		CapabilityAssessor,
		CapabilityTone,
	}
}
