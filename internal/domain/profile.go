package domain

const (
	DefaultLanguage = "en"
	DefaultLevel    = "beginner"
	DefaultStyle    = "visual"
)

// Profile holds the learner preferences a lesson is generated for.
type Profile struct {
	Language string `json:"language"`
	Age      int    `json:"age,omitempty"`
	Alias    string `json:"alias,omitempty"`
	Level    string `json:"level"`
	Style    string `json:"style"`
	Topic    string `json:"topic"`
}

func DefaultProfile() Profile {
	return Profile{
		Language: DefaultLanguage,
		Level:    DefaultLevel,
		Style:    DefaultStyle,
	}
}

// WithDefaults fills empty language, level and style with their defaults.
func (p Profile) WithDefaults() Profile {
	if p.Language == "" {
		p.Language = DefaultLanguage
	}
	if p.Level == "" {
		p.Level = DefaultLevel
	}
	if p.Style == "" {
		p.Style = DefaultStyle
	}
	if p.Age < 0 {
		p.Age = 0
	}
	return p
}

// Overlay returns p with every non-zero field of o applied on top.
func (p Profile) Overlay(o Profile) Profile {
	if o.Language != "" {
		p.Language = o.Language
	}
	if o.Age > 0 {
		p.Age = o.Age
	}
	if o.Alias != "" {
		p.Alias = o.Alias
	}
	if o.Level != "" {
		p.Level = o.Level
	}
	if o.Style != "" {
		p.Style = o.Style
	}
	if o.Topic != "" {
		p.Topic = o.Topic
	}
	return p
}
