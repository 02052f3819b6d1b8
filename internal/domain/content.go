package domain

import "strings"

type ContentType string

const (
	ContentText        ContentType = "text"
	ContentImagePrompt ContentType = "image_prompt"
	ContentTutorAnswer ContentType = "tutor_answer"
	ContentVideoURL    ContentType = "video_url"
)

// ContentUnit is one deliverable item of lesson output. Only the fields of
// its variant are populated:
//
//	text          Content
//	image_prompt  Content, ImageURL, AltText
//	tutor_answer  Content
//	video_url     Content, Caption
type ContentUnit struct {
	Type     ContentType `json:"type"`
	Content  string      `json:"content"`
	ImageURL string      `json:"image_url,omitempty"`
	AltText  string      `json:"alt_text,omitempty"`
	Caption  string      `json:"caption,omitempty"`
}

func TextUnit(content string) ContentUnit {
	return ContentUnit{Type: ContentText, Content: content}
}

func TutorAnswerUnit(content string) ContentUnit {
	return ContentUnit{Type: ContentTutorAnswer, Content: content}
}

func ImagePromptUnit(content, imageURL, altText string) ContentUnit {
	return ContentUnit{Type: ContentImagePrompt, Content: content, ImageURL: imageURL, AltText: altText}
}

func VideoUnit(content, caption string) ContentUnit {
	return ContentUnit{Type: ContentVideoURL, Content: content, Caption: caption}
}

// Valid reports whether the unit is a known variant with non-empty content.
func (u ContentUnit) Valid() bool {
	if strings.TrimSpace(u.Content) == "" {
		return false
	}
	switch u.Type {
	case ContentText, ContentImagePrompt, ContentTutorAnswer, ContentVideoURL:
		return true
	}
	return false
}

// Normalize drops the fields that do not belong to the unit's variant.
func (u ContentUnit) Normalize() ContentUnit {
	switch u.Type {
	case ContentText, ContentTutorAnswer:
		return ContentUnit{Type: u.Type, Content: u.Content}
	case ContentImagePrompt:
		return ContentUnit{Type: u.Type, Content: u.Content, ImageURL: u.ImageURL, AltText: u.AltText}
	case ContentVideoURL:
		return ContentUnit{Type: u.Type, Content: u.Content, Caption: u.Caption}
	}
	return u
}

// WordCount counts whitespace-separated words in the unit's content.
func (u ContentUnit) WordCount() int {
	return len(strings.Fields(u.Content))
}

// Turn is one prior exchange in a free-text conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
