package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/domain"
)

// DefaultContinueTopics is how many topics a continued lesson gets when the
// request does not say.
const DefaultContinueTopics = 6

// StudentContext carries optional learner preferences.
type StudentContext struct {
	Language string `json:"language,omitempty" doc:"Language code, e.g. en or es"`
	Age      int    `json:"age,omitempty" minimum:"0" maximum:"120" doc:"Learner age"`
	Alias    string `json:"alias,omitempty" doc:"Name to address the learner by"`
	Level    string `json:"level,omitempty" doc:"beginner, intermediate or advanced"`
	Style    string `json:"style,omitempty" doc:"Preferred learning style"`
	Topic    string `json:"topic,omitempty" doc:"Topic being studied"`
}

func (c StudentContext) profile() domain.Profile {
	return domain.Profile{
		Language: c.Language,
		Age:      c.Age,
		Alias:    c.Alias,
		Level:    c.Level,
		Style:    c.Style,
		Topic:    c.Topic,
	}.WithDefaults()
}

type ContentBlock struct {
	Type     string `json:"type" enum:"text,image_prompt,tutor_answer,video_url" doc:"Content unit type"`
	Content  string `json:"content" minLength:"1" doc:"Unit content"`
	ImageURL string `json:"image_url,omitempty"`
	AltText  string `json:"alt_text,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

func (b ContentBlock) unit() domain.ContentUnit {
	return domain.ContentUnit{
		Type:     domain.ContentType(b.Type),
		Content:  b.Content,
		ImageURL: b.ImageURL,
		AltText:  b.AltText,
		Caption:  b.Caption,
	}.Normalize()
}

// Lesson is a generated lesson. Fallback is true when any part of it came
// from a fallback rather than a model.
type Lesson struct {
	LessonID      string               `json:"lesson_id"`
	Title         string               `json:"title"`
	Topic         string               `json:"topic"`
	Level         string               `json:"level"`
	LearningStyle string               `json:"learning_style"`
	Language      string               `json:"language"`
	Path          domain.LearningPath  `json:"path"`
	ContentBlocks []domain.ContentUnit `json:"content_blocks"`
	Fallback      bool                 `json:"fallback"`
}

type GenerateLessonInput struct {
	Body struct {
		Topic          string   `json:"topic" minLength:"1" maxLength:"200" doc:"Lesson topic"`
		Level          string   `json:"level,omitempty" enum:"beginner,intermediate,advanced" doc:"Difficulty level"`
		LearningStyle  string   `json:"learningStyle,omitempty" enum:"visual,textual,interactive,mixed" doc:"Learning style"`
		Age            int      `json:"age,omitempty" minimum:"0" maximum:"120" doc:"Learner age"`
		Alias          string   `json:"alias,omitempty" doc:"Learner name or alias"`
		Language       string   `json:"language,omitempty" doc:"Language code"`
		ExcludedTopics []string `json:"excluded_topics,omitempty" doc:"Subtopics to avoid"`
	}
}

type GenerateLessonOutput struct {
	Body *Lesson
}

type AdaptContentInput struct {
	Body struct {
		Block          ContentBlock   `json:"block" doc:"Content block to adapt"`
		Emotion        string         `json:"emotion" minLength:"1" doc:"Observed learner emotion"`
		StudentContext StudentContext `json:"student_context,omitempty"`
	}
}

type AdaptContentOutput struct {
	Body struct {
		Content  []domain.ContentUnit `json:"content"`
		Strategy domain.Strategy      `json:"strategy"`
		Fallback bool                 `json:"fallback"`
	}
}

// LessonOutline is the part of a lesson needed to continue it.
type LessonOutline struct {
	Topic    string   `json:"topic" minLength:"1" doc:"Lesson topic"`
	Title    string   `json:"title,omitempty" doc:"Lesson title"`
	Level    string   `json:"level,omitempty" doc:"Difficulty level"`
	Language string   `json:"language,omitempty" doc:"Language code"`
	Covered  []string `json:"covered,omitempty" doc:"Topics already covered"`
}

type ContinueLessonInput struct {
	Body struct {
		Lesson    LessonOutline `json:"lesson" doc:"Lesson being continued"`
		NumTopics int           `json:"num_topics,omitempty" minimum:"1" maximum:"10" default:"6" doc:"Number of new topics"`
	}
}

type ContinueLessonOutput struct {
	Body struct {
		Topics   []domain.PathNode `json:"topics"`
		Fallback bool              `json:"fallback"`
	}
}

type AdaptMessageInput struct {
	Body struct {
		Message        string         `json:"message" minLength:"1" doc:"Message to adapt"`
		Emotion        string         `json:"emotion" minLength:"1" doc:"Observed learner emotion"`
		StudentContext StudentContext `json:"student_context,omitempty"`
	}
}

type AdaptMessageOutput struct {
	Body struct {
		Message  string `json:"message"`
		Fallback bool   `json:"fallback"`
	}
}

func parseEmotion(s string) (domain.Emotion, error) {
	e, ok := domain.ParseEmotion(s)
	if !ok {
		return "", huma.Error400BadRequest("unknown emotion: " + s)
	}
	return e, nil
}

func RegisterLessonRoutes(api huma.API, caps LessonCapabilities) {
	huma.Register(api, huma.Operation{
		OperationID:   "generate-lesson",
		Method:        http.MethodPost,
		Path:          "/lessons/generate",
		Summary:       "Generate a personalized lesson",
		Tags:          []string{"Lessons"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *GenerateLessonInput) (*GenerateLessonOutput, error) {
		topic := strings.TrimSpace(input.Body.Topic)
		if topic == "" {
			return nil, huma.Error400BadRequest("topic is required")
		}

		profile := domain.Profile{
			Language: input.Body.Language,
			Age:      input.Body.Age,
			Alias:    input.Body.Alias,
			Level:    input.Body.Level,
			Style:    input.Body.LearningStyle,
			Topic:    topic,
		}.WithDefaults()

		path := caps.Plan(ctx, capability.PathRequest{Profile: profile})
		content := caps.Generate(ctx, capability.ContentRequest{
			Profile: profile,
			Exclude: input.Body.ExcludedTopics,
		})

		lesson := &Lesson{
			LessonID:      uuid.NewString(),
			Title:         path.Value.Topic,
			Topic:         topic,
			Level:         profile.Level,
			LearningStyle: profile.Style,
			Language:      profile.Language,
			Path:          path.Value,
			ContentBlocks: content.Value,
			Fallback:      path.FellBack || content.FellBack,
		}
		if len(path.Value.Nodes) > 0 {
			lesson.Title = path.Value.Nodes[0].Title
		}

		log.Info().
			Str("lesson_id", lesson.LessonID).
			Str("topic", topic).
			Bool("fallback", lesson.Fallback).
			Msg("lesson generated")
		return &GenerateLessonOutput{Body: lesson}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "adapt-content",
		Method:      http.MethodPost,
		Path:        "/lessons/adapt",
		Summary:     "Rewrite a content block for the learner's emotion",
		Tags:        []string{"Lessons"},
	}, func(ctx context.Context, input *AdaptContentInput) (*AdaptContentOutput, error) {
		emotion, err := parseEmotion(input.Body.Emotion)
		if err != nil {
			return nil, err
		}
		block := input.Body.Block.unit()
		if !block.Valid() {
			return nil, huma.Error400BadRequest("block content is required")
		}

		strategy := domain.StrategyFor(emotion, false)
		content := caps.Generate(ctx, capability.ContentRequest{
			Profile:  input.Body.StudentContext.profile(),
			Emotion:  domain.EmotionObservation{Emotion: emotion},
			Escalate: emotion.Negative(),
			Strategy: strategy,
			Block:    &block,
		})

		out := &AdaptContentOutput{}
		out.Body.Content = content.Value
		out.Body.Strategy = strategy
		out.Body.Fallback = content.FellBack
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "continue-lesson",
		Method:      http.MethodPost,
		Path:        "/lessons/continue",
		Summary:     "Generate further topics for a lesson",
		Tags:        []string{"Lessons"},
	}, func(ctx context.Context, input *ContinueLessonInput) (*ContinueLessonOutput, error) {
		l := input.Body.Lesson
		n := input.Body.NumTopics
		if n == 0 {
			n = DefaultContinueTopics
		}

		covered := append([]string{}, l.Covered...)
		if l.Title != "" {
			covered = append(covered, l.Title)
		}
		path := caps.Plan(ctx, capability.PathRequest{
			Profile: domain.Profile{
				Language: l.Language,
				Level:    l.Level,
				Topic:    strings.TrimSpace(l.Topic),
			}.WithDefaults(),
			Completed: covered,
			Count:     n,
		})

		out := &ContinueLessonOutput{}
		out.Body.Topics = path.Value.Nodes
		out.Body.Fallback = path.FellBack
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "adapt-message",
		Method:      http.MethodPost,
		Path:        "/lessons/adapt-message",
		Summary:     "Adjust the tone of a tutor message for the learner's emotion",
		Tags:        []string{"Lessons"},
	}, func(ctx context.Context, input *AdaptMessageInput) (*AdaptMessageOutput, error) {
		emotion, err := parseEmotion(input.Body.Emotion)
		if err != nil {
			return nil, err
		}

		refined := caps.Refine(ctx, capability.ToneRequest{
			Texts:   []string{input.Body.Message},
			Profile: input.Body.StudentContext.profile(),
			Emotion: emotion,
		})

		out := &AdaptMessageOutput{}
		out.Body.Message = input.Body.Message
		if len(refined.Value) == 1 {
			out.Body.Message = refined.Value[0]
		}
		out.Body.Fallback = refined.FellBack
		return out, nil
	})
}
