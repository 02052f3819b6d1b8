package tutor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosuda/kairos/internal/domain"
)

// Kind identifies which inbound event a message carries.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindFrame
	KindStartLesson
	KindUserQuestion
	KindSessionComplete
	KindBlockCompleted
	KindReset
	KindAnalytics
)

func (k Kind) String() string {
	switch k {
	case KindFrame:
		return "frame"
	case KindStartLesson:
		return "start_lesson"
	case KindUserQuestion:
		return "user_question"
	case KindSessionComplete:
		return "session_complete"
	case KindBlockCompleted:
		return "block_completed"
	case KindReset:
		return "reset_session"
	case KindAnalytics:
		return "get_analytics"
	}
	return "unrecognized"
}

// Inbound "type" values.
const (
	TypeSessionComplete = "session_complete"
	TypeBlockCompleted  = "block_completed"
	TypeResetSession    = "reset_session"
	TypeGetAnalytics    = "get_analytics"
)

// Message is a decoded inbound event. Profile holds only the preference
// fields present in the payload.
type Message struct {
	Kind Kind
	Type string // raw "type" field, if any

	Frame   string
	Text    string
	Profile domain.Profile

	Question string
	Context  []domain.Turn

	SessionID string
	Summary   map[string]any

	Block BlockProgress
}

// BlockProgress is what the client reports when the learner finishes a
// content block.
type BlockProgress struct {
	Covered   string
	Responses []string
	TimeSpent time.Duration
	Completed []string
	Current   string
	Available []domain.LessonRef
}

// wireMessage keeps every field raw so a scalar of the wrong JSON type
// degrades to an absent field instead of rejecting the message.
type wireMessage struct {
	Type         json.RawMessage `json:"type"`
	Frame        json.RawMessage `json:"frame"`
	Text         json.RawMessage `json:"text"`
	StartLesson  json.RawMessage `json:"start_lesson"`
	Topic        json.RawMessage `json:"topic"`
	Style        json.RawMessage `json:"style"`
	Level        json.RawMessage `json:"level"`
	Difficulty   json.RawMessage `json:"difficulty"`
	Language     json.RawMessage `json:"language"`
	Age          json.RawMessage `json:"age"`
	Alias        json.RawMessage `json:"user_alias"`
	UserQuestion json.RawMessage `json:"user_question"`
	Question     json.RawMessage `json:"question"`
	Context      json.RawMessage `json:"context"`
	SessionID    json.RawMessage `json:"sessionId"`
	SessionIDAlt json.RawMessage `json:"session_id"`
	Summary      json.RawMessage `json:"summary"`

	ContentSummary   json.RawMessage `json:"content_summary"`
	Responses        json.RawMessage `json:"responses"`
	TimeSpent        json.RawMessage `json:"time_spent"`
	CompletedLessons json.RawMessage `json:"completed_lessons"`
	CurrentLesson    json.RawMessage `json:"current_lesson"`
	AvailableLessons json.RawMessage `json:"available_lessons"`
}

// Decode parses an inbound payload and classifies it. Dispatch precedence
// is question, session_complete, block_completed, reset_session,
// get_analytics, frame, then start_lesson. Invalid JSON returns
// domain.ErrDecode; valid JSON that is not an object also matches
// domain.ErrMalformed. A payload that matches nothing is returned with
// KindUnrecognized and no error.
func Decode(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		if json.Valid(data) {
			return Message{}, fmt.Errorf("tutor.Decode: %w: %w", domain.ErrDecode, domain.ErrMalformed)
		}
		return Message{}, fmt.Errorf("tutor.Decode: %w: %w", domain.ErrDecode, err)
	}

	m := Message{
		Type:  scalar(w.Type),
		Frame: scalar(w.Frame),
		Text:  scalar(w.Text),
		Profile: domain.Profile{
			Language: scalar(w.Language),
			Age:      nonNegative(w.Age),
			Alias:    scalar(w.Alias),
			Level:    firstNonEmpty(scalar(w.Level), scalar(w.Difficulty)),
			Style:    scalar(w.Style),
			Topic:    scalar(w.Topic),
		},
		Question:  firstNonEmpty(scalar(w.UserQuestion), scalar(w.Question)),
		Context:   turns(w.Context),
		SessionID: firstNonEmpty(scalar(w.SessionID), scalar(w.SessionIDAlt)),
		Summary:   summary(w.Summary),
	}

	switch {
	case m.Question != "":
		m.Kind = KindUserQuestion
	case m.Type == TypeSessionComplete:
		m.Kind = KindSessionComplete
	case m.Type == TypeBlockCompleted:
		m.Kind = KindBlockCompleted
		m.Block = blockProgress(w)
	case m.Type == TypeResetSession:
		m.Kind = KindReset
	case m.Type == TypeGetAnalytics:
		m.Kind = KindAnalytics
	case present(w.Frame):
		m.Kind = KindFrame
	case truthy(w.StartLesson):
		m.Kind = KindStartLesson
	default:
		m.Kind = KindUnrecognized
	}
	return m, nil
}

func blockProgress(w wireMessage) BlockProgress {
	b := BlockProgress{
		Covered:   scalar(w.ContentSummary),
		TimeSpent: time.Duration(nonNegative(w.TimeSpent)) * time.Second,
	}
	for _, r := range elements(w.Responses) {
		s := scalar(r)
		if s == "" && present(r) {
			s = string(r)
		}
		if s != "" {
			b.Responses = append(b.Responses, s)
		}
	}
	for _, r := range elements(w.CompletedLessons) {
		if l, ok := lessonRef(r); ok {
			b.Completed = append(b.Completed, l.ID)
		}
	}
	if l, ok := lessonRef(w.CurrentLesson); ok {
		b.Current = l.ID
	}
	for _, r := range elements(w.AvailableLessons) {
		if l, ok := lessonRef(r); ok {
			b.Available = append(b.Available, l)
		}
	}
	return b
}

// lessonRef accepts a bare id or an object with an "id" field.
func lessonRef(raw json.RawMessage) (domain.LessonRef, bool) {
	if id := scalar(raw); id != "" {
		return domain.LessonRef{ID: id}, true
	}
	var obj struct {
		ID    json.RawMessage `json:"id"`
		Title json.RawMessage `json:"title"`
		Topic json.RawMessage `json:"topic"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.LessonRef{}, false
	}
	l := domain.LessonRef{ID: scalar(obj.ID), Title: scalar(obj.Title), Topic: scalar(obj.Topic)}
	return l, l.ID != ""
}

func turns(raw json.RawMessage) []domain.Turn {
	var out []domain.Turn
	for _, r := range elements(raw) {
		var t struct {
			Role    json.RawMessage `json:"role"`
			Content json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(r, &t); err != nil {
			continue
		}
		out = append(out, domain.Turn{Role: scalar(t.Role), Content: scalar(t.Content)})
	}
	return out
}

// summary keeps an object as is and wraps any other value under "summary".
func summary(raw json.RawMessage) map[string]any {
	if !present(raw) {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"summary": v}
}

func elements(raw json.RawMessage) []json.RawMessage {
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// scalar renders a JSON string, number or bool as trimmed text. Objects,
// arrays and null are "".
func scalar(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// nonNegative accepts a JSON number or a numeric string. Anything else,
// including a negative value, is 0.
func nonNegative(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return max(int(n), 0)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return max(v, 0)
		}
	}
	return 0
}

func truthy(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}
