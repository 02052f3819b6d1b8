package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// DecodeJSON extracts the first JSON value of the kind v expects (array for
// slices, object otherwise) from a model response and unmarshals it into v.
// Markdown fences and surrounding prose are tolerated.
func DecodeJSON(raw string, v any) error {
	s := cleanFences(raw)
	if s == "" {
		return ErrEmptyResponse
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	open, closing := byte('{'), byte('}')
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Slice {
		open, closing = '[', ']'
	}
	candidate := firstBalanced(s, open, closing)
	if candidate == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("model.DecodeJSON: %w", err)
	}
	return nil
}

func cleanFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// firstBalanced returns the first balanced open/closing span of input,
// ignoring delimiters inside JSON strings.
func firstBalanced(input string, open, closing byte) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := range len(input) {
		ch := input[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case closing:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}

// DecodeImage accepts a data URL ("data:image/jpeg;base64,...") or bare
// base64 and returns the bytes with their MIME type. Bare payloads are
// assumed to be JPEG.
func DecodeImage(payload string) ([]byte, string, error) {
	mime := "image/jpeg"
	data := strings.TrimSpace(payload)
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", fmt.Errorf("model.DecodeImage: malformed data URL")
		}
		if m, _, _ := strings.Cut(meta, ";"); m != "" {
			mime = m
		}
		data = body
	}
	if data == "" {
		return nil, "", fmt.Errorf("model.DecodeImage: %w", ErrEmptyResponse)
	}

	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("model.DecodeImage: %w", err)
	}
	return b, mime, nil
}
