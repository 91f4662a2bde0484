package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// truncationMarker is appended to text cut by TruncateText
const truncationMarker = "\n[...]"

// ErrNoJSONObject is returned when a model answer holds no JSON object
var ErrNoJSONObject = errors.New("no JSON object found in response")

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText cuts text to at most maxSize bytes on a rune boundary.
// A non-positive maxSize disables the limit.
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + truncationMarker
}

// SanitizeUTF8 drops invalid UTF-8 bytes from text
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText sanitizes and then truncates text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.TruncateText(tp.SanitizeUTF8(text), maxSize)
}

// ExtractJSONObject returns the first balanced {...} object in text.
// Models often wrap their answer in prose or code fences.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSONObject
}

type replyPayload struct {
	Reply string `json:"reply"`
}

// ParseReply pulls the "reply" field out of a model answer. An answer with no
// JSON object is taken as the reply itself.
func ParseReply(text string) (string, error) {
	obj, err := ExtractJSONObject(text)
	if errors.Is(err, ErrNoJSONObject) {
		reply := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "`"))
		if reply == "" {
			return "", fmt.Errorf("empty reply")
		}
		return reply, nil
	}

	var payload replyPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return "", fmt.Errorf("failed to parse reply JSON: %w", err)
	}

	reply := strings.TrimSpace(payload.Reply)
	if reply == "" {
		return "", fmt.Errorf("empty reply")
	}
	return reply, nil
}
