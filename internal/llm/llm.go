// Package llm talks to the text generation model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/illegalcall/reelwriter/internal/prompt"
)

var (
	// ErrEmptyContent means the model answered without any text.
	ErrEmptyContent = errors.New("generation produced no content")
	// ErrMalformedJSON means the model's answer is not a JSON document.
	ErrMalformedJSON = errors.New("generation produced malformed JSON")
)

// Generator turns an assembled prompt into the model's raw JSON answer.
type Generator interface {
	GenerateJSON(ctx context.Context, req prompt.Request) ([]byte, error)
}

// CleanJSON strips markdown code fences around a JSON answer and checks
// that what is left parses.
func CleanJSON(text string) ([]byte, error) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil, ErrEmptyContent
	}
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```JSON")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, ErrEmptyContent
	}

	if !json.Valid([]byte(clean)) {
		return nil, fmt.Errorf("%w: %.80q", ErrMalformedJSON, clean)
	}
	return []byte(clean), nil
}
