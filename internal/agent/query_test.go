package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammad-safakhou/deepresearch/provider"
)

// stubProvider returns a canned response and records the messages it was given.
type stubProvider struct {
	response string
	err      error
	messages []provider.Message
}

func (s *stubProvider) Generate(ctx context.Context, messages []provider.Message) (string, error) {
	out, _, _, err := s.GenerateWithTokens(ctx, messages)
	return out, err
}

func (s *stubProvider) GenerateWithTokens(ctx context.Context, messages []provider.Message) (string, int64, int64, error) {
	s.messages = messages
	if s.err != nil {
		return "", 0, 0, s.err
	}
	return s.response, 10, 5, nil
}

func (s *stubProvider) Model() string { return "stub-model" }

func TestGenerateQueries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "passes queries through",
			response: `{"queries": ["boiling point water sea level"]}`,
			want:     []string{"boiling point water sea level"},
		},
		{
			name:     "fenced response",
			response: "```json\n{\"queries\": [\"go concurrency patterns\", \"golang errgroup usage\"]}\n```",
			want:     []string{"go concurrency patterns", "golang errgroup usage"},
		},
		{
			name:     "dedupes case-insensitively and drops blanks",
			response: `{"queries": ["rust borrow checker", "Rust Borrow Checker", "  ", "rust lifetimes"]}`,
			want:     []string{"rust borrow checker", "rust lifetimes"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			a := NewQueryAgent(&stubProvider{response: tt.response}, nil)
			got, err := a.GenerateQueries(context.Background(), "some question", 3)
			if err != nil {
				t.Fatalf("GenerateQueries: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestGenerateQueriesSchemaViolations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "I could not think of any queries, sorry."},
		{name: "empty list", response: `{"queries": []}`},
		{name: "wrong type", response: `{"queries": "boiling point"}`},
		{name: "missing field", response: `{"search": ["x"]}`},
		{name: "whitespace only", response: `{"queries": [" "]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			a := NewQueryAgent(&stubProvider{response: tt.response}, nil)
			_, err := a.GenerateQueries(context.Background(), "some question", 3)
			if !errors.Is(err, ErrSchemaValidation) {
				t.Fatalf("expected ErrSchemaValidation, got %v", err)
			}
		})
	}
}

func TestGenerateQueriesEmptyQuestion(t *testing.T) {
	t.Parallel()
	a := NewQueryAgent(&stubProvider{response: `{"queries": ["x"]}`}, nil)
	if _, err := a.GenerateQueries(context.Background(), "  ", 3); err == nil {
		t.Fatalf("expected error for empty question")
	}
}

func TestGenerateQueriesProviderError(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("model unavailable")
	a := NewQueryAgent(&stubProvider{err: wantErr}, nil)
	if _, err := a.GenerateQueries(context.Background(), "q", 1); !errors.Is(err, wantErr) {
		t.Fatalf("expected provider error to propagate, got %v", err)
	}
}
