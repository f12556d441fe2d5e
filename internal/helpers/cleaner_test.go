package helpers

import "testing"

func TestExtractJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"queries":["a","b"]}`,
			want: `{"queries":["a","b"]}`,
		},
		{
			name: "fenced json block",
			in:   "Here you go:\n```json\n{\"answer\": \"42\"}\n```",
			want: `{"answer": "42"}`,
		},
		{
			name: "prose around object",
			in:   `Sure! The result is {"a": [1, 2, {"b": "}"}]} as requested.`,
			want: `{"a": [1, 2, {"b": "}"}]}`,
		},
		{
			name: "braces inside strings ignored",
			in:   `{"text": "use { and } carefully \" ok"}`,
			want: `{"text": "use { and } carefully \" ok"}`,
		},
		{
			name: "array payload",
			in:   "```\n[\"x\", \"y\"]\n```",
			want: `["x", "y"]`,
		},
		{
			name: "leading byte order mark",
			in:   "\uFEFF{\"queries\": [\"x\"]}",
			want: `{"queries": ["x"]}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if err != nil {
				t.Fatalf("ExtractJSON() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ExtractJSON() got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONErrors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "no json here", `{"unterminated": true`} {
		if _, err := ExtractJSON(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()
	got := CollapseWhitespace("  a\n\n b\t\tc  ")
	if got != "a b c" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncateChars(t *testing.T) {
	t.Parallel()
	if got := TruncateChars("hello", 10); got != "hello" {
		t.Fatalf("no-op truncation changed string: %q", got)
	}
	if got := TruncateChars("hello", 3); got != "hel" {
		t.Fatalf("got %q", got)
	}
	// multi-byte rune is not split
	if got := TruncateChars("héllo", 2); got != "h" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateChars("hello", 0); got != "hello" {
		t.Fatalf("zero limit should disable truncation, got %q", got)
	}
	// an invalid byte early in the input must not eat the whole string
	dirty := "\xffabcdefghij"
	if got := TruncateChars(dirty, 8); got != dirty[:8] {
		t.Fatalf("early invalid byte changed truncation, got %q", got)
	}
}
