package translate

import (
	"context"
	"strings"
	"testing"

	"log/slog"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		size   int
		chunks int
	}{
		{
			name:   "single short paragraph",
			input:  "hello world",
			size:   100,
			chunks: 1,
		},
		{
			name:   "paragraphs merged under limit",
			input:  "first paragraph\nsecond paragraph",
			size:   100,
			chunks: 1,
		},
		{
			name:   "paragraphs split over limit",
			input:  strings.Repeat("a", 60) + "\n" + strings.Repeat("b", 60),
			size:   80,
			chunks: 2,
		},
		{
			name:   "blank lines ignored",
			input:  "one\n\n\ntwo",
			size:   100,
			chunks: 1,
		},
		{
			name:   "empty input",
			input:  "",
			size:   100,
			chunks: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkText(tt.input, tt.size)
			if len(got) != tt.chunks {
				t.Fatalf("chunkText produced %d chunks, want %d: %v", len(got), tt.chunks, got)
			}
			for i, c := range got {
				if len(c) > tt.size {
					t.Errorf("chunk %d exceeds size limit: %d > %d", i, len(c), tt.size)
				}
			}
		})
	}
}

func TestChunkTextHardCutsLongParagraph(t *testing.T) {
	input := strings.Repeat("x", 500)
	chunks := chunkText(input, 100)
	if len(chunks) != 1 {
		t.Fatalf("expected single hard-cut chunk, got %d", len(chunks))
	}
	if len(chunks[0]) != 100 {
		t.Errorf("expected chunk of 100 chars, got %d", len(chunks[0]))
	}
}

func TestTranslateDisabled(t *testing.T) {
	tr := New("", "gpt-4o-mini", slog.Default())

	out, ok := tr.Translate(context.Background(), "some english text")
	if ok {
		t.Error("expected no translation when disabled")
	}
	if out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestTranslateEmptyInput(t *testing.T) {
	tr := New("test-key", "gpt-4o-mini", slog.Default())

	if _, ok := tr.Translate(context.Background(), "   "); ok {
		t.Error("expected no translation for blank input")
	}
}
