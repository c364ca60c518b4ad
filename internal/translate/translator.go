// Package translate turns extracted English article text into Chinese.
// Translation is strictly best-effort: every failure mode collapses to "no
// translation" so ingestion of the base article is never blocked.
package translate

import (
	"context"
	"strings"
	"time"

	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// maxInputLen caps how much text is sent to the translator in total.
	maxInputLen = 24000

	// chunkLen bounds a single translation request; chunks split on
	// paragraph boundaries and are rejoined with blank lines.
	chunkLen = 1800

	requestTimeout = 60 * time.Second

	systemPrompt = "You are a professional news translator. Translate the user's text " +
		"from English to Simplified Chinese. Return only the translation, no commentary."
)

// Translator is the translation collaborator backed by the OpenAI chat API.
type Translator struct {
	client  *openai.Client
	model   string
	enabled bool
	logger  *slog.Logger
}

// New builds a Translator. An empty API key disables translation entirely;
// Translate then always reports no result.
func New(apiKey, model string, logger *slog.Logger) *Translator {
	t := &Translator{
		model:  model,
		logger: logger,
	}
	if apiKey != "" {
		t.client = openai.NewClient(apiKey)
		t.enabled = true
	}
	return t
}

// Translate returns the Chinese rendition of text, or ("", false) when
// translation is disabled, the input is empty, or any request fails.
func (t *Translator) Translate(ctx context.Context, text string) (string, bool) {
	if !t.enabled {
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if len(text) > maxInputLen {
		text = text[:maxInputLen]
	}

	chunks := chunkText(text, chunkLen)
	if len(chunks) == 0 {
		return "", false
	}

	translated := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := t.translateChunk(ctx, chunk)
		if err != nil {
			t.logger.Warn("translation failed", "error", err)
			return "", false
		}
		if out != "" {
			translated = append(translated, out)
		}
	}

	if len(translated) == 0 {
		return "", false
	}
	return strings.Join(translated, "\n\n"), true
}

func (t *Translator) translateChunk(ctx context.Context, chunk string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: chunk,
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// chunkText splits text into pieces of at most size characters, preferring
// paragraph boundaries. Blank lines are dropped; an over-long paragraph is
// hard-cut at size.
func chunkText(text string, size int) []string {
	var chunks []string
	current := ""

	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		candidate := para
		if current != "" {
			candidate = current + "\n" + para
		}
		if len(candidate) <= size {
			current = candidate
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
		}
		if len(para) > size {
			para = para[:size]
		}
		current = para
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
