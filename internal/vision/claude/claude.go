package claude

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/findit/internal/vision"
)

// maxTokens is generous for a two-to-four word reply.
const maxTokens = 64

type ClaudeLabeler struct {
	client *anthropic.Client
	model  string
}

func NewClaudeLabeler(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeLabeler {
	return &ClaudeLabeler{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (l *ClaudeLabeler) SuggestLabel(ctx context.Context, r io.Reader, mimeType string) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := l.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(l.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					imageData,
				)),
				anthropic.NewTextMessageContent(vision.LabelPrompt),
			},
		}},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("claude returned %s: %s", apiErr.Type, apiErr.Message)
		}
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText {
			return vision.ParseLabel(content.GetText()), nil
		}
	}
	return "", nil
}

// normaliseMIME maps MIME types to the values the Anthropic API accepts.
// Unknown types are coerced to jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
