package vision

import (
	"context"
	"io"
)

// LabelPrompt is the shared prompt used by all vision adapters.
const LabelPrompt = `This photo shows one object someone wants to find again later.
Reply with a short label for the main object (two to four words, e.g. "Blue umbrella"
or "Spare house keys"). Reply with the label only, no punctuation or explanation.`

// Labeler suggests a label for a captured item photo.
type Labeler interface {
	SuggestLabel(ctx context.Context, r io.Reader, mimeType string) (string, error)
}
