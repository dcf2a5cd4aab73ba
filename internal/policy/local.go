package policy

import (
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// LocalParser extracts plain text from a PDF on the local filesystem. It is
// the offline document-parsing collaborator, selected when no remote
// digitization service is configured. The returned payload mirrors the
// remote service's shape so the normalizer treats both identically.
type LocalParser struct{}

// ParseDocument reads the PDF at path and returns a payload with the
// extracted text under the "text" key.
func (LocalParser) ParseDocument(ctx context.Context, path string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extracting pdf text: %w", err)
	}
	text, err := io.ReadAll(textReader)
	if err != nil {
		return nil, fmt.Errorf("reading pdf text: %w", err)
	}

	return map[string]any{
		"source": "local",
		"text":   string(text),
	}, nil
}
