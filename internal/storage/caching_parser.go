package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Parser matches the document-parsing collaborator shape. Satisfied by the
// upstage client and the local PDF parser.
type Parser interface {
	ParseDocument(ctx context.Context, path string) (map[string]any, error)
}

// CachingParser decorates a Parser with the SQLite payload cache. Cache
// failures are logged and fall through to a live parse; only the live parse
// error itself is fatal.
type CachingParser struct {
	store  *Store
	inner  Parser
	logger *slog.Logger
}

// NewCachingParser wraps inner with the cache in store.
func NewCachingParser(store *Store, inner Parser) *CachingParser {
	return &CachingParser{store: store, inner: inner, logger: slog.Default()}
}

// ParseDocument returns the cached payload for the file's content hash, or
// delegates to the inner parser and caches the result.
func (c *CachingParser) ParseDocument(ctx context.Context, path string) (map[string]any, error) {
	docHash, err := hashFile(path)
	if err != nil {
		c.logger.Warn("could not hash document, bypassing cache", "path", path, "error", err)
		return c.inner.ParseDocument(ctx, path)
	}

	if raw, err := c.store.GetParsedDoc(docHash); err == nil {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			c.logger.Debug("document parse cache hit", "hash", docHash)
			return payload, nil
		}
		c.logger.Warn("malformed cached payload, reparsing", "hash", docHash)
	}

	payload, err := c.inner.ParseDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(payload); err == nil {
		if err := c.store.PutParsedDoc(docHash, string(raw)); err != nil {
			c.logger.Warn("could not cache parsed document", "hash", docHash, "error", err)
		}
	}
	return payload, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
