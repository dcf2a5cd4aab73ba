// Package policy turns parsed-document payloads into bounded plain text
// suitable for prompting, and provides the embedded fallback policy document
// plus a local PDF parsing variant.
package policy

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// MaxChars bounds the normalized policy text, counted in runes.
const MaxChars = 20000

// payloadKeys is the fixed lookup priority inside a parsed-document payload.
// Document digitization commonly returns HTML under "html" or nested one
// level under "content".
var payloadKeys = []string{"html", "text", "content"}

var nestedKeys = []string{"html", "text"}

// Normalize converts a parsed-document payload into a bounded plain-text
// blob. It never fails: unknown payload shapes fall back to their JSON (or
// string) rendering.
func Normalize(payload any) string {
	text := rawText(payload)
	if strings.ContainsAny(text, "<>") {
		text = stripTags(text)
	}
	text = strings.Join(strings.Fields(text), " ")
	return Truncate(text, MaxChars)
}

func rawText(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range payloadKeys {
			switch inner := v[key].(type) {
			case string:
				if strings.TrimSpace(inner) != "" {
					return inner
				}
			case map[string]any:
				for _, nk := range nestedKeys {
					if s, ok := inner[nk].(string); ok && strings.TrimSpace(s) != "" {
						return s
					}
				}
			}
		}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprint(payload)
	}
	return string(b)
}

// stripTags drops markup and keeps text content, separating adjacent text
// runs with a space so words from sibling elements don't fuse.
func stripTags(s string) string {
	tok := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(tok.Text())
			sb.WriteByte(' ')
		}
	}
}

// Truncate caps s at max runes without splitting a multi-byte character.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
