// Package extract recovers usable text or markdown from the loosely-typed
// JSON the OCR provider returns. The response shape varies by model
// version, so extraction is a fixed fallback chain over a parsed JSON
// tree: preferred markdown fields, preferred text fields, a page list, and
// finally every string leaf in the document.
package extract

import (
	"fmt"
	"strings"

	"github.com/marlinspike/mistral-doc-ai/internal/domain"
)

// Preferred field paths, tried in order. These cover the shapes observed
// across provider model versions.
var (
	markdownPaths = [][]string{
		{"document", "markdown"},
		{"markdown"},
		{"md"},
	}
	textPaths = [][]string{
		{"document", "text"},
		{"document", "content"},
		{"text"},
		{"content"},
		{"ocr", "text"},
	}
)

// Keys skipped during the string-leaf fallback. Substring matches catch
// payload-carrying fields (image_base64, bbox coordinates); exact matches
// catch common discriminators. This is a conservative skip-list: metadata
// under other names may still leak into the collected text.
var (
	skipKeySubstrings = []string{"base64", "image", "bbox", "coordinates", "polygon"}
	skipKeysExact     = map[string]bool{"id": true, "type": true, "object": true, "model": true}
)

// base64MinLen is the length past which an unbroken base64-alphabet string
// is assumed to be embedded binary rather than document text.
const base64MinLen = 200

// Normalize recovers the best available content from a raw provider
// response body. The first tier yielding non-empty content wins:
//
//  1. a preferred markdown field
//  2. a preferred text field
//  3. a page list (top-level or under "document"), pages joined by blank
//     lines
//  4. every string leaf in document order, joined by newlines
//
// A body that is not valid JSON maps to domain.ErrMalformedResponse; a
// chain that yields nothing maps to domain.ErrEmptyExtraction so callers
// can tell "could not extract" from "extracted empty document".
func Normalize(raw []byte) (*domain.ExtractedContent, error) {
	root, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing response body: %v: %w", err, domain.ErrMalformedResponse)
	}

	if md := firstPathString(root, markdownPaths); md != "" {
		return &domain.ExtractedContent{Markdown: md}, nil
	}
	if text := firstPathString(root, textPaths); text != "" {
		return &domain.ExtractedContent{Text: text}, nil
	}
	if content, isMarkdown := pagesContent(root); content != "" {
		if isMarkdown {
			return &domain.ExtractedContent{Markdown: content}, nil
		}
		return &domain.ExtractedContent{Text: content}, nil
	}
	if text := collectLeaves(root); text != "" {
		return &domain.ExtractedContent{Text: text}, nil
	}

	return nil, domain.ErrEmptyExtraction
}

func firstPathString(root *Value, paths [][]string) string {
	for _, path := range paths {
		if s, ok := root.getPath(path...).stringValue(); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// pagesContent concatenates per-page content in page order, separated by a
// blank line. The second return reports whether any page contributed via
// its markdown field, in which case the result is treated as markdown.
func pagesContent(root *Value) (string, bool) {
	pages := root.Get("pages")
	if pages == nil {
		pages = root.getPath("document", "pages")
	}
	if pages == nil || pages.Kind != KindArray {
		return "", false
	}

	var parts []string
	isMarkdown := false
	for _, page := range pages.Items {
		if page.Kind != KindObject {
			continue
		}
		for _, key := range []string{"markdown", "text", "content"} {
			if s, ok := page.Get(key).stringValue(); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
				if key == "markdown" {
					isMarkdown = true
				}
				break
			}
		}
	}
	return strings.Join(parts, "\n\n"), isMarkdown
}

// collectLeaves walks the whole tree in document order and joins every
// string leaf that survives the skip rules with single newlines.
func collectLeaves(root *Value) string {
	var leaves []string
	walkStrings(root, &leaves)
	return strings.Join(leaves, "\n")
}

func walkStrings(v *Value, out *[]string) {
	switch v.Kind {
	case KindObject:
		for _, f := range v.Fields {
			if shouldSkipKey(f.Key) {
				continue
			}
			walkStrings(f.Value, out)
		}
	case KindArray:
		for _, item := range v.Items {
			walkStrings(item, out)
		}
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s != "" && !looksLikeBase64(s) {
			*out = append(*out, s)
		}
	}
}

func shouldSkipKey(key string) bool {
	lowered := strings.ToLower(key)
	if skipKeysExact[lowered] {
		return true
	}
	for _, token := range skipKeySubstrings {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

func looksLikeBase64(s string) bool {
	if len(s) < base64MinLen {
		return false
	}
	for _, ch := range s {
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '+' || ch == '/' || ch == '=' || ch == '\n':
		default:
			return false
		}
	}
	return true
}
