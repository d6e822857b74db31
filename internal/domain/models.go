package domain

import (
	"path/filepath"
	"strings"
)

// UploadCandidate is a single uploaded file before OCR processing. It is
// created at request ingress and discarded once the provider payload has
// been built.
type UploadCandidate struct {
	Filename string
	MimeType string
	Size     int64
	Bytes    []byte
}

// ExtractedContent holds the usable content recovered from a provider
// response. At least one field is non-empty on success.
type ExtractedContent struct {
	Markdown string
	Text     string
}

// OCRResult is the per-file entry returned to the caller. Exactly one
// result is produced per submitted file, in submission order; Error is set
// instead of Text/Markdown when processing failed.
type OCRResult struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Text     *string `json:"text,omitempty"`
	Markdown *string `json:"markdown,omitempty"`
	Error    *string `json:"error,omitempty"`
}

// Extension returns the lowercased filename extension without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// NormalizeMimeType resolves the canonical MIME type for an upload from its
// declared content type, falling back to the filename extension. The second
// return is false when neither yields a supported type.
func NormalizeMimeType(contentType, filename string) (string, bool) {
	if contentType != "" {
		base := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		if canonical, ok := AllowedContentTypes[base]; ok {
			return canonical, true
		}
	}
	if ft, ok := AllowedExtensions[Extension(filename)]; ok {
		return AllowedFileTypes[ft], true
	}
	return "", false
}
