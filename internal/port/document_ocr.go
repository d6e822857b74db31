package port

import "context"

// OCRInput carries one upload's data for a provider call.
type OCRInput struct {
	Filename string
	MimeType string
	Bytes    []byte
}

// OCROutput contains the content recovered from the provider response.
type OCROutput struct {
	Markdown string
	Text     string
}

// DocumentOCR abstracts the remote OCR provider.
type DocumentOCR interface {
	Process(ctx context.Context, input OCRInput) (*OCROutput, error)
}
