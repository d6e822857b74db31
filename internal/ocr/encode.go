package ocr

import (
	"encoding/base64"
	"fmt"
)

// Document is the discriminated document object the provider expects.
// Exactly one of DocumentURL/ImageURL is set, matching Type.
type Document struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// EncodeDocument converts raw upload bytes into the base64 data-URL
// document object for the provider payload. PDFs go out as document_url,
// images as image_url. The caller is responsible for having validated the
// MIME type; an unexpected type here is a programming error, not user
// input, so it falls through to image_url.
func EncodeDocument(mimeType string, data []byte) Document {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	if mimeType == "application/pdf" {
		return Document{Type: "document_url", DocumentURL: dataURL}
	}
	return Document{Type: "image_url", ImageURL: dataURL}
}
