package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps declared MIME content types to the canonical
// content type the OCR provider understands. Browsers send image/jpg for
// some JPEGs, so both spellings are accepted.
var AllowedContentTypes = map[string]string{
	"application/pdf": "application/pdf",
	"image/jpeg":      "image/jpeg",
	"image/jpg":       "image/jpeg",
	"image/png":       "image/png",
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// AuthHeaderStyle selects which credential headers are attached to
// outbound OCR requests.
type AuthHeaderStyle string

const (
	// AuthStyleBoth sends Authorization: Bearer and api-key. Azure-hosted
	// deployments accept either, so sending both is the safe default.
	AuthStyleBoth   AuthHeaderStyle = "both"
	AuthStyleBearer AuthHeaderStyle = "bearer"
	AuthStyleAPIKey AuthHeaderStyle = "api-key"
)
