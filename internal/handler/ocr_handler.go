package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marlinspike/mistral-doc-ai/internal/config"
	"github.com/marlinspike/mistral-doc-ai/internal/domain"
	"github.com/marlinspike/mistral-doc-ai/internal/service"
)

// OCRHandler handles the batch OCR endpoint.
type OCRHandler struct {
	batchService service.BatchService
	upload       config.UploadConfig
}

// NewOCRHandler creates a new OCRHandler.
func NewOCRHandler(batchService service.BatchService, upload config.UploadConfig) *OCRHandler {
	return &OCRHandler{batchService: batchService, upload: upload}
}

// Process handles POST /api/v1/ocr
// @Summary OCR a batch of documents
// @Description Submit up to 10 PDF/PNG/JPG files and receive extracted text/markdown per file
// @Tags ocr
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files to process (repeatable)"
// @Param combine formData bool false "Also return a single combined markdown document"
// @Success 200 {object} APIResponse "Per-file results in submission order"
// @Failure 400 {object} APIResponse "Batch rejected; error.details lists every issue"
// @Failure 413 {object} APIResponse "Request body too large"
// @Router /ocr [post]
func (h *OCRHandler) Process(c *gin.Context) {
	// Guard the multipart parse against oversized bodies; validation still
	// reports the per-file cap precisely.
	maxBody := int64(h.upload.MaxFiles)*h.upload.MaxFileSizeBytes() + 10*1024*1024
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)

	form, err := c.MultipartForm()
	if err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			RespondError(c, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "request body exceeds the upload limit")
			return
		}
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "request is not valid multipart form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "NO_FILES", "no files uploaded; use the repeated 'files' field")
		return
	}

	combine, _ := strconv.ParseBool(c.PostForm("combine"))

	candidates := make([]domain.UploadCandidate, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", fh.Filename+": could not read uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", fh.Filename+": could not read uploaded file")
			return
		}

		mimeType, _ := domain.NormalizeMimeType(fh.Header.Get("Content-Type"), fh.Filename)
		candidates = append(candidates, domain.UploadCandidate{
			Filename: fh.Filename,
			MimeType: mimeType,
			Size:     int64(len(data)),
			Bytes:    data,
		})
	}

	out, err := h.batchService.Process(c.Request.Context(), candidates, combine)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			RespondBatchRejected(c, vErr.Issues)
			return
		}
		if errors.Is(err, domain.ErrBatchCanceled) {
			log.Printf("ocrHandler.Process: batch canceled: %v", err)
		}
		HandleError(c, err)
		return
	}

	data := gin.H{
		"results": out.Results,
		"count":   len(out.Results),
	}
	if out.Combined != "" {
		data["combined"] = out.Combined
	}
	RespondOK(c, data)
}
