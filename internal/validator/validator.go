// Package validator checks a submitted batch against the upload policy
// before any provider call is made. Validation is atomic: every issue in
// the batch is reported at once and a batch with any issue is rejected
// whole.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marlinspike/mistral-doc-ai/internal/domain"
)

// Policy holds the upload limits a batch is checked against.
type Policy struct {
	MaxFiles         int
	MaxFileSizeBytes int64
}

// Validate returns every policy violation in the batch. An empty slice
// means the batch is accepted. Pure: no side effects, candidates are not
// modified.
func Validate(candidates []domain.UploadCandidate, p Policy) []string {
	var issues []string

	if len(candidates) == 0 {
		issues = append(issues, domain.ErrNoFiles.Error())
		return issues
	}
	if len(candidates) > p.MaxFiles {
		issues = append(issues, fmt.Sprintf("too many files: %d submitted, at most %d allowed", len(candidates), p.MaxFiles))
	}

	for _, c := range candidates {
		if c.Size > p.MaxFileSizeBytes {
			issues = append(issues, fmt.Sprintf("%s exceeds the %dMB limit", c.Filename, p.MaxFileSizeBytes/(1024*1024)))
		}
		if _, ok := domain.AllowedExtensions[domain.Extension(c.Filename)]; !ok {
			issues = append(issues, fmt.Sprintf("%s: unsupported file type (allowed: %s)", c.Filename, allowedExtensionList()))
		}
	}

	return issues
}

func allowedExtensionList() string {
	exts := make([]string, 0, len(domain.AllowedExtensions))
	for ext := range domain.AllowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
