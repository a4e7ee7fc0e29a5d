package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AllowedExtensions lists the upload formats in display order.
var AllowedExtensions = []string{".pdf", ".docx", ".pptx", ".txt", ".csv"}

// ValidateExtension checks the file name against AllowedExtensions.
// The error wraps ErrUnsupportedFormat and carries the user-facing message.
func ValidateExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: Invalid file type. Allowed: PDF, DOCX, PPTX, TXT, CSV", ErrUnsupportedFormat)
}
