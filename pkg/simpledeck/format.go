package simpledeck

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
)

// FormatSize renders a byte count for display ("512 B", "200.0 KB", "1.5 MB").
// Sizes are 1024-based and never scaled past megabytes.
func FormatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	return units.CustomSize("%.1f %s", float64(bytes), 1024.0, sizeAbbrs)
}

var sizeAbbrs = []string{"B", "KB", "MB"}

// Extension returns the lower-cased file extension without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// PresentationExtensions lists the extensions the service accepts by default.
var PresentationExtensions = []string{"ppt", "pptx"}

// IsPresentation reports whether name carries a presentation extension.
func IsPresentation(name string) bool {
	ext := Extension(name)
	for _, allowed := range PresentationExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
