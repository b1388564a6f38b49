package validate

import (
	"sort"
	"strings"
)

const (
	UserIDHeader = "X-User-ID"
	ImageField   = "imageFile"

	MaxFileSize int64 = 10 * 1024 * 1024

	MaxTextLen = 10000

	DefaultListLimit uint64 = 20
	MaxListLimit     uint64 = 100
)

var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// AllowedList is AllowedExtensions for error messages.
func AllowedList() string {
	exts := make([]string, 0, len(AllowedExtensions))
	for ext := range AllowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	return strings.Join(exts, ", ")
}
