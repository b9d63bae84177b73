package constants

import "strings"

// Source formats understood by the OCR engine.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

const contentTypePDF = "application/pdf"

// NormalizeContentType lowercases and strips parameters ("image/png; q=1" -> "image/png").
func NormalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// MapContentTypeToFormat returns PDF, IMAGE or "" for unsupported types.
func MapContentTypeToFormat(ct string) string {
	ct = NormalizeContentType(ct)
	switch {
	case ct == contentTypePDF:
		return PDF
	case strings.HasPrefix(ct, "image/"):
		return IMAGE
	default:
		return ""
	}
}

// IsHEICContentType reports content types tesseract cannot read directly.
func IsHEICContentType(ct string) bool {
	switch NormalizeContentType(ct) {
	case "image/heic", "image/heif", "image/heic-sequence", "image/heif-sequence":
		return true
	}
	return false
}

// ExtForContentType picks a file extension for temp files handed to external tools.
func ExtForContentType(ct string) string {
	switch NormalizeContentType(ct) {
	case contentTypePDF:
		return ".pdf"
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/tiff":
		return ".tif"
	case "image/bmp":
		return ".bmp"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic", "image/heic-sequence":
		return ".heic"
	case "image/heif", "image/heif-sequence":
		return ".heif"
	default:
		return ".img"
	}
}
