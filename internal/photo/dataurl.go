// Package photo turns uploaded image bytes into the text form stored in an
// observation. It only encodes; pixels are never touched.
package photo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// ErrNotImage is returned when the content is not one of AllowedTypes.
var ErrNotImage = errors.New("photo must be a png, jpeg, webp or gif image")

// AllowedTypes are the image MIME types accepted for upload.
var AllowedTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// DataURL encodes data as "data:<mime>;base64,<payload>". The MIME type is
// sniffed from the bytes; declared (a Content-Type header or a file
// extension's type) is only used when sniffing is inconclusive. Empty data
// yields "" so that validation reports a missing photo.
func DataURL(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	mt := sniff(data, declared)
	if !allowed(mt) {
		return "", fmt.Errorf("%w (got %s)", ErrNotImage, mt)
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ReadDataURL reads at most limit bytes from r and encodes them. Larger
// inputs are rejected rather than truncated.
func ReadDataURL(r io.Reader, declared string, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("photo exceeds %d bytes", limit)
	}
	return DataURL(data, declared)
}

// TypeByExtension maps a file name to its MIME type, "" when unknown.
func TypeByExtension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return mime.TypeByExtension(strings.ToLower(name[i:]))
}

// IsImageDataURL reports whether s is a base64 data URL of an allowed
// image type, i.e. safe to place in an <img src>.
func IsImageDataURL(s string) bool {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return false
	}
	mt, _, ok := strings.Cut(rest, ";base64,")
	return ok && allowed(mt)
}

func sniff(data []byte, declared string) string {
	mt := http.DetectContentType(data)
	if allowed(mt) {
		return mt
	}
	if declared != "" {
		if parsed, _, err := mime.ParseMediaType(declared); err == nil && allowed(parsed) {
			// webp is not sniffed by every Go version
			if mt == "application/octet-stream" {
				return parsed
			}
		}
	}
	return mt
}

func allowed(mt string) bool {
	for _, t := range AllowedTypes {
		if mt == t {
			return true
		}
	}
	return false
}
