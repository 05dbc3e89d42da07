package vision

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidImage = errors.New("invalid image payload")

const defaultImagePrefix = "data:image/jpeg;base64,"

// NormalizeImage accepts a data URL, an http(s) URL, or bare base64 (which
// mobile clients send as JPEG) and returns a URL usable as an image part.
func NormalizeImage(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, nil
	}

	if strings.HasPrefix(raw, "data:") {
		header, payload, ok := strings.Cut(raw, ",")
		if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			return "", ErrInvalidImage
		}
		if !validBase64(payload) {
			return "", ErrInvalidImage
		}
		return raw, nil
	}

	if !validBase64(raw) {
		return "", ErrInvalidImage
	}
	return defaultImagePrefix + raw, nil
}

func validBase64(s string) bool {
	if s == "" {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}
