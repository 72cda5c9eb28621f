package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

const defaultContentType = "application/octet-stream"

// ContentType guesses the media type of a file from its extension.
// Only text-like types carry a charset parameter.
func ContentType(name string) string {
	guessed := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if guessed == "" {
		return defaultContentType
	}
	mediaType, _, err := mime.ParseMediaType(guessed)
	if err != nil {
		return defaultContentType
	}
	if isTextLike(mediaType) {
		return mediaType + "; charset=utf-8"
	}
	return mediaType
}

func isTextLike(mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	switch mediaType {
	case "application/json", "application/javascript", "application/xml":
		return true
	}
	return false
}
