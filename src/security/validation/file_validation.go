package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/username/strperformance/backend/src/logger"
)

// sniffLen is how much of an upload is inspected before parsing.
const sniffLen = 1024

// AllowedClientContentTypes lists the MIME types browsers send for booking exports.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // Windows browsers label .csv this way
	"text/plain":               true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": false,
}

// ValidateClientContentType checks the Content-Type the client declared for the file part.
func ValidateClientContentType(contentType string) error {
	base := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if allowed, exists := AllowedClientContentTypes[base]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: file type '%s' is not accepted, upload the CSV export", ErrValidationFailed, contentType)
	}
	return nil
}

// isBinaryContent reports NUL bytes or invalid UTF-8. A multi-byte rune cut at the
// end of the sniff window is not counted as invalid.
func isBinaryContent(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}
	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size <= 1 {
			return len(buf) >= utf8.UTFMax || utf8.FullRune(buf)
		}
		buf = buf[size:]
	}
	return false
}

// ValidateCSVContent sniffs the start of file to make sure it is non-empty text,
// then rewinds it for the parser. It returns the detected content type.
func ValidateCSVContent(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read file for content checking: %w", err)
	}
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}
	if isBinaryContent(buffer[:n]) {
		logger.L.Warn("Upload rejected: binary content in CSV upload")
		return "application/octet-stream", fmt.Errorf("%w: file appears to be binary, not a CSV export", ErrValidationFailed)
	}

	detected := strings.ToLower(strings.Split(http.DetectContentType(buffer[:n]), ";")[0])
	switch detected {
	case "text/plain", "text/csv", "application/csv":
		logger.L.Debug("Upload content type validated", "detectedContentType", detected)
		return detected, nil
	}
	logger.L.Warn("Disallowed detected file content type", "detectedContentType", detected)
	return detected, fmt.Errorf("%w: detected content type '%s' is not a CSV export", ErrValidationFailed, detected)
}
