// Package imgutil decodes, sniffs and re-encodes image payloads passed between
// the HTTP surface and the image providers.
package imgutil

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned for payloads that are not a supported image.
var ErrNotImage = errors.New("payload is not a supported image")

// DecodeBase64 decodes a base64 image, accepting an optional data URL prefix.
func DecodeBase64(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		parts := strings.SplitN(raw, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid data URL")
		}
		raw = parts[1]
	}
	if raw == "" {
		return nil, fmt.Errorf("empty image payload")
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "="))
		if err != nil {
			return nil, fmt.Errorf("decode base64 image: %w", err)
		}
	}
	return data, nil
}

// EncodeBase64 is the inverse of DecodeBase64 without a data URL prefix.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DetectMIME prefers the provided type and falls back to sniffing. Anything
// that is not an image is reported as image/jpeg.
func DetectMIME(data []byte, provided string) string {
	mime := strings.TrimSpace(provided)
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	if !strings.Contains(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}

// Normalize returns data unchanged when the providers accept its format
// (PNG, JPEG, WebP). Other decodable formats are re-encoded as PNG. The
// payload is fully decoded either way, so a corrupt body fails here.
func Normalize(data []byte) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	sniffed := http.DetectContentType(data)
	switch sniffed {
	case "image/png", "image/jpeg", "image/webp":
		return data, sniffed, nil
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}

// CompressToJPEG re-encodes PNG, GIF, WebP or JPEG data as JPEG.
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FitForVision keeps payloads under maxBytes by JPEG compression so that a
// batch of candidates fits into one inline vision request.
func FitForVision(data []byte, maxBytes int) ([]byte, string, error) {
	if maxBytes <= 0 || len(data) <= maxBytes {
		return data, DetectMIME(data, ""), nil
	}
	for _, quality := range []int{85, 70, 50} {
		out, err := CompressToJPEG(data, quality)
		if err != nil {
			return nil, "", err
		}
		if len(out) <= maxBytes {
			return out, "image/jpeg", nil
		}
	}
	return nil, "", fmt.Errorf("image exceeds %d bytes after compression", maxBytes)
}
