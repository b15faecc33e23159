package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

// ErrUploaderDisabled is returned when neither a bucket nor a local directory
// is configured. Callers treat it as "do not publish".
var ErrUploaderDisabled = errors.New("media uploader disabled")

// UploadInput is one object to publish. Filename only contributes its
// extension to the generated key.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// UploadResult is the stored key and the URL the frontend can load.
type UploadResult struct {
	Key string
	URL string
}

// Uploader publishes selected edits.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (UploadResult, error)
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// PublishImage uploads an edited image under a name whose extension matches
// its sniffed type.
func PublishImage(ctx context.Context, u Uploader, image []byte) (UploadResult, error) {
	contentType := http.DetectContentType(image)
	ext, ok := imageExtensions[contentType]
	if !ok {
		ext = ".bin"
	}
	return u.Upload(ctx, UploadInput{
		Filename:    "edit" + ext,
		ContentType: contentType,
		Body:        bytes.NewReader(image),
		Size:        int64(len(image)),
	})
}

type disabledUploader struct{}

func (disabledUploader) Upload(context.Context, UploadInput) (UploadResult, error) {
	return UploadResult{}, ErrUploaderDisabled
}

// Disabled returns the uploader used when publishing is not configured.
func Disabled() Uploader {
	return disabledUploader{}
}
