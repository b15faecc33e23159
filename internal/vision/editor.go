package vision

import "context"

// Directive is one search-and-replace instruction for an inpainting edit.
type Directive struct {
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

// EditResult is the image returned by an edit call plus provider metadata.
type EditResult struct {
	Image        []byte
	FinishReason string
	Seed         string
}

// Editor applies a single directive to an image.
type Editor interface {
	Edit(ctx context.Context, image []byte, replace, search string) (EditResult, error)
}

// Upscaler enlarges an image.
type Upscaler interface {
	Upscale(ctx context.Context, image []byte) ([]byte, error)
}
