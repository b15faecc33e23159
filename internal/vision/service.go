package vision

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"autocamper/internal/media"
)

// Outcome is the result of restyling one venue photo.
type Outcome struct {
	Label      string
	Image      []byte
	URL        string
	Directives []Directive
	Candidates []string
}

// Service composes directive generation, the edit rounds and selection.
type Service struct {
	Prompter *PromptGenerator
	Pipeline *Pipeline
	Selector *Selector
	Uploader media.Uploader
	Logger   zerolog.Logger
}

// ApplyTheme restyles image for theme and returns the best candidate. When an
// uploader is configured the chosen image is published and its URL returned.
func (s *Service) ApplyTheme(ctx context.Context, theme string, image []byte) (Outcome, error) {
	directives, err := s.Prompter.Generate(ctx, theme, image)
	if err != nil {
		return Outcome{}, err
	}
	s.Logger.Debug().Str("theme", theme).Interface("directives", directives).Msg("edit directives ready")

	set, err := s.Pipeline.Run(ctx, image, directives)
	if err != nil {
		return Outcome{}, err
	}

	label, chosen, err := s.Selector.Select(ctx, theme, image, set)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Label:      label,
		Image:      chosen,
		Directives: directives,
		Candidates: set.Labels(),
	}

	if s.Uploader != nil {
		res, err := media.PublishImage(ctx, s.Uploader, chosen)
		switch {
		case errors.Is(err, media.ErrUploaderDisabled):
		case err != nil:
			return Outcome{}, fmt.Errorf("vision: publish edit: %w", err)
		default:
			out.URL = res.URL
		}
	}
	return out, nil
}
