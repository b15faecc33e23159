// Package app wires configured providers into the services shared by the
// API server and the campaign CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"autocamper/internal/ads"
	"autocamper/internal/config"
	"autocamper/internal/events"
	"autocamper/internal/generation"
	"autocamper/internal/listings"
	"autocamper/internal/llm"
	"autocamper/internal/storage"
	"autocamper/internal/vision"
)

// NewLLM returns the configured language model, or an error when its key is missing.
func NewLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return llm.NewOpenAIClient(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIModel, cfg.LLM.OpenAIBaseURL, nil), nil
	case "gemini", "":
		client, err := llm.NewGeminiClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, nil)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLM.Provider)
	}
}

// NewImageProvider returns the editor and upscaler for IMAGE_PROVIDER. The
// Gemini editor has no upscaler.
func NewImageProvider(ctx context.Context, cfg config.Config) (vision.Editor, vision.Upscaler, error) {
	switch cfg.Image.Provider {
	case "stability", "":
		if cfg.Image.StabilityAPIKey == "" {
			return nil, nil, fmt.Errorf("STABILITY_API_KEY is not set")
		}
		c := vision.NewStabilityClient(cfg.Image.StabilityAPIKey, cfg.Image.StabilityBaseURL, nil)
		return c, c, nil
	case "vertex":
		if cfg.Image.VertexProjectID == "" {
			return nil, nil, fmt.Errorf("VERTEX_PROJECT_ID is not set")
		}
		v := vision.NewVertexImagen(vision.VertexImagenConfig{
			ProjectID:       cfg.Image.VertexProjectID,
			Location:        cfg.Image.VertexLocation,
			EditModel:       cfg.Image.VertexEditModel,
			UpscaleModel:    cfg.Image.VertexUpscaleModel,
			CredentialsFile: cfg.Image.CredentialsFile,
		})
		return v, v, nil
	case "gemini":
		g, err := vision.NewGeminiEditor(ctx, cfg.LLM.GeminiAPIKey, cfg.Image.GeminiImageModel, nil)
		if err != nil {
			return nil, nil, err
		}
		return g, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown IMAGE_PROVIDER %q", cfg.Image.Provider)
	}
}

func newAdsClient(ctx context.Context, cfg config.Config) *ads.Client {
	adsCfg := ads.Config{
		DeveloperToken:  cfg.Ads.DeveloperToken,
		CustomerID:      cfg.Ads.CustomerID,
		LoginCustomerID: cfg.Ads.LoginCustomerID,
		ClientID:        cfg.Ads.ClientID,
		ClientSecret:    cfg.Ads.ClientSecret,
		RefreshToken:    cfg.Ads.RefreshToken,
		APIVersion:      cfg.Ads.APIVersion,
	}
	return ads.NewClient(adsCfg, ads.TokenSource(ctx, adsCfg), nil)
}

// NewBuilder wires the campaign builder. Without a model the heuristic
// copywriter is used, and without ads credentials campaigns stay drafts.
func NewBuilder(ctx context.Context, cfg config.Config, model llm.Client, store storage.Store, pub events.Publisher, logger zerolog.Logger) *ads.Builder {
	builder := &ads.Builder{
		Copy:      generation.NewHeuristic(),
		Store:     store,
		Publisher: pub,
		SiteURL:   cfg.Listing.BaseURL,
		Locations: cfg.Ads.GeoLocations,
		Logger:    logger,
	}
	if model != nil {
		builder.Copy = generation.NewLLM(model)
	}
	if cfg.AdsEnabled() {
		client := newAdsClient(ctx, cfg)
		builder.Ads = client
		builder.Geo = ads.NewGeoResolver(client, ads.DefaultLocale, ads.DefaultCountryCode, 24*time.Hour)
		logger.Info().Str("customer_id", cfg.Ads.CustomerID).Msg("google ads ready")
	} else {
		logger.Info().Msg("google ads credentials missing: campaigns are stored as drafts")
	}
	return builder
}

// ListingLayout applies LISTING_IMAGE_PREFIX to the default venue page layout.
func ListingLayout(cfg config.Config) listings.Layout {
	l := listings.DefaultLayout()
	if cfg.Listing.ImagePrefix != "" {
		l.ImagePrefix = cfg.Listing.ImagePrefix
	}
	return l
}
