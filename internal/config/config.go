package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration values.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	Listing     ListingConfig
	LLM         LLMConfig
	Image       ImageConfig
	Ads         AdsConfig
	Media       MediaConfig
	HTTP        HTTPConfig
}

// ListingConfig points the scraper at the venue site.
type ListingConfig struct {
	BaseURL     string
	ImagePrefix string
}

// LLMConfig selects and configures the language-model provider.
type LLMConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
}

// ImageConfig selects the image editing/upscaling provider.
type ImageConfig struct {
	Provider           string
	StabilityAPIKey    string
	StabilityBaseURL   string
	VertexProjectID    string
	VertexLocation     string
	VertexEditModel    string
	VertexUpscaleModel string
	GeminiImageModel   string
	CredentialsFile    string
	Rounds             int
}

// AdsConfig carries Google Ads API credentials.
type AdsConfig struct {
	DeveloperToken  string
	CustomerID      string
	LoginCustomerID string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	APIVersion      string
	GeoLocations    []string
}

// MediaConfig describes S3/media related configuration.
type MediaConfig struct {
	Bucket         string
	Region         string
	Endpoint       string
	PublicURL      string
	KeyPrefix      string
	ForcePathStyle bool
	LocalDir       string
}

// HTTPConfig holds server timeouts.
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AllowedOrigins lists CORS origins. "*" allows any origin.
	AllowedOrigins []string
}

// FromEnv loads configuration from environment variables and applies defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		AppEnv:      getenv("APP_ENV", "development"),
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Listing: ListingConfig{
			BaseURL:     strings.TrimSuffix(getenv("LISTING_BASE_URL", "https://www.instabase.jp"), "/"),
			ImagePrefix: os.Getenv("LISTING_IMAGE_PREFIX"),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(getenv("LLM_PROVIDER", "gemini")),
			GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
			GeminiModel:   os.Getenv("GEMINI_MODEL"),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4o"),
			OpenAIBaseURL: getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
		Image: ImageConfig{
			Provider:           strings.ToLower(getenv("IMAGE_PROVIDER", "stability")),
			StabilityAPIKey:    os.Getenv("STABILITY_API_KEY"),
			StabilityBaseURL:   getenv("STABILITY_BASE_URL", "https://api.stability.ai"),
			VertexProjectID:    os.Getenv("VERTEX_PROJECT_ID"),
			VertexLocation:     getenv("VERTEX_LOCATION", "us-central1"),
			VertexEditModel:    getenv("VERTEX_EDIT_MODEL", "imagegeneration@006"),
			VertexUpscaleModel: getenv("VERTEX_UPSCALE_MODEL", "imagegeneration@002"),
			GeminiImageModel:   os.Getenv("GEMINI_IMAGE_MODEL"),
			CredentialsFile:    os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			Rounds:             getenvInt("EDIT_ROUNDS", 2),
		},
		Ads: AdsConfig{
			DeveloperToken:  os.Getenv("ADS_DEVELOPER_TOKEN"),
			CustomerID:      digitsOnly(os.Getenv("ADS_CUSTOMER_ID")),
			LoginCustomerID: digitsOnly(os.Getenv("ADS_LOGIN_CUSTOMER_ID")),
			ClientID:        os.Getenv("ADS_CLIENT_ID"),
			ClientSecret:    os.Getenv("ADS_CLIENT_SECRET"),
			RefreshToken:    os.Getenv("ADS_REFRESH_TOKEN"),
			APIVersion:      getenv("ADS_API_VERSION", "v17"),
			GeoLocations:    splitList(getenv("ADS_GEO_LOCATIONS", "Tokyo,Osaka,Chiba")),
		},
		Media: MediaConfig{
			Bucket:         os.Getenv("S3_BUCKET"),
			Region:         os.Getenv("S3_REGION"),
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicURL:      os.Getenv("S3_PUBLIC_URL"),
			KeyPrefix:      strings.Trim(os.Getenv("S3_KEY_PREFIX"), "/"),
			ForcePathStyle: getenvBool("S3_FORCE_PATH_STYLE", false),
			LocalDir:       os.Getenv("MEDIA_LOCAL_DIR"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    time.Duration(getenvInt("HTTP_READ_TIMEOUT_SECONDS", 15)) * time.Second,
			WriteTimeout:   time.Duration(getenvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)) * time.Second,
			IdleTimeout:    time.Duration(getenvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)) * time.Second,
			AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		},
	}

	if strings.TrimSpace(cfg.Port) == "" {
		return Config{}, errors.New("APP_PORT cannot be empty")
	}

	return cfg, nil
}

// EditRounds returns the number of chained edit rounds, which is 2 or 3.
func (c Config) EditRounds() int {
	if c.Image.Rounds >= 3 {
		return 3
	}
	return 2
}

// AdsEnabled reports whether enough credentials exist to call the ads API.
func (c Config) AdsEnabled() bool {
	a := c.Ads
	return a.DeveloperToken != "" && a.CustomerID != "" && a.ClientID != "" && a.ClientSecret != "" && a.RefreshToken != ""
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func getenvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}

	return parsed
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}

	return parsed
}

func splitList(raw string) []string {
	chunks := strings.Split(raw, ",")
	values := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// digitsOnly strips the dashes customers copy from the ads UI (123-456-7890).
func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
