package listings

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"autocamper/internal/apperr"
)

const previewImageCount = 3

// ListingFetcher loads a venue from the listing site.
type ListingFetcher interface {
	Fetch(ctx context.Context, id string) (Listing, error)
}

// TrendSuggester proposes party themes for a venue.
type TrendSuggester interface {
	Suggest(ctx context.Context, listing Listing) ([]string, error)
}

// Handler bundles dependencies for venue endpoints.
type Handler struct {
	Fetcher ListingFetcher
	Trends  TrendSuggester
	Logger  zerolog.Logger
}

// VenueResponse is the payload of GET /venue/{id}.
type VenueResponse struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	URLs   []string `json:"urls"`
	Tags   []string `json:"tags"`
	Trends []string `json:"trends,omitempty"`
}

// Get handles GET /venue/{id}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if !ValidID(id) {
		apperr.WriteJSON(w, apperr.BadRequest("venue id must be numeric"))
		return
	}

	listing, err := h.Fetcher.Fetch(r.Context(), id)
	if err != nil {
		h.Logger.Warn().Err(err).Str("venue_id", id).Msg("listing fetch failed")
		apperr.WriteJSON(w, err)
		return
	}

	urls := listing.ImageURLs
	if len(urls) > previewImageCount {
		urls = urls[:previewImageCount]
	}

	resp := VenueResponse{
		ID:    listing.ID,
		Title: listing.Title,
		URLs:  urls,
		Tags:  listing.Tags,
	}

	if h.Trends != nil {
		if trends, err := h.Trends.Suggest(r.Context(), listing); err == nil {
			resp.Trends = trends
		} else {
			h.Logger.Warn().Err(err).Str("venue_id", id).Msg("trend suggestion failed")
		}
	}

	writeJSON(w, resp)
}

// ValidID reports whether id looks like a venue id (digits only).
func ValidID(id string) bool {
	if id == "" || len(id) > 20 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
