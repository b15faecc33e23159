package ads

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"autocamper/internal/apperr"
	"autocamper/internal/listings"
	"autocamper/internal/storage"
)

// Handler exposes campaign generation over HTTP.
type Handler struct {
	Builder *Builder
	Venues  listings.ListingFetcher
	Logger  zerolog.Logger
}

// DefaultBudgetYen is the daily budget used when the request names none.
const DefaultBudgetYen = 500

type campaignRequest struct {
	VenueID string   `json:"venueid"`
	Tags    []string `json:"tags"`
	Trend   string   `json:"trend"`
	Budget  int64    `json:"budget"`
}

// CampaignResponse is the payload of /gen-campaign.
type CampaignResponse struct {
	CampaignID   string             `json:"campaign_id"`
	Status       string             `json:"status"`
	Headlines    []string           `json:"headlines"`
	Descriptions []string           `json:"descriptions"`
	Keywords     []string           `json:"keywords"`
	Resources    []storage.Resource `json:"resources"`
}

// Generate handles GET and POST /gen-campaign. The parameters come from a
// JSON body, or from the query string when the body is empty.
func (h Handler) Generate(w http.ResponseWriter, r *http.Request) {
	req, err := parseCampaignRequest(w, r)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	if !listings.ValidID(req.VenueID) {
		apperr.WriteJSON(w, apperr.BadRequest("venueid must be numeric"))
		return
	}

	in := CampaignInput{
		VenueID:   req.VenueID,
		Tags:      req.Tags,
		Theme:     strings.TrimSpace(req.Trend),
		BudgetYen: req.Budget,
	}
	if h.Venues != nil {
		if listing, err := h.Venues.Fetch(r.Context(), req.VenueID); err == nil {
			in.Title = listing.Title
			if len(in.Tags) == 0 {
				in.Tags = listing.Tags
			}
		} else {
			h.Logger.Warn().Err(err).Str("venue_id", req.VenueID).Msg("venue lookup failed, using request tags")
		}
	}

	campaign, err := h.Builder.Create(r.Context(), in)
	if err != nil {
		h.Logger.Warn().Err(err).Str("venue_id", req.VenueID).Str("campaign_id", campaign.ID).Msg("campaign generation failed")
		apperr.WriteJSON(w, err)
		return
	}

	writeJSON(w, CampaignResponse{
		CampaignID:   campaign.ID,
		Status:       string(campaign.Status),
		Headlines:    campaign.Headlines,
		Descriptions: campaign.Descriptions,
		Keywords:     campaign.Keywords,
		Resources:    campaign.Resources,
	})
}

func parseCampaignRequest(w http.ResponseWriter, r *http.Request) (campaignRequest, error) {
	var req campaignRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			return req, apperr.BadRequest("invalid request body: %v", err)
		}
	} else {
		q := r.URL.Query()
		req.VenueID = q.Get("venueid")
		req.Trend = q.Get("trend")
		for _, t := range strings.Split(q.Get("tags"), ",") {
			if t = strings.TrimSpace(t); t != "" {
				req.Tags = append(req.Tags, t)
			}
		}
		if raw := q.Get("budget"); raw != "" {
			budget, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return req, apperr.BadRequest("budget must be an integer")
			}
			req.Budget = budget
		}
	}
	req.VenueID = strings.TrimSpace(req.VenueID)
	if req.Budget == 0 {
		req.Budget = DefaultBudgetYen
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
