package storage

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"autocamper/internal/apperr"
)

// Handler exposes the campaign ledger over HTTP.
type Handler struct {
	Store  Store
	Logger zerolog.Logger
}

// List handles GET /campaigns?venue=<id>.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	venueID := strings.TrimSpace(r.URL.Query().Get("venue"))
	campaigns, err := h.Store.ListCampaigns(r.Context(), venueID)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list campaigns failed")
		apperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, campaigns)
}

// Get handles GET /campaigns/{id}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	campaign, err := h.Store.GetCampaign(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "kind": "not_found"})
		return
	}
	if err != nil {
		h.Logger.Error().Err(err).Str("campaign_id", id).Msg("get campaign failed")
		apperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, campaign)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
