package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"autocamper/internal/apperr"
	"autocamper/internal/imgutil"
	"autocamper/internal/llm"
)

// maxBodyBytes bounds base64 image request bodies.
const maxBodyBytes = 32 << 20

// ThemeApplier is the part of Service used by the edit handler.
type ThemeApplier interface {
	ApplyTheme(ctx context.Context, theme string, image []byte) (Outcome, error)
}

// Handler exposes the edit and upscale endpoints.
type Handler struct {
	Themes   ThemeApplier
	Upscaler Upscaler
	Logger   zerolog.Logger
}

type editRequest struct {
	Images string `json:"images"`
	Trend  string `json:"trend"`
	Model  string `json:"model,omitempty"`
}

// EditResponse is the payload of POST /edit.
type EditResponse struct {
	Image string `json:"image"`
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}

// Edit handles POST /edit.
func (h Handler) Edit(w http.ResponseWriter, r *http.Request) {
	if h.Themes == nil {
		apperr.WriteJSON(w, fmt.Errorf("%w: image editing inactive", apperr.ErrUnavailable))
		return
	}

	var req editRequest
	if err := decodeBody(w, r, &req); err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	theme := strings.TrimSpace(req.Trend)
	if theme == "" {
		apperr.WriteJSON(w, apperr.BadRequest("trend is required"))
		return
	}
	image, err := decodeImage(req.Images)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	ctx := llm.WithModel(r.Context(), req.Model)
	outcome, err := h.Themes.ApplyTheme(ctx, theme, image)
	if err != nil {
		h.Logger.Warn().Err(err).Str("theme", theme).Str("kind", apperr.Kind(err)).Msg("edit failed")
		apperr.WriteJSON(w, err)
		return
	}

	h.Logger.Info().Str("theme", theme).Str("label", outcome.Label).Strs("candidates", outcome.Candidates).Msg("edit selected")
	writeJSON(w, EditResponse{
		Image: imgutil.EncodeBase64(outcome.Image),
		Label: outcome.Label,
		URL:   outcome.URL,
	})
}

// Upscale handles POST /upscale.
func (h Handler) Upscale(w http.ResponseWriter, r *http.Request) {
	if h.Upscaler == nil {
		apperr.WriteJSON(w, fmt.Errorf("%w: upscaling inactive", apperr.ErrUnavailable))
		return
	}

	var req editRequest
	if err := decodeBody(w, r, &req); err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	image, err := decodeImage(req.Images)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	out, err := h.Upscaler.Upscale(r.Context(), image)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("upscale failed")
		apperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, map[string]string{"image": imgutil.EncodeBase64(out)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.BadRequest("invalid request body: %v", err)
	}
	return nil
}

func decodeImage(raw string) ([]byte, error) {
	data, err := imgutil.DecodeBase64(raw)
	if err != nil {
		return nil, apperr.BadRequest("images: %v", err)
	}
	data, _, err = imgutil.Normalize(data)
	if err != nil {
		return nil, apperr.BadRequest("images: %v", err)
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
