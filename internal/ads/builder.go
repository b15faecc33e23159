package ads

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"autocamper/internal/apperr"
	"autocamper/internal/events"
	"autocamper/internal/generation"
	"autocamper/internal/storage"
)

// Mutator is the part of Client the builder needs.
type Mutator interface {
	Mutate(ctx context.Context, resource string, ops []Operation) ([]string, error)
}

// CampaignInput describes the campaign to create.
type CampaignInput struct {
	VenueID   string
	Title     string
	Tags      []string
	Theme     string
	BudgetYen int64
}

// Builder writes ad copy and creates the campaign resources in order:
// budget, campaign, ad group, ad, keywords, location criteria.
type Builder struct {
	Ads       Mutator
	Geo       GeoResolver
	Copy      generation.Copywriter
	Store     storage.Store
	Publisher events.Publisher
	SiteURL   string
	Locations []string
	Logger    zerolog.Logger
}

// run tracks one creation and mirrors progress into the ledger.
type run struct {
	b        *Builder
	campaign storage.Campaign
	reqID    string
}

// Create runs the whole sequence. Nothing is rolled back on failure: the
// returned campaign (also in the ledger) lists every resource that exists.
func (b *Builder) Create(ctx context.Context, in CampaignInput) (storage.Campaign, error) {
	if strings.TrimSpace(in.VenueID) == "" {
		return storage.Campaign{}, apperr.BadRequest("venue id is required")
	}
	if in.BudgetYen <= 0 {
		return storage.Campaign{}, apperr.BadRequest("budget must be a positive number of yen")
	}

	campaign, err := b.Store.CreateCampaign(ctx, storage.Campaign{
		VenueID:   in.VenueID,
		Theme:     in.Theme,
		BudgetYen: in.BudgetYen,
		Status:    storage.StatusPending,
	})
	if err != nil {
		return storage.Campaign{}, fmt.Errorf("ads: record campaign: %w", err)
	}
	r := &run{b: b, campaign: campaign, reqID: middleware.GetReqID(ctx)}

	adCopy, err := b.Copy.Write(ctx, generation.Brief{
		VenueID: in.VenueID,
		Title:   in.Title,
		Tags:    in.Tags,
		Theme:   in.Theme,
	})
	if err != nil {
		return r.fail(ctx, "copy", err)
	}
	r.campaign.Headlines = adCopy.Headlines
	r.campaign.Descriptions = adCopy.Descriptions
	r.campaign.Keywords = adCopy.Keywords
	r.save(ctx)
	r.publish("copy", "", "ad copy ready")

	if b.Ads == nil {
		r.campaign.Status = storage.StatusDraft
		r.save(ctx)
		r.publish("draft", "", "ads api not configured")
		return r.campaign, nil
	}

	if err := r.createResources(ctx, in); err != nil {
		return r.fail(ctx, "resources", err)
	}

	r.campaign.Status = storage.StatusCompleted
	r.save(ctx)
	r.publish("completed", "", "")
	b.Logger.Info().Str("campaign_id", r.campaign.ID).Str("venue_id", in.VenueID).Int("resources", len(r.campaign.Resources)).Msg("campaign created")
	return r.campaign, nil
}

func (r *run) createResources(ctx context.Context, in CampaignInput) error {
	b := r.b
	suffix := uuid.NewString()[:8]

	budget, err := r.mutateOne(ctx, "budget", "campaignBudgets", map[string]any{
		"name":           fmt.Sprintf("Campaign budget for %s %s", in.VenueID, suffix),
		"deliveryMethod": "STANDARD",
		"amountMicros":   strconv.FormatInt(in.BudgetYen*1_000_000, 10),
	})
	if err != nil {
		return err
	}

	campaign, err := r.mutateOne(ctx, "campaign", "campaigns", map[string]any{
		"name":                   fmt.Sprintf("Campaign for %s %s", in.VenueID, suffix),
		"advertisingChannelType": "SEARCH",
		"status":                 "PAUSED",
		"targetSpend":            map[string]any{},
		"campaignBudget":         budget,
		"networkSettings": map[string]any{
			"targetGoogleSearch":         true,
			"targetSearchNetwork":        true,
			"targetPartnerSearchNetwork": false,
			"targetContentNetwork":       true,
		},
	})
	if err != nil {
		return err
	}

	adGroup, err := r.mutateOne(ctx, "ad_group", "adGroups", map[string]any{
		"name":     fmt.Sprintf("Adgroup for %s %s", in.VenueID, suffix),
		"campaign": campaign,
		"status":   "ENABLED",
		"type":     "SEARCH_STANDARD",
	})
	if err != nil {
		return err
	}

	if _, err := r.mutateOne(ctx, "ad", "adGroupAds", map[string]any{
		"adGroup": adGroup,
		"status":  "ENABLED",
		"ad": map[string]any{
			"finalUrls":          []string{r.finalURL(in.VenueID)},
			"responsiveSearchAd": responsiveSearchAd(r.campaign.Headlines, r.campaign.Descriptions),
		},
	}); err != nil {
		return err
	}

	keywordOps := make([]Operation, 0, len(r.campaign.Keywords))
	for _, kw := range r.campaign.Keywords {
		keywordOps = append(keywordOps, Operation{Create: map[string]any{
			"adGroup": adGroup,
			"status":  "ENABLED",
			"keyword": map[string]any{"text": kw, "matchType": "BROAD"},
		}})
	}
	if err := r.mutate(ctx, "keyword", "adGroupCriteria", keywordOps); err != nil {
		return err
	}

	locations := b.Locations
	if len(locations) == 0 {
		locations = DefaultLocations
	}
	targets, err := b.Geo.Resolve(ctx, locations)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("ads: no geo targets found for %s", strings.Join(locations, ", "))
	}
	geoOps := make([]Operation, 0, len(targets))
	for _, t := range targets {
		geoOps = append(geoOps, Operation{Create: map[string]any{
			"campaign": campaign,
			"location": map[string]any{"geoTargetConstant": t},
		}})
	}
	return r.mutate(ctx, "location", "campaignCriteria", geoOps)
}

func responsiveSearchAd(headlines, descriptions []string) map[string]any {
	hs := make([]map[string]any, 0, len(headlines))
	for i, h := range headlines {
		asset := map[string]any{"text": h}
		if i == 0 {
			asset["pinnedField"] = "HEADLINE_1"
		}
		hs = append(hs, asset)
	}
	ds := make([]map[string]any, 0, len(descriptions))
	for _, d := range descriptions {
		ds = append(ds, map[string]any{"text": d})
	}
	return map[string]any{"headlines": hs, "descriptions": ds}
}

func (r *run) finalURL(venueID string) string {
	site := strings.TrimSuffix(r.b.SiteURL, "/")
	if site == "" {
		site = "https://www.instabase.jp"
	}
	return site + "/space/" + venueID
}

func (r *run) mutateOne(ctx context.Context, step, resource string, create map[string]any) (string, error) {
	names, err := r.b.Ads.Mutate(ctx, resource, []Operation{{Create: create}})
	r.record(ctx, step, names)
	if err != nil {
		return "", err
	}
	return names[0], nil
}

func (r *run) mutate(ctx context.Context, step, resource string, ops []Operation) error {
	names, err := r.b.Ads.Mutate(ctx, resource, ops)
	r.record(ctx, step, names)
	return err
}

func (r *run) record(ctx context.Context, step string, names []string) {
	if len(names) == 0 {
		return
	}
	for _, n := range names {
		r.campaign.Resources = append(r.campaign.Resources, storage.Resource{Step: step, Name: n})
	}
	r.save(ctx)
	r.publish(step, names[0], fmt.Sprintf("%d created", len(names)))
}

func (r *run) fail(ctx context.Context, stage string, err error) (storage.Campaign, error) {
	r.campaign.Status = storage.StatusFailed
	r.campaign.Error = err.Error()
	r.save(context.WithoutCancel(ctx))
	r.publish("failed", "", stage+": "+err.Error())
	r.b.Logger.Warn().Err(err).Str("campaign_id", r.campaign.ID).Str("stage", stage).
		Int("resources", len(r.campaign.Resources)).Msg("campaign creation stopped")
	return r.campaign, err
}

func (r *run) save(ctx context.Context) {
	updated, err := r.b.Store.UpdateCampaign(ctx, r.campaign)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.b.Logger.Error().Err(err).Str("campaign_id", r.campaign.ID).Msg("ledger update failed")
		}
		return
	}
	r.campaign = updated
}

func (r *run) publish(stage, label, detail string) {
	if r.b.Publisher == nil {
		return
	}
	r.b.Publisher.Publish(events.Event{
		Kind:      "campaign",
		RequestID: r.reqID,
		Stage:     stage,
		Label:     label,
		Detail:    detail,
	})
}
