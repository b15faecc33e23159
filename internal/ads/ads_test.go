package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"autocamper/internal/apperr"
	"autocamper/internal/generation"
	"autocamper/internal/listings"
	"autocamper/internal/storage"
)

// fakeAds mimics the REST surface: every mutate returns one resource name per operation.
type fakeAds struct {
	t        *testing.T
	mu       sync.Mutex
	failOn   string
	requests []recorded
	suggests int
}

type recorded struct {
	resource string
	body     map[string]any
}

func (f *fakeAds) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "Bearer test-token", r.Header.Get("Authorization"))
	assert.Equal(f.t, "dev-token", r.Header.Get("developer-token"))
	assert.Equal(f.t, "999", r.Header.Get("login-customer-id"))

	var body map[string]any
	if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body)) {
		return
	}

	if r.URL.Path == "/v17/geoTargetConstants:suggest" {
		f.mu.Lock()
		f.suggests++
		f.mu.Unlock()
		assert.Equal(f.t, "ja", body["locale"])
		assert.Equal(f.t, "JP", body["countryCode"])
		_, _ = fmt.Fprint(w, `{"geoTargetConstantSuggestions":[
			{"geoTargetConstant":{"resourceName":"geoTargetConstants/1009297"}},
			{"geoTargetConstant":{"resourceName":"geoTargetConstants/1009297"}},
			{"geoTargetConstant":{"resourceName":"geoTargetConstants/1009540"}},
			{"geoTargetConstant":{"resourceName":"geoTargetConstants/20636"}}]}`)
		return
	}

	prefix := "/v17/customers/123/"
	if !assert.True(f.t, strings.HasPrefix(r.URL.Path, prefix), r.URL.Path) {
		return
	}
	resource := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, prefix), ":mutate")

	f.mu.Lock()
	f.requests = append(f.requests, recorded{resource: resource, body: body})
	f.mu.Unlock()

	if resource == f.failOn {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, `{"error":{"code":400,"message":"Request contains an invalid argument.","status":"INVALID_ARGUMENT"}}`)
		return
	}

	ops := body["operations"].([]any)
	results := make([]map[string]string, len(ops))
	for i := range ops {
		results[i] = map[string]string{"resourceName": fmt.Sprintf("customers/123/%s/%d", resource, i+1)}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
}

func (f *fakeAds) resources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.resource
	}
	return out
}

func (f *fakeAds) create(resource string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.resource == resource {
			return r.body["operations"].([]any)[0].(map[string]any)["create"].(map[string]any)
		}
	}
	return nil
}

func newTestBuilder(t *testing.T, fake *fakeAds) (*Builder, *storage.InMemoryStore) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		DeveloperToken:  "dev-token",
		CustomerID:      "123",
		LoginCustomerID: "999",
		BaseURL:         srv.URL,
	}, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}), srv.Client())

	store := storage.NewInMemoryStore()
	return &Builder{
		Ads:     client,
		Geo:     NewGeoResolver(client, "", "", time.Minute),
		Copy:    generation.NewHeuristic(),
		Store:   store,
		SiteURL: "https://www.instabase.jp",
		Logger:  zerolog.Nop(),
	}, store
}

func TestBuilderCreatesResourcesInOrder(t *testing.T) {
	fake := &fakeAds{t: t}
	b, store := newTestBuilder(t, fake)

	campaign, err := b.Create(context.Background(), CampaignInput{
		VenueID: "1234511267", Title: "Rooftop", Tags: []string{"パーティー"}, Theme: "Pizza Party", BudgetYen: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"campaignBudgets", "campaigns", "adGroups", "adGroupAds", "adGroupCriteria", "campaignCriteria"}, fake.resources())
	assert.Equal(t, storage.StatusCompleted, campaign.Status)

	budget := fake.create("campaignBudgets")
	assert.Equal(t, "500000000", budget["amountMicros"])
	assert.Equal(t, "STANDARD", budget["deliveryMethod"])
	assert.True(t, strings.HasPrefix(budget["name"].(string), "Campaign budget for 1234511267 "))

	camp := fake.create("campaigns")
	assert.Equal(t, "PAUSED", camp["status"])
	assert.Equal(t, "SEARCH", camp["advertisingChannelType"])
	assert.Equal(t, "customers/123/campaignBudgets/1", camp["campaignBudget"])
	assert.Equal(t, map[string]any{}, camp["targetSpend"])

	ad := fake.create("adGroupAds")["ad"].(map[string]any)
	assert.Equal(t, []any{"https://www.instabase.jp/space/1234511267"}, ad["finalUrls"])
	headlines := ad["responsiveSearchAd"].(map[string]any)["headlines"].([]any)
	require.Len(t, headlines, 3)
	assert.Equal(t, "HEADLINE_1", headlines[0].(map[string]any)["pinnedField"])
	assert.Nil(t, headlines[1].(map[string]any)["pinnedField"])

	keyword := fake.create("adGroupCriteria")["keyword"].(map[string]any)
	assert.Equal(t, "BROAD", keyword["matchType"])

	// 1 budget + 1 campaign + 1 ad group + 1 ad + 10 keywords + 3 distinct locations
	assert.Len(t, campaign.Resources, 17)
	stored, err := store.GetCampaign(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.Resources, stored.Resources)
	assert.Len(t, stored.Keywords, 10)
}

func TestBuilderRecordsPartialFailure(t *testing.T) {
	fake := &fakeAds{t: t, failOn: "adGroups"}
	b, store := newTestBuilder(t, fake)

	campaign, err := b.Create(context.Background(), CampaignInput{VenueID: "42", Theme: "Halloween", BudgetYen: 1000})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "invalid argument")

	stored, getErr := store.GetCampaign(context.Background(), campaign.ID)
	require.NoError(t, getErr)
	assert.Equal(t, storage.StatusFailed, stored.Status)
	assert.Equal(t, []storage.Resource{
		{Step: "budget", Name: "customers/123/campaignBudgets/1"},
		{Step: "campaign", Name: "customers/123/campaigns/1"},
	}, stored.Resources, "no rollback: earlier resources stay recorded")
	assert.NotEmpty(t, stored.Error)
}

func TestBuilderDraftWithoutAds(t *testing.T) {
	store := storage.NewInMemoryStore()
	b := &Builder{Copy: generation.NewHeuristic(), Store: store, Logger: zerolog.Nop()}

	campaign, err := b.Create(context.Background(), CampaignInput{VenueID: "42", Theme: "Halloween", BudgetYen: 500})
	require.NoError(t, err)
	assert.Equal(t, storage.StatusDraft, campaign.Status)
	assert.Empty(t, campaign.Resources)

	_, err = b.Create(context.Background(), CampaignInput{VenueID: "42", BudgetYen: -1})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestGeoResolverCaches(t *testing.T) {
	fake := &fakeAds{t: t}
	b, _ := newTestBuilder(t, fake)

	for i := 0; i < 3; i++ {
		targets, err := b.Geo.Resolve(context.Background(), []string{"Tokyo", " osaka", "Chiba"})
		require.NoError(t, err)
		assert.Equal(t, []string{"geoTargetConstants/1009297", "geoTargetConstants/1009540", "geoTargetConstants/20636"}, targets)
	}
	assert.Equal(t, 1, fake.suggests)
}

type fixedVenue struct{}

func (fixedVenue) Fetch(_ context.Context, id string) (listings.Listing, error) {
	return listings.Listing{ID: id, Title: "Rooftop", Tags: []string{"パーティー", "撮影"}}, nil
}

func TestHandlerGenerate(t *testing.T) {
	store := storage.NewInMemoryStore()
	h := Handler{
		Builder: &Builder{Copy: generation.NewHeuristic(), Store: store, Logger: zerolog.Nop()},
		Venues:  fixedVenue{},
		Logger:  zerolog.Nop(),
	}
	r := chi.NewRouter()
	r.Get("/gen-campaign", h.Generate)
	r.Post("/gen-campaign", h.Generate)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gen-campaign", strings.NewReader(`{"venueid":"1234511267","tags":["Party"],"trend":"Pizza Party","budget":500}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CampaignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Headlines, 3)
	assert.Len(t, resp.Descriptions, 2)
	assert.Len(t, resp.Keywords, 10)
	assert.Equal(t, "draft", resp.Status)
	assert.Contains(t, resp.Headlines[0], "Rooftop")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gen-campaign?venueid=42&tags=a,b&trend=Halloween", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	list, _ := store.ListCampaigns(context.Background(), "42")
	require.Len(t, list, 1)
	assert.Equal(t, int64(DefaultBudgetYen), list[0].BudgetYen)

	for _, target := range []string{"/gen-campaign?venueid=abc", "/gen-campaign?venueid=1&budget=lots"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gen-campaign", strings.NewReader(`{"venueid":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
