package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that a campaign could not be located in the backing store.
var ErrNotFound = errors.New("campaign not found")

// CampaignStatus tracks how far campaign creation got.
type CampaignStatus string

const (
	StatusPending   CampaignStatus = "pending"
	StatusCompleted CampaignStatus = "completed"
	StatusFailed    CampaignStatus = "failed"
	// StatusDraft marks copy generated without ads API credentials.
	StatusDraft CampaignStatus = "draft"
)

// Resource is one ads resource created for a campaign, in creation order.
type Resource struct {
	Step string `json:"step"`
	Name string `json:"name"`
}

// Campaign is the ledger entry for one ad campaign creation run. Resources
// are recorded as soon as they exist so a failed run shows what is left behind.
type Campaign struct {
	ID           string         `json:"id"`
	VenueID      string         `json:"venue_id"`
	Theme        string         `json:"theme"`
	BudgetYen    int64          `json:"budget_yen"`
	Status       CampaignStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	Headlines    []string       `json:"headlines"`
	Descriptions []string       `json:"descriptions"`
	Keywords     []string       `json:"keywords"`
	Resources    []Resource     `json:"resources"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Store defines the persistence behaviors the application relies on.
type Store interface {
	CreateCampaign(ctx context.Context, input Campaign) (Campaign, error)
	UpdateCampaign(ctx context.Context, c Campaign) (Campaign, error)
	GetCampaign(ctx context.Context, id string) (Campaign, error)
	ListCampaigns(ctx context.Context, venueID string) ([]Campaign, error)
	Close()
}

// NewStore selects a backing store based on whether a database URL is provided.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return NewInMemoryStore(), nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS campaigns (
        id TEXT PRIMARY KEY,
        venue_id TEXT NOT NULL,
        theme TEXT NOT NULL,
        budget_yen BIGINT NOT NULL,
        status TEXT NOT NULL,
        error TEXT NOT NULL DEFAULT '',
        headlines TEXT[],
        descriptions TEXT[],
        keywords TEXT[],
        resources JSONB DEFAULT '[]'::jsonb,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`)
	if err != nil {
		return fmt.Errorf("create campaigns table: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS campaigns_venue_idx ON campaigns (venue_id, created_at DESC)`); err != nil {
		return fmt.Errorf("create campaigns index: %w", err)
	}
	return nil
}

func prepare(c Campaign, now time.Time) Campaign {
	if c.Status == "" {
		c.Status = StatusPending
	}
	if c.Resources == nil {
		c.Resources = []Resource{}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return c
}
