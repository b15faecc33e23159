package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const campaignColumns = `id, venue_id, theme, budget_yen, status, error, headlines, descriptions, keywords, resources, created_at, updated_at`

// PostgresStore persists campaigns in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// CreateCampaign stores the provided campaign in PostgreSQL.
func (s *PostgresStore) CreateCampaign(ctx context.Context, input Campaign) (Campaign, error) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	input = prepare(input, time.Now())

	resources, err := json.Marshal(input.Resources)
	if err != nil {
		return Campaign{}, fmt.Errorf("encode resources: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		input.ID, input.VenueID, input.Theme, input.BudgetYen, string(input.Status), input.Error,
		input.Headlines, input.Descriptions, input.Keywords, resources, input.CreatedAt, input.UpdatedAt); err != nil {
		return Campaign{}, fmt.Errorf("insert campaign: %w", err)
	}
	return input, nil
}

// UpdateCampaign writes status, error, copy and resources back.
func (s *PostgresStore) UpdateCampaign(ctx context.Context, c Campaign) (Campaign, error) {
	c = prepare(c, time.Now())
	resources, err := json.Marshal(c.Resources)
	if err != nil {
		return Campaign{}, fmt.Errorf("encode resources: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE campaigns SET status = $2, error = $3, headlines = $4, descriptions = $5, keywords = $6, resources = $7, updated_at = $8
         WHERE id = $1 RETURNING `+campaignColumns,
		c.ID, string(c.Status), c.Error, c.Headlines, c.Descriptions, c.Keywords, resources, c.UpdatedAt)
	return scanCampaign(row)
}

// GetCampaign returns a campaign by ID.
func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	return scanCampaign(row)
}

// ListCampaigns returns the 50 most recent campaigns, optionally for one venue.
func (s *PostgresStore) ListCampaigns(ctx context.Context, venueID string) ([]Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE ($1 = '' OR venue_id = $1) ORDER BY created_at DESC LIMIT 50`,
		venueID)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	return campaigns, nil
}

// Close releases database resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func scanCampaign(row pgx.Row) (Campaign, error) {
	var (
		c         Campaign
		status    string
		resources []byte
	)
	err := row.Scan(&c.ID, &c.VenueID, &c.Theme, &c.BudgetYen, &status, &c.Error,
		&c.Headlines, &c.Descriptions, &c.Keywords, &resources, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("scan campaign: %w", err)
	}
	c.Status = CampaignStatus(status)
	if len(resources) > 0 {
		if err := json.Unmarshal(resources, &c.Resources); err != nil {
			return Campaign{}, fmt.Errorf("decode resources: %w", err)
		}
	}
	return c, nil
}
