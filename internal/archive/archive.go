// Package archive keeps an insert-only Postgres log of every submission and
// its delivery outcome. It exists for operator visibility; the pipeline treats
// every write here as best effort.
package archive

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"lead-relay/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Delivery outcomes recorded per submission.
const (
	OutcomeDelivered   = "delivered"
	OutcomeFailed      = "failed"
	OutcomeReplayed    = "replayed"
	OutcomeReplayError = "replay_failed"
)

// Archive wraps pgxpool for Postgres persistence.
type Archive struct {
	pool *pgxpool.Pool
}

// New creates a pooled connection to Postgres.
func New(ctx context.Context, dsn string) (*Archive, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Archive{pool: pool}, nil
}

func (a *Archive) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// RunMigrations executes the embedded SQL migrations in order.
func (a *Archive) RunMigrations(ctx context.Context) error {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		content, err := migrationFiles.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		sql := strings.TrimSpace(string(content))
		if sql == "" {
			continue
		}
		if _, err := a.pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("exec migration %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Record inserts one submission row with its outcome. Replays of the same
// submission overwrite the previous outcome so the row reflects the latest
// attempt.
func (a *Archive) Record(ctx context.Context, rec models.SubmissionRecord, outcome, detail string) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO submissions (id, form_type, customer_name, customer_phone, customer_address,
		                         note, vehicle_type, product_id, product_name, product_price,
		                         traffic_source, platform, submitted_at, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET outcome = $14, detail = $15, recorded_at = NOW()
	`, rec.ID, rec.FormType, rec.CustomerName, rec.CustomerPhone, rec.CustomerAddress,
		rec.Note, rec.VehicleType, rec.ProductID, rec.ProductName, rec.ProductPrice,
		rec.TrafficSource, rec.Platform, rec.SubmittedAt, outcome, detail)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// RecentFailures lists the most recent submissions whose last outcome was a
// failure, for operator inspection.
func (a *Archive) RecentFailures(ctx context.Context, limit int) ([]models.SubmissionRecord, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT id, form_type, customer_name, customer_phone, customer_address,
		       note, vehicle_type, product_id, product_name, product_price,
		       traffic_source, platform, submitted_at
		FROM submissions
		WHERE outcome IN ($1, $2)
		ORDER BY recorded_at DESC
		LIMIT $3
	`, OutcomeFailed, OutcomeReplayError, limit)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []models.SubmissionRecord
	for rows.Next() {
		var rec models.SubmissionRecord
		if err := rows.Scan(&rec.ID, &rec.FormType, &rec.CustomerName, &rec.CustomerPhone, &rec.CustomerAddress,
			&rec.Note, &rec.VehicleType, &rec.ProductID, &rec.ProductName, &rec.ProductPrice,
			&rec.TrafficSource, &rec.Platform, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
