// Package records reads the lead identity shown next to the scorecard.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/odyssey-erp/lead-insights/internal/shared"
)

// LeadRecord is the read-only display record for a lead.
type LeadRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Status  string `json:"status"`
	Rating  string `json:"rating"`
}

// Repository loads lead records from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository wires the repository to a database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const leadQuery = `SELECT id, name, company, status, rating FROM leads WHERE id = $1`

// Lead returns the record for id, or shared.ErrNotFound.
func (r *Repository) Lead(ctx context.Context, id string) (LeadRecord, error) {
	if r == nil || r.db == nil {
		return LeadRecord{}, fmt.Errorf("records: %w", shared.ErrUnavailable)
	}
	var (
		rec                            LeadRecord
		name, company, status, rating sql.NullString
	)
	err := r.db.QueryRowContext(ctx, leadQuery, id).Scan(&rec.ID, &name, &company, &status, &rating)
	if errors.Is(err, sql.ErrNoRows) {
		return LeadRecord{}, fmt.Errorf("records: lead %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return LeadRecord{}, fmt.Errorf("records: lead %s: %w", id, err)
	}
	rec.Name = name.String
	rec.Company = company.String
	rec.Status = status.String
	rec.Rating = rating.String
	return rec, nil
}
