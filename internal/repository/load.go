package repository

import (
	"context"
	"fmt"

	"github.com/majorload/majorload/internal/model"
)

const loadColumns = `id, load_number, company, origin_city, origin_state,
	destination_city, destination_state, pickup_date, price, distance,
	weight, equipment, commodity, special_instructions, contact_phone,
	premium, posted_by, created_at`

// CreateLoad inserts a new load posting.
func (r *Repository) CreateLoad(ctx context.Context, load *model.Load) error {
	query := `
		INSERT INTO loads (
			id, load_number, company, origin_city, origin_state,
			destination_city, destination_state, pickup_date, price, distance,
			weight, equipment, commodity, special_instructions, contact_phone,
			premium, posted_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.pool.Exec(ctx, query,
		load.ID,
		load.LoadNumber,
		load.Company,
		load.OriginCity,
		load.OriginState,
		load.DestinationCity,
		load.DestinationState,
		load.PickupDate,
		load.Price,
		load.Distance,
		load.Weight,
		load.Equipment,
		load.Commodity,
		load.SpecialInstructions,
		load.ContactPhone,
		load.Premium,
		load.PostedBy,
		load.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create load: %w", err)
	}

	return nil
}

// ListLoads returns load postings newest first. When premiumOnly is true,
// only premium-tier postings are returned; otherwise only the public board.
func (r *Repository) ListLoads(ctx context.Context, premiumOnly bool, limit int) ([]*model.Load, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + loadColumns + `
		FROM loads
		WHERE premium = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, premiumOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	defer rows.Close()

	var loads []*model.Load
	for rows.Next() {
		var load model.Load
		err := rows.Scan(
			&load.ID,
			&load.LoadNumber,
			&load.Company,
			&load.OriginCity,
			&load.OriginState,
			&load.DestinationCity,
			&load.DestinationState,
			&load.PickupDate,
			&load.Price,
			&load.Distance,
			&load.Weight,
			&load.Equipment,
			&load.Commodity,
			&load.SpecialInstructions,
			&load.ContactPhone,
			&load.Premium,
			&load.PostedBy,
			&load.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		loads = append(loads, &load)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loads: %w", err)
	}

	return loads, nil
}
