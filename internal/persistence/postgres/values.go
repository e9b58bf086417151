package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/tug/internal/domain"
)

const valueColumns = `value_id, owner_id, name, color, importance, description, created_at, updated_at`

// ValueRepository provides Postgres-backed persistence for value definitions.
type ValueRepository struct {
	pool *pgxpool.Pool
}

// NewValueRepository constructs a ValueRepository.
func NewValueRepository(pool *pgxpool.Pool) *ValueRepository {
	return &ValueRepository{pool: pool}
}

// Create persists a new value definition.
func (r *ValueRepository) Create(ctx context.Context, value domain.Value) error {
	const stmt = `INSERT INTO value_defs (value_id, owner_id, name, color, importance, description, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := r.pool.Exec(ctx, stmt,
		value.ID,
		value.OwnerID,
		value.Name,
		value.Color,
		value.Importance,
		value.Description,
		value.CreatedAt,
		value.UpdatedAt,
	)
	return err
}

// Get retrieves one of the owner's value definitions by ID.
func (r *ValueRepository) Get(ctx context.Context, ownerID, valueID string) (*domain.Value, error) {
	query := `SELECT ` + valueColumns + ` FROM value_defs WHERE owner_id=$1 AND value_id=$2`

	var value domain.Value
	err := r.pool.QueryRow(ctx, query, ownerID, valueID).Scan(
		&value.ID,
		&value.OwnerID,
		&value.Name,
		&value.Color,
		&value.Importance,
		&value.Description,
		&value.CreatedAt,
		&value.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &value, nil
}

// ListByOwner returns all of the owner's value definitions, most important first.
func (r *ValueRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Value, error) {
	query := `SELECT ` + valueColumns + ` FROM value_defs WHERE owner_id=$1 ORDER BY importance DESC, name ASC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []domain.Value
	for rows.Next() {
		var value domain.Value
		if err := rows.Scan(
			&value.ID,
			&value.OwnerID,
			&value.Name,
			&value.Color,
			&value.Importance,
			&value.Description,
			&value.CreatedAt,
			&value.UpdatedAt,
		); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// Update replaces the editable fields of an existing value definition.
func (r *ValueRepository) Update(ctx context.Context, value domain.Value) (bool, error) {
	const stmt = `UPDATE value_defs
        SET name=$3, color=$4, importance=$5, description=$6, updated_at=$7
        WHERE owner_id=$1 AND value_id=$2`

	tag, err := r.pool.Exec(ctx, stmt,
		value.OwnerID,
		value.ID,
		value.Name,
		value.Color,
		value.Importance,
		value.Description,
		value.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes one of the owner's value definitions.
func (r *ValueRepository) Delete(ctx context.Context, ownerID, valueID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM value_defs WHERE owner_id=$1 AND value_id=$2`, ownerID, valueID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
