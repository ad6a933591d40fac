package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type WeightEstimate struct {
	ID           int64
	BaseItem     string
	ModifierName string
	ModifierTier int64
	Category     string
	RawCount     int64
	Weight       float64
	Confidence   string
	Flags        string
	RunAt        int64
}

const upsertWeightEstimate = `
INSERT INTO weight_estimates (
    base_item, modifier_name, modifier_tier, category,
    raw_count, weight, confidence, flags, run_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (base_item, modifier_name, modifier_tier) DO UPDATE SET
    category = excluded.category,
    raw_count = excluded.raw_count,
    weight = excluded.weight,
    confidence = excluded.confidence,
    flags = excluded.flags,
    run_at = excluded.run_at
`

type UpsertWeightEstimateParams struct {
	BaseItem     string
	ModifierName string
	ModifierTier int64
	Category     string
	RawCount     int64
	Weight       float64
	Confidence   string
	Flags        string
	RunAt        int64
}

func (q *Queries) UpsertWeightEstimate(ctx context.Context, arg UpsertWeightEstimateParams) error {
	_, err := q.db.ExecContext(ctx, upsertWeightEstimate,
		arg.BaseItem,
		arg.ModifierName,
		arg.ModifierTier,
		arg.Category,
		arg.RawCount,
		arg.Weight,
		arg.Confidence,
		arg.Flags,
		arg.RunAt,
	)
	return err
}

const deleteWeightEstimates = `
DELETE FROM weight_estimates
`

const deleteWeightEstimatesByCategory = `
DELETE FROM weight_estimates WHERE category = ?
`

func (q *Queries) DeleteWeightEstimates(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteWeightEstimates)
	return err
}

func (q *Queries) DeleteWeightEstimatesByCategory(ctx context.Context, category string) error {
	_, err := q.db.ExecContext(ctx, deleteWeightEstimatesByCategory, category)
	return err
}

const listWeightEstimates = `
SELECT id, base_item, modifier_name, modifier_tier, category,
    raw_count, weight, confidence, flags, run_at
FROM weight_estimates
ORDER BY category, weight DESC
`

const listWeightEstimatesByCategory = `
SELECT id, base_item, modifier_name, modifier_tier, category,
    raw_count, weight, confidence, flags, run_at
FROM weight_estimates
WHERE category = ?
ORDER BY weight DESC
`

func (q *Queries) ListWeightEstimates(ctx context.Context) ([]WeightEstimate, error) {
	rows, err := q.db.QueryContext(ctx, listWeightEstimates)
	if err != nil {
		return nil, err
	}
	return scanWeightEstimates(rows)
}

func (q *Queries) ListWeightEstimatesByCategory(ctx context.Context, category string) ([]WeightEstimate, error) {
	rows, err := q.db.QueryContext(ctx, listWeightEstimatesByCategory, category)
	if err != nil {
		return nil, err
	}
	return scanWeightEstimates(rows)
}

func scanWeightEstimates(rows *sql.Rows) ([]WeightEstimate, error) {
	defer rows.Close()

	var estimates []WeightEstimate
	for rows.Next() {
		var e WeightEstimate
		err := rows.Scan(
			&e.ID,
			&e.BaseItem,
			&e.ModifierName,
			&e.ModifierTier,
			&e.Category,
			&e.RawCount,
			&e.Weight,
			&e.Confidence,
			&e.Flags,
			&e.RunAt,
		)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, e)
	}
	return estimates, rows.Err()
}
