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

type BaseItem struct {
	ID                int64
	Name              string
	Category          string
	StatRequirements  string
	ImplicitModifiers string
	BaseLevel         int64
	Tags              string
	CreatedAt         int64
	UpdatedAt         int64
}

type Modifier struct {
	ID               int64
	Name             string
	Tier             int64
	ModifierValues   string
	IsCrafted        bool
	StatRequirements sql.NullString
	AttributeScaling sql.NullString
	CreatedAt        int64
}

const upsertBaseItem = `
INSERT INTO base_items (
    name, category, stat_requirements, implicit_modifiers,
    base_level, tags, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
    category = excluded.category,
    stat_requirements = excluded.stat_requirements,
    implicit_modifiers = excluded.implicit_modifiers,
    base_level = excluded.base_level,
    tags = excluded.tags,
    updated_at = excluded.updated_at
RETURNING id
`

type UpsertBaseItemParams struct {
	Name              string
	Category          string
	StatRequirements  string
	ImplicitModifiers string
	BaseLevel         int64
	Tags              string
	CreatedAt         int64
	UpdatedAt         int64
}

func (q *Queries) UpsertBaseItem(ctx context.Context, arg UpsertBaseItemParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertBaseItem,
		arg.Name,
		arg.Category,
		arg.StatRequirements,
		arg.ImplicitModifiers,
		arg.BaseLevel,
		arg.Tags,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const upsertModifier = `
INSERT INTO modifiers (
    name, tier, modifier_values, is_crafted,
    stat_requirements, attribute_scaling, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (name, tier) DO UPDATE SET
    modifier_values = excluded.modifier_values,
    is_crafted = excluded.is_crafted,
    stat_requirements = excluded.stat_requirements,
    attribute_scaling = excluded.attribute_scaling
RETURNING id
`

type UpsertModifierParams struct {
	Name             string
	Tier             int64
	ModifierValues   string
	IsCrafted        bool
	StatRequirements sql.NullString
	AttributeScaling sql.NullString
	CreatedAt        int64
}

func (q *Queries) UpsertModifier(ctx context.Context, arg UpsertModifierParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertModifier,
		arg.Name,
		arg.Tier,
		arg.ModifierValues,
		arg.IsCrafted,
		arg.StatRequirements,
		arg.AttributeScaling,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getBaseItemByName = `
SELECT id, name, category, stat_requirements, implicit_modifiers,
       base_level, tags, created_at, updated_at
FROM base_items WHERE name = ?
`

func (q *Queries) GetBaseItemByName(ctx context.Context, name string) (BaseItem, error) {
	row := q.db.QueryRowContext(ctx, getBaseItemByName, name)
	var i BaseItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.StatRequirements,
		&i.ImplicitModifiers,
		&i.BaseLevel,
		&i.Tags,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listBaseItems = `
SELECT id, name, category, stat_requirements, implicit_modifiers,
       base_level, tags, created_at, updated_at
FROM base_items ORDER BY name
`

func (q *Queries) ListBaseItems(ctx context.Context) ([]BaseItem, error) {
	rows, err := q.db.QueryContext(ctx, listBaseItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BaseItem
	for rows.Next() {
		var i BaseItem
		err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Category,
			&i.StatRequirements,
			&i.ImplicitModifiers,
			&i.BaseLevel,
			&i.Tags,
			&i.CreatedAt,
			&i.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listModifiers = `
SELECT id, name, tier, modifier_values, is_crafted,
       stat_requirements, attribute_scaling, created_at
FROM modifiers ORDER BY name, tier
`

func (q *Queries) ListModifiers(ctx context.Context) ([]Modifier, error) {
	rows, err := q.db.QueryContext(ctx, listModifiers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Modifier
	for rows.Next() {
		var i Modifier
		err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Tier,
			&i.ModifierValues,
			&i.IsCrafted,
			&i.StatRequirements,
			&i.AttributeScaling,
			&i.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
