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

type CollectedItem struct {
	ID               int64
	TradeID          string
	BaseItem         string
	Name             sql.NullString
	PriceAmount      sql.NullFloat64
	PriceCurrency    sql.NullString
	Stats            string
	CraftedStats     string
	Corrupted        bool
	StatRequirements string
	AttributeValues  string
	CollectedAt      int64
}

type ItemModifier struct {
	ItemID         int64
	ModifierName   string
	ModifierTier   int64
	ModifierValues string
}

const upsertCollectedItem = `
INSERT INTO collected_items (
    trade_id, base_item, name, price_amount, price_currency,
    stats, crafted_stats, corrupted, stat_requirements,
    attribute_values, collected_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (trade_id) DO UPDATE SET
    base_item = excluded.base_item,
    name = excluded.name,
    price_amount = excluded.price_amount,
    price_currency = excluded.price_currency,
    stats = excluded.stats,
    crafted_stats = excluded.crafted_stats,
    corrupted = excluded.corrupted,
    stat_requirements = excluded.stat_requirements,
    attribute_values = excluded.attribute_values,
    collected_at = excluded.collected_at
WHERE excluded.collected_at > collected_items.collected_at
RETURNING id
`

type UpsertCollectedItemParams struct {
	TradeID          string
	BaseItem         string
	Name             sql.NullString
	PriceAmount      sql.NullFloat64
	PriceCurrency    sql.NullString
	Stats            string
	CraftedStats     string
	Corrupted        bool
	StatRequirements string
	AttributeValues  string
	CollectedAt      int64
}

// UpsertCollectedItem inserts a listing or replaces an existing one
// with the same trade id, but only when the new record is newer.
// Returns sql.ErrNoRows when the stored record is at least as recent.
func (q *Queries) UpsertCollectedItem(ctx context.Context, arg UpsertCollectedItemParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertCollectedItem,
		arg.TradeID,
		arg.BaseItem,
		arg.Name,
		arg.PriceAmount,
		arg.PriceCurrency,
		arg.Stats,
		arg.CraftedStats,
		arg.Corrupted,
		arg.StatRequirements,
		arg.AttributeValues,
		arg.CollectedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getCollectedItemByTradeId = `
SELECT id, trade_id, base_item, name, price_amount, price_currency,
    stats, crafted_stats, corrupted, stat_requirements,
    attribute_values, collected_at
FROM collected_items
WHERE trade_id = ?
`

func (q *Queries) GetCollectedItemByTradeId(ctx context.Context, tradeId string) (CollectedItem, error) {
	row := q.db.QueryRowContext(ctx, getCollectedItemByTradeId, tradeId)
	var i CollectedItem
	err := row.Scan(
		&i.ID,
		&i.TradeID,
		&i.BaseItem,
		&i.Name,
		&i.PriceAmount,
		&i.PriceCurrency,
		&i.Stats,
		&i.CraftedStats,
		&i.Corrupted,
		&i.StatRequirements,
		&i.AttributeValues,
		&i.CollectedAt,
	)
	return i, err
}

const listCollectedItemsSince = `
SELECT id, trade_id, base_item, name, price_amount, price_currency,
    stats, crafted_stats, corrupted, stat_requirements,
    attribute_values, collected_at
FROM collected_items
WHERE collected_at >= ?
ORDER BY collected_at ASC
`

func (q *Queries) ListCollectedItemsSince(ctx context.Context, collectedAt int64) ([]CollectedItem, error) {
	rows, err := q.db.QueryContext(ctx, listCollectedItemsSince, collectedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CollectedItem
	for rows.Next() {
		var i CollectedItem
		err = rows.Scan(
			&i.ID,
			&i.TradeID,
			&i.BaseItem,
			&i.Name,
			&i.PriceAmount,
			&i.PriceCurrency,
			&i.Stats,
			&i.CraftedStats,
			&i.Corrupted,
			&i.StatRequirements,
			&i.AttributeValues,
			&i.CollectedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteItemModifiers = `
DELETE FROM item_modifiers WHERE item_id = ?
`

func (q *Queries) DeleteItemModifiers(ctx context.Context, itemId int64) error {
	_, err := q.db.ExecContext(ctx, deleteItemModifiers, itemId)
	return err
}

const insertItemModifier = `
INSERT INTO item_modifiers (item_id, modifier_name, modifier_tier, modifier_values)
VALUES (?, ?, ?, ?)
ON CONFLICT (item_id, modifier_name, modifier_tier) DO UPDATE SET
    modifier_values = excluded.modifier_values
`

type InsertItemModifierParams struct {
	ItemID         int64
	ModifierName   string
	ModifierTier   int64
	ModifierValues string
}

func (q *Queries) InsertItemModifier(ctx context.Context, arg InsertItemModifierParams) error {
	_, err := q.db.ExecContext(ctx, insertItemModifier,
		arg.ItemID,
		arg.ModifierName,
		arg.ModifierTier,
		arg.ModifierValues,
	)
	return err
}

const listItemModifiersSince = `
SELECT m.item_id, m.modifier_name, m.modifier_tier, m.modifier_values
FROM item_modifiers m
JOIN collected_items i ON i.id = m.item_id
WHERE i.collected_at >= ?
`

func (q *Queries) ListItemModifiersSince(ctx context.Context, collectedAt int64) ([]ItemModifier, error) {
	rows, err := q.db.QueryContext(ctx, listItemModifiersSince, collectedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mods []ItemModifier
	for rows.Next() {
		var m ItemModifier
		err = rows.Scan(&m.ItemID, &m.ModifierName, &m.ModifierTier, &m.ModifierValues)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

const countCollectedItems = `
SELECT COUNT(*) FROM collected_items
`

func (q *Queries) CountCollectedItems(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCollectedItems)
	var count int64
	err := row.Scan(&count)
	return count, err
}
