package weights

import (
	"context"
	"sort"

	"poeweights/lib/workerpool"
	"poeweights/services/collector"
)

// Aggregation folds match records into cells. It is not safe for
// concurrent use; parallel runs build one Aggregation per partition
// and merge them afterwards.
type Aggregation struct {
	currency string
	cells    map[CellKey]*Cell
}

func NewAggregation(currency string) *Aggregation {
	return &Aggregation{
		currency: currency,
		cells:    make(map[CellKey]*Cell),
	}
}

func (a *Aggregation) Add(record collector.MatchRecord) {
	key := CellKey{
		BaseItem: record.BaseItem,
		Modifier: record.ModifierName,
		Tier:     record.Tier,
	}
	cell, ok := a.cells[key]
	if !ok {
		cell = &Cell{Key: key, Category: record.Category}
		a.cells[key] = cell
	}

	cell.Count++
	if record.Price != nil && record.Price.Currency == a.currency {
		cell.Prices = append(cell.Prices, record.Price.Amount)
	} else {
		cell.Unpriced++
	}
}

func (a *Aggregation) Merge(other *Aggregation) {
	for key, cell := range other.cells {
		existing, ok := a.cells[key]
		if !ok {
			a.cells[key] = cell
			continue
		}
		existing.Count += cell.Count
		existing.Prices = append(existing.Prices, cell.Prices...)
		existing.Unpriced += cell.Unpriced
	}
}

// Cells returns the accumulated cells in a stable order.
func (a *Aggregation) Cells() []*Cell {
	out := make([]*Cell, 0, len(a.cells))
	for _, cell := range a.cells {
		out = append(out, cell)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.BaseItem != out[j].Key.BaseItem {
			return out[i].Key.BaseItem < out[j].Key.BaseItem
		}
		if out[i].Key.Modifier != out[j].Key.Modifier {
			return out[i].Key.Modifier < out[j].Key.Modifier
		}
		return out[i].Key.Tier < out[j].Key.Tier
	})
	return out
}

// Aggregate reduces records into cells, partitioned across workers.
// Each partition aggregates independently, then the partials merge
// into a single result, so no cell is ever written concurrently.
func Aggregate(ctx context.Context, workers int, currency string, records []collector.MatchRecord) (*Aggregation, error) {
	partials, err := workerpool.Do(ctx, workers, records,
		func(_ context.Context, part []collector.MatchRecord) (*Aggregation, error) {
			partial := NewAggregation(currency)
			for _, record := range part {
				partial.Add(record)
			}
			return partial, nil
		})
	if err != nil {
		return nil, err
	}

	merged := NewAggregation(currency)
	for _, partial := range partials {
		merged.Merge(partial)
	}
	return merged, nil
}
