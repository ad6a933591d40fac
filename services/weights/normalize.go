package weights

import (
	"strconv"

	"poeweights/services/catalog"
)

// Normalize turns aggregated cells into bias-corrected relative
// weights. Weights are comparable within a category only: the
// strongest modifier of each category lands exactly on the configured
// reference weight.
func Normalize(cells []*Cell, index *catalog.Index, cfg Config) Result {
	result := Result{
		InsufficientCategories: make(map[catalog.Category]int),
	}

	defsByKey := make(map[string]catalog.ModifierDefinition)
	for _, def := range index.Modifiers() {
		defsByKey[def.Key()] = def
	}

	byCategory := make(map[catalog.Category][]*Cell)
	for _, cell := range cells {
		byCategory[cell.Category] = append(byCategory[cell.Category], cell)
	}

	for category, categoryCells := range byCategory {
		total := 0
		for _, cell := range categoryCells {
			total += cell.Count
		}
		insufficient := total < cfg.CategoryFloor
		if insufficient {
			result.InsufficientCategories[category] = total
		}

		corrected := make([]float64, len(categoryCells))
		flags := make([][]string, len(categoryCells))
		for i, cell := range categoryCells {
			corrected[i], flags[i] = correctCell(cell, cfg)
		}

		poolCells(categoryCells, corrected, defsByKey)

		maxWeight := 0.0
		for _, w := range corrected {
			if w > maxWeight {
				maxWeight = w
			}
		}
		scale := 0.0
		if maxWeight > 0 {
			scale = cfg.ReferenceWeight / maxWeight
		}

		for i, cell := range categoryCells {
			estimate := Estimate{
				BaseItem:   cell.Key.BaseItem,
				Modifier:   cell.Key.Modifier,
				Tier:       cell.Key.Tier,
				Category:   category,
				RawCount:   cell.Count,
				Weight:     corrected[i] * scale,
				Confidence: confidenceFor(cell.Count, cfg),
				Flags:      flags[i],
			}
			if insufficient {
				estimate.Confidence = ConfidenceLow
				estimate.Flags = append(estimate.Flags, FlagInsufficientSample)
			}
			result.Estimates = append(result.Estimates, estimate)
		}
	}

	return result
}

// correctCell stratifies a cell's prices into the configured bands and
// reweights each band inversely to its overrepresentation. A cell
// whose priced listings never reach the lowest band is flagged instead
// of corrected: without low-price samples the true factor is unknown.
func correctCell(cell *Cell, cfg Config) (float64, []string) {
	if len(cfg.PriceBands) == 0 || len(cell.Prices) == 0 {
		return float64(cell.Count), nil
	}

	bandCounts := make([]int, len(cfg.PriceBands))
	for _, price := range cell.Prices {
		bandCounts[bandFor(price, cfg.PriceBands)]++
	}

	if bandCounts[0] == 0 {
		return float64(cell.Count), []string{FlagHighValueBias}
	}

	weight := float64(cell.Unpriced)
	for i, count := range bandCounts {
		factor := cfg.PriceBands[i].Overrepresentation
		if factor <= 0 {
			factor = 1
		}
		weight += float64(count) / factor
	}
	return weight, nil
}

func bandFor(price float64, bands []PriceBand) int {
	for i, band := range bands {
		// UpperBound 0 marks the unbounded last band
		if band.UpperBound > 0 && price <= band.UpperBound {
			return i
		}
	}
	return len(bands) - 1
}

// poolCells averages the corrected weights of cells that observe the
// exact same modifier definition on different base items of one
// category, weighted by each base's own sample size. Sparse bases
// inherit from better-sampled siblings; definitions differing in name,
// tier or any roll sub-range never pool.
func poolCells(cells []*Cell, corrected []float64, defsByKey map[string]catalog.ModifierDefinition) {
	groups := make(map[string][]int)
	for i, cell := range cells {
		def, ok := memberDef(cell, defsByKey)
		if !ok {
			continue
		}
		groups[def.Key()] = append(groups[def.Key()], i)
	}

	for _, members := range groups {
		if len(members) < 2 {
			continue
		}

		first, ok := memberDef(cells[members[0]], defsByKey)
		if !ok {
			continue
		}
		exact := true
		for _, i := range members[1:] {
			def, ok := memberDef(cells[i], defsByKey)
			if !ok || !def.SameDefinition(first) {
				exact = false
				break
			}
		}
		if !exact {
			continue
		}

		var weightedSum, sampleSum float64
		for _, i := range members {
			weightedSum += corrected[i] * float64(cells[i].Count)
			sampleSum += float64(cells[i].Count)
		}
		if sampleSum == 0 {
			continue
		}
		pooled := weightedSum / sampleSum
		for _, i := range members {
			corrected[i] = pooled
		}
	}
}

func memberDef(cell *Cell, defsByKey map[string]catalog.ModifierDefinition) (catalog.ModifierDefinition, bool) {
	def, ok := defsByKey[cell.Key.Modifier+"/"+strconv.Itoa(cell.Key.Tier)]
	return def, ok
}
