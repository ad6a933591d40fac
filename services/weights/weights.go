package weights

import (
	"fmt"

	"poeweights/services/catalog"
)

// CellKey identifies one aggregation cell.
type CellKey struct {
	BaseItem string
	Modifier string
	Tier     int
}

// Cell accumulates the observations for one (base item, modifier,
// tier) combination across a run. Counts only grow; normalization
// reads cells without mutating them.
type Cell struct {
	Key      CellKey
	Category catalog.Category
	Count    int
	Prices   []float64
	Unpriced int
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Flags attached to individual estimates.
const (
	FlagHighValueBias      = "high_value_bias_suspected"
	FlagInsufficientSample = "insufficient_sample"
)

// PriceBand stratifies listing prices for bias correction. A band
// covers prices up to UpperBound; the last band should be unbounded
// (UpperBound 0). Overrepresentation estimates how strongly listings
// in the band are overrepresented relative to generated items; counts
// are divided by it.
type PriceBand struct {
	UpperBound         float64 `json:"upper_bound"`
	Overrepresentation float64 `json:"overrepresentation"`
}

// Config tunes the normalizer. The band factors are estimated
// externally from listing-volume statistics, they are inputs here.
type Config struct {
	PriceBands []PriceBand `json:"price_bands"`
	// only prices in this currency enter the band statistics
	PriceCurrency   string  `json:"price_currency"`
	ReferenceWeight float64 `json:"reference_weight"`
	// sample size thresholds for the confidence bands
	MediumSampleSize int `json:"medium_sample_size"`
	HighSampleSize   int `json:"high_sample_size"`
	// minimum total samples for a category to produce usable estimates
	CategoryFloor int `json:"category_floor"`
}

func DefaultConfig() Config {
	return Config{
		PriceBands: []PriceBand{
			{UpperBound: 5, Overrepresentation: 2},
			{UpperBound: 50, Overrepresentation: 1.25},
			{UpperBound: 0, Overrepresentation: 1},
		},
		PriceCurrency:    "chaos",
		ReferenceWeight:  1000,
		MediumSampleSize: 30,
		HighSampleSize:   200,
		CategoryFloor:    50,
	}
}

// Validate checks the band configuration. Bands must strictly ascend
// by UpperBound and end with exactly one unbounded band (UpperBound 0)
// so every price lands in its intended band. An empty band list is
// valid and disables correction.
func (c Config) Validate() error {
	if len(c.PriceBands) == 0 {
		return nil
	}

	last := len(c.PriceBands) - 1
	prev := 0.0
	for i, band := range c.PriceBands {
		if band.Overrepresentation <= 0 {
			return fmt.Errorf(
				"price band %d has non-positive overrepresentation %v",
				i, band.Overrepresentation)
		}
		if i == last {
			if band.UpperBound != 0 {
				return fmt.Errorf(
					"last price band must be unbounded (upper_bound 0), got %v",
					band.UpperBound)
			}
			continue
		}
		if band.UpperBound <= prev {
			return fmt.Errorf(
				"price band upper bounds must ascend, band %d has %v after %v",
				i, band.UpperBound, prev)
		}
		prev = band.UpperBound
	}
	return nil
}

// Estimate is one normalized weight row, comparable only to estimates
// of the same category.
type Estimate struct {
	BaseItem   string
	Modifier   string
	Tier       int
	Category   catalog.Category
	RawCount   int
	Weight     float64
	Confidence Confidence
	Flags      []string
}

// Result is the output of one normalization run.
type Result struct {
	Estimates []Estimate
	// categories below the sample floor, with their observed totals
	InsufficientCategories map[catalog.Category]int
}

func confidenceFor(count int, cfg Config) Confidence {
	switch {
	case count < cfg.MediumSampleSize:
		return ConfidenceLow
	case count < cfg.HighSampleSize:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}
