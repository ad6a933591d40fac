package collector

import (
	"time"

	"poeweights/services/catalog"
)

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// RawListing is one scraped trade listing as handed over by the
// network client, before any catalog resolution.
type RawListing struct {
	TradeId          string
	BaseName         string
	DisplayName      string
	Price            *Price
	StatLines        []string
	CraftedLines     []string
	Corrupted        bool
	StatRequirements catalog.StatRequirements
	AttributeValues  map[catalog.Attribute]int
	CollectedAt      time.Time
}

// ObservedItem is a listing after base resolution and numeric
// extraction. Stats maps each raw stat line to its extracted numeric
// components, CraftedStats holds the lines added by crafting.
type ObservedItem struct {
	Id               int64
	TradeId          string
	Base             catalog.BaseItem
	DisplayName      string
	Price            *Price
	Stats            map[string][]float64
	CraftedStats     map[string][]float64
	Corrupted        bool
	StatRequirements catalog.StatRequirements
	AttributeValues  map[catalog.Attribute]int
	CollectedAt      time.Time
}

// MatchedModifier joins one observed stat line to the catalog
// definition that produced it, with the rolled values.
type MatchedModifier struct {
	Line       string
	Definition catalog.ModifierDefinition
	Values     []float64
}

// MatchRecord is the flat shape the aggregation stage consumes: one
// matched modifier instance with its originating item's price.
type MatchRecord struct {
	TradeId      string
	BaseItem     string
	Category     catalog.Category
	ModifierName string
	Tier         int
	Values       []float64
	Price        *Price
}
