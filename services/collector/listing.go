package collector

import (
	"strconv"
	"strings"
	"time"

	"poeweights/lib/scrapers/poetrade"
	"poeweights/services/catalog"
)

// ListingFromTrade converts one trade site fetch result into the
// pipeline's raw listing shape.
func ListingFromTrade(res poetrade.ItemResult, collectedAt time.Time) RawListing {
	item := res.Item

	baseName := item.BaseType
	if baseName == "" {
		baseName = item.TypeLine
	}

	listing := RawListing{
		TradeId:          res.Id,
		BaseName:         baseName,
		DisplayName:      item.Name,
		StatLines:        item.ExplicitMods,
		CraftedLines:     item.CraftedMods,
		Corrupted:        item.Corrupted,
		StatRequirements: requirementsFromTrade(item.Requirements),
		CollectedAt:      collectedAt,
	}

	if res.Listing.Price != nil {
		listing.Price = &Price{
			Amount:   res.Listing.Price.Amount,
			Currency: res.Listing.Price.Currency,
		}
	}
	if res.Listing.Indexed != "" {
		indexed, err := time.Parse(time.RFC3339, res.Listing.Indexed)
		if err == nil {
			listing.CollectedAt = indexed
		}
	}

	// the site only exposes the thresholds a wearer must meet, use
	// them as the item's attribute profile as well
	if len(listing.StatRequirements) > 0 {
		listing.AttributeValues = make(map[catalog.Attribute]int, len(listing.StatRequirements))
		for attr, threshold := range listing.StatRequirements {
			listing.AttributeValues[attr] = threshold
		}
	}

	return listing
}

func requirementsFromTrade(reqs []poetrade.Requirement) catalog.StatRequirements {
	out := catalog.StatRequirements{}
	for _, req := range reqs {
		var attr catalog.Attribute
		switch strings.ToLower(strings.TrimSpace(req.Name)) {
		case "str", "strength":
			attr = catalog.Strength
		case "dex", "dexterity":
			attr = catalog.Dexterity
		case "int", "intelligence":
			attr = catalog.Intelligence
		default:
			continue
		}

		if len(req.Values) == 0 || len(req.Values[0]) == 0 {
			continue
		}
		raw, ok := req.Values[0][0].(string)
		if !ok {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		out[attr] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
