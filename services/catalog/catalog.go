package catalog

import (
	"fmt"
	"strings"
)

type Attribute string

const (
	Strength     Attribute = "strength"
	Dexterity    Attribute = "dexterity"
	Intelligence Attribute = "intelligence"
)

type Category string

const (
	CategoryWeapon    Category = "weapon"
	CategoryArmour    Category = "armour"
	CategoryAccessory Category = "accessory"
	CategoryFlask     Category = "flask"
	CategoryGem       Category = "gem"
	CategoryCurrency  Category = "currency"
	CategoryCard      Category = "card"
	CategoryMap       Category = "map"
	CategoryOther     Category = "other"
)

// CategoryFromSite maps the trade site's category strings onto ours.
func CategoryFromSite(s string) Category {
	switch strings.ToLower(s) {
	case "weapons", "weapon":
		return CategoryWeapon
	case "armour", "armor":
		return CategoryArmour
	case "accessories", "accessory":
		return CategoryAccessory
	case "flasks", "flask":
		return CategoryFlask
	case "gems", "gem":
		return CategoryGem
	case "currency":
		return CategoryCurrency
	case "cards", "card":
		return CategoryCard
	case "maps", "map":
		return CategoryMap
	default:
		return CategoryOther
	}
}

// StatRequirements are the minimum attribute values needed to use an
// item or roll a modifier.
type StatRequirements map[Attribute]int

// Dominant returns the attribute with the highest threshold.
func (r StatRequirements) Dominant() (Attribute, bool) {
	var best Attribute
	bestValue := -1
	for attr, threshold := range r {
		if threshold > bestValue {
			best = attr
			bestValue = threshold
		}
	}
	return best, bestValue >= 0
}

type BaseItem struct {
	Name              string
	Category          Category
	StatRequirements  StatRequirements
	ImplicitModifiers []string
	BaseLevel         int
	Tags              []string
}

// Aliases are the alternative names the trade site lists this base
// under, stored as `alias:<name>` tags.
func (b BaseItem) Aliases() []string {
	var out []string
	for _, tag := range b.Tags {
		if alias, ok := strings.CutPrefix(tag, "alias:"); ok {
			out = append(out, alias)
		}
	}
	return out
}

// RollRange is one numeric component's inclusive roll bounds.
type RollRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r RollRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ModifierDefinition is one tier of a modifier. Identity is (Name, Tier);
// Tier 0 means the modifier has no tiering.
type ModifierDefinition struct {
	Name             string
	Tier             int
	Rolls            []RollRange
	Crafted          bool
	StatRequirements StatRequirements
	// per-attribute coefficients applied to rolled values on items
	// with the attribute, nil for most modifiers
	AttributeScaling map[Attribute]float64
}

func (d ModifierDefinition) Key() string {
	return fmt.Sprintf("%s/%d", d.Name, d.Tier)
}

// ContainsRolls reports whether every numeric component falls inside
// this tier's corresponding sub-range. A value count mismatch is never
// a containment match.
func (d ModifierDefinition) ContainsRolls(values []float64) bool {
	if len(values) != len(d.Rolls) {
		return false
	}
	for i, v := range values {
		if !d.Rolls[i].Contains(v) {
			return false
		}
	}
	return true
}

// SameDefinition reports whether two definitions are interchangeable
// for cross-base pooling: name, tier and every roll sub-range must
// match exactly.
func (d ModifierDefinition) SameDefinition(other ModifierDefinition) bool {
	if d.Name != other.Name || d.Tier != other.Tier {
		return false
	}
	if len(d.Rolls) != len(other.Rolls) {
		return false
	}
	for i, r := range d.Rolls {
		if r != other.Rolls[i] {
			return false
		}
	}
	return true
}
