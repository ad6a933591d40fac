package poetrade

// wire types for the trade site's search + fetch api. field names mirror
// the json the site returns, which mixes snake_case and camelCase.

type SearchRequest struct {
	Query Query `json:"query"`
	Sort  Sort  `json:"sort,omitempty"`
}

type Sort map[string]string

type Query struct {
	Status  StatusFilter `json:"status"`
	Stats   []StatFilter `json:"stats,omitempty"`
	Filters QueryFilters `json:"filters,omitempty"`
}

type StatusFilter struct {
	Option string `json:"option"`
}

type StatFilter struct {
	Type     string            `json:"type"`
	Filters  []StatFilterValue `json:"filters"`
	Disabled bool              `json:"disabled"`
}

type StatFilterValue struct {
	Id       string     `json:"id"`
	Value    *StatValue `json:"value,omitempty"`
	Disabled bool       `json:"disabled"`
}

type StatValue struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

type QueryFilters struct {
	TypeFilters TypeFilters `json:"type_filters,omitempty"`
}

type TypeFilters struct {
	Filters CategoryFilter `json:"filters,omitempty"`
}

type CategoryFilter struct {
	Category CategoryOption `json:"category,omitempty"`
}

type CategoryOption struct {
	Option string `json:"option,omitempty"`
}

type SearchResponse struct {
	Id     string   `json:"id"`
	Result []string `json:"result"`
	Total  int      `json:"total"`
}

type FetchResponse struct {
	Result []ItemResult `json:"result"`
}

type ItemResult struct {
	Id      string      `json:"id"`
	Item    ItemPayload `json:"item"`
	Listing Listing     `json:"listing"`
}

type ItemPayload struct {
	BaseType     string        `json:"baseType"`
	TypeLine     string        `json:"typeLine"`
	Name         string        `json:"name"`
	Ilvl         int           `json:"ilvl"`
	Corrupted    bool          `json:"corrupted"`
	ExplicitMods []string      `json:"explicitMods"`
	CraftedMods  []string      `json:"craftedMods"`
	Requirements []Requirement `json:"requirements"`
	Properties   []Property    `json:"properties"`
	FrameType    int           `json:"frameType"`
	Extended     Extended      `json:"extended"`
}

type Extended struct {
	Mods ModGroups `json:"mods"`
}

type ModGroups struct {
	Explicit []ModInfo `json:"explicit"`
	Crafted  []ModInfo `json:"crafted"`
}

type ModInfo struct {
	Name       string      `json:"name"`
	Tier       string      `json:"tier"`
	Magnitudes []Magnitude `json:"magnitudes"`
}

type Magnitude struct {
	Hash string `json:"hash"`
	Min  string `json:"min"`
	Max  string `json:"max"`
}

type Requirement struct {
	Name   string          `json:"name"`
	Values [][]interface{} `json:"values"`
}

type Property struct {
	Name   string          `json:"name"`
	Values [][]interface{} `json:"values"`
}

type Listing struct {
	Indexed string   `json:"indexed"`
	Price   *Price   `json:"price"`
	Account *Account `json:"account"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type Account struct {
	Name  string `json:"name"`
	Realm string `json:"realm"`
}
