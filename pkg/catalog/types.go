package catalog

// Icon is one record of the icon catalog. JSON field names follow the
// upstream IconPark icons.json schema.
type Icon struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Title             string   `json:"title"`
	Category          string   `json:"category"`
	CategoryLocalized string   `json:"categoryCN"`
	Author            string   `json:"author"`
	Tags              []string `json:"tag"`
	RTL               bool     `json:"rtl"`
}

// CategoryCount is a category name with the number of icons filed under it.
type CategoryCount struct {
	Name      string `json:"name"`
	Localized string `json:"localized,omitempty"`
	Count     int    `json:"count"`
}

// AllCategories is the sentinel category value that disables category filtering.
const AllCategories = "all"
