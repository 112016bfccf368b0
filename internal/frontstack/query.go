package frontstack

// Query narrows a listing request. All fields are optional.
type Query struct {
	Filter []Filter `json:"filter,omitempty"`
	Sort   []Sort   `json:"sort,omitempty"`
	Search string   `json:"search,omitempty"`
	Limit  int      `json:"limit,omitempty"`
	Page   int      `json:"page,omitempty"`
}

// Filter is one listing filter. Type selects the variant: "equals"
// uses Value, "range" uses From/To, "contains" uses Value, "and"/"or"
// combine Queries.
type Filter struct {
	Type    string   `json:"type"`
	Field   string   `json:"field,omitempty"`
	Value   any      `json:"value,omitempty"`
	From    *float64 `json:"from,omitempty"`
	To      *float64 `json:"to,omitempty"`
	Queries []Filter `json:"queries,omitempty"`
}

// Sort orders listing results by a field.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"` // "asc" or "desc"
}

// Equals builds an equality filter. Value may be a single value or a
// slice to match any of several values.
func Equals(field string, value any) Filter {
	return Filter{Type: "equals", Field: field, Value: value}
}

// Range builds a range filter over a numeric field.
func Range(field string, from, to *float64) Filter {
	return Filter{Type: "range", Field: field, From: from, To: to}
}
