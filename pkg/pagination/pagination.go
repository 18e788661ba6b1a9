package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page/limit pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize enforces the configured defaults and maximum limit.
func (p Params) Normalize() Params {
	out := p
	if out.Page <= 0 {
		out.Page = 1
	}
	if out.Limit <= 0 {
		out.Limit = DefaultLimit
	}
	if out.Limit > MaxLimit {
		out.Limit = MaxLimit
	}
	return out
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Meta describes the page that was returned.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// NewMeta builds response metadata from normalized params and a total count.
func NewMeta(p Params, total int64) Meta {
	n := p.Normalize()
	return Meta{Page: n.Page, Limit: n.Limit, Total: total}
}
