package pagination

const (
	// CatalogPageSize is the fixed window used by catalog search.
	CatalogPageSize = 12
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds 1-based page inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes a window over a sorted result set.
type Page struct {
	Number int
	Size   int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps page numbers below 1 to the first page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// New builds a Page from raw params.
func New(params Params) Page {
	return Page{Number: NormalizePage(params.Page), Size: NormalizeLimit(params.Limit)}
}

// Fixed builds a Page with a size that callers cannot change.
func Fixed(page, size int) Page {
	return Page{Number: NormalizePage(page), Size: size}
}

// Offset returns the number of rows preceding the window.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages returns ceil(total/size).
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	size := int64(p.Size)
	return int((total + size - 1) / size)
}
