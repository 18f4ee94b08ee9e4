package shared

import (
	"net/http"
	"strconv"
)

// Pagination is an offset window over an in-memory list. A zero Limit means
// no upper bound.
type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, maxLimit int) Pagination {
	var page Pagination
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		page.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		page.Offset = v
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page
}

// Bounds clamps the window to a list of n items.
func (p Pagination) Bounds(n int) (start, end int) {
	start = min(p.Offset, n)
	end = n
	if p.Limit > 0 {
		end = min(start+p.Limit, n)
	}
	return start, end
}
