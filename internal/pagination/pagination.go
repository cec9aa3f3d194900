// Package pagination implements the deletion-corrected offset view used by
// every list endpoint. Clients keep live lists in memory and remove items
// locally on delete without re-fetching; their next page request reports how
// many items they removed so the server can shift the offset back by exactly
// that amount. An under-reported count can only produce duplicate rows, never
// rows the caller is not authorized to see.
package pagination

// Default page sizes per collection, matching the web client.
const (
	DefaultPageSize      = 10
	CommentPageSize      = 5
	NotificationPageSize = 10
	PostPageSize         = 5
	MaxPageSize          = 50
)

// Request is a 1-based page request with a client-reported deletion count.
type Request struct {
	Page         int
	PageSize     int
	DeletedCount int
}

// normalized clamps the request into valid bounds.
func (r Request) normalized() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	if r.DeletedCount < 0 {
		r.DeletedCount = 0
	}
	return r
}

// Offset computes the number of rows to skip: (page-1)*page_size minus the
// items the client already removed locally, clamped at zero.
func (r Request) Offset() int {
	n := r.normalized()
	skip := (n.Page-1)*n.PageSize - n.DeletedCount
	if skip < 0 {
		skip = 0
	}
	return skip
}

// Limit returns the clamped page size.
func (r Request) Limit() int {
	return r.normalized().PageSize
}

// ClampSkip normalizes a raw client-supplied skip for the endpoints that
// paginate by absolute offset rather than page number.
func ClampSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}
