package event

// SortOrder orders a listing by one JSON field name.
type SortOrder struct {
	Field string
	Desc  bool
}

// PageRequest is a zero-based page query.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one slice of a listing along with the overall total.
type Page struct {
	Items []Event
	Total int
}

func (p Page) TotalPages(size int) int {
	if size <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + size - 1) / size
}

// SortableFields lists the JSON field names a listing may be ordered by.
var SortableFields = map[string]struct{}{
	"id":                      {},
	"name":                    {},
	"beginEnrollmentDateTime": {},
	"beginEventDateTime":      {},
	"endEventDateTime":        {},
	"basePrice":               {},
	"limitOfEnrollment":       {},
}
