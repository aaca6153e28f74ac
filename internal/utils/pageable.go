package utils

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/geocoder89/eventrest/internal/domain/event"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps Page*Size well inside int32 so offsets never overflow.
	MaxPage = math.MaxInt32 / MaxPageSize
)

var ErrInvalidPageRequest = errors.New("invalid page request")

// ParsePageRequest reads page, size and sort (repeatable, "field[,asc|desc]")
// query parameters. Sort fields must be listed in allowed.
func ParsePageRequest(q url.Values, allowed map[string]struct{}) (event.PageRequest, error) {
	p := event.PageRequest{Page: 0, Size: DefaultPageSize}

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > MaxPage {
			return event.PageRequest{}, fmt.Errorf("%w: page must be between 0 and %d", ErrInvalidPageRequest, MaxPage)
		}
		p.Page = n
	}

	if v := strings.TrimSpace(q.Get("size")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxPageSize {
			return event.PageRequest{}, fmt.Errorf("%w: size must be between 1 and %d", ErrInvalidPageRequest, MaxPageSize)
		}
		p.Size = n
	}

	for _, raw := range q["sort"] {
		field, dir, _ := strings.Cut(raw, ",")
		field = strings.TrimSpace(field)
		dir = strings.ToLower(strings.TrimSpace(dir))

		if _, ok := allowed[field]; !ok {
			return event.PageRequest{}, fmt.Errorf("%w: cannot sort by %q", ErrInvalidPageRequest, field)
		}

		switch dir {
		case "", "asc":
			p.Sort = append(p.Sort, event.SortOrder{Field: field})
		case "desc":
			p.Sort = append(p.Sort, event.SortOrder{Field: field, Desc: true})
		default:
			return event.PageRequest{}, fmt.Errorf("%w: sort direction must be asc or desc", ErrInvalidPageRequest)
		}
	}

	return p, nil
}

// EncodeSort renders sort orders back into query values, for navigation links.
func EncodeSort(q url.Values, sort []event.SortOrder) {
	q.Del("sort")
	for _, o := range sort {
		dir := "asc"
		if o.Desc {
			dir = "desc"
		}
		q.Add("sort", o.Field+","+dir)
	}
}
