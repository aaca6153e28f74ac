// Package hal builds HAL-style hypermedia links.
package hal

import (
	"net/http"
	"strings"
)

const MediaType = "application/hal+json"

type Link struct {
	Href      string `json:"href"`
	Templated bool   `json:"templated,omitempty"`
}

// Links maps a relation name to its link, rendered as the "_links" object.
type Links map[string]Link

func (l Links) Add(rel, href string) Links {
	l[rel] = Link{Href: href}
	return l
}

// Builder produces absolute hrefs under a fixed base URL.
type Builder struct {
	base string
}

func NewBuilder(base string) Builder {
	return Builder{base: strings.TrimRight(base, "/")}
}

// Href joins path segments onto the base. A trailing "/" segment is kept so
// "/api/" can be expressed.
func (b Builder) Href(segments ...string) string {
	var sb strings.Builder
	sb.WriteString(b.base)

	for _, s := range segments {
		if s == "/" {
			sb.WriteString("/")
			continue
		}
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		sb.WriteString("/")
		sb.WriteString(s)
	}

	return sb.String()
}

// BaseURL derives scheme://host for r. A non-empty override wins.
func BaseURL(r *http.Request, override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	return scheme + "://" + host
}
