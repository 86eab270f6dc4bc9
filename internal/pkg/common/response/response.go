// Package response holds the JSON envelope shared by every API handler.
package response

import (
	"net/url"
	"strconv"
)

// Response is the envelope of every API reply. List endpoints fill Count and
// Results, and Previous and Next when paged; errors fill Detail.
type Response struct {
	Detail   string `json:"detail,omitempty"`
	Count    int    `json:"count"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
	// Failed lists the pool sources left out of a degraded pass.
	Failed  []string `json:"failed,omitempty"`
	Results any      `json:"results,omitempty"`
}

// BuildPageLinks returns the request URL rewritten to the previous and next
// pages, or "" where there is no such page.
func BuildPageLinks(u *url.URL, page, pageSize, total int) (string, string) {
	if u == nil || pageSize < 1 {
		return "", ""
	}
	link := func(p int) string {
		v := *u
		q := v.Query()
		q.Set("page", strconv.Itoa(p))
		q.Set("page_size", strconv.Itoa(pageSize))
		v.RawQuery = q.Encode()
		return v.String()
	}
	var prev, next string
	if page > 1 {
		last := (total + pageSize - 1) / pageSize
		prev = link(min(page-1, max(last, 1)))
	}
	if page*pageSize < total {
		next = link(page + 1)
	}
	return prev, next
}
