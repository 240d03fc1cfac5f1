package github

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// searchAccept is the media type requested from the search API.
const searchAccept = "application/vnd.github+json"

// searchMaxBodySize caps a search response. A page of 100 items with
// text-match metadata stays well below this.
const searchMaxBodySize = 10 * 1024 * 1024

// Repository is the subset of the repository object returned with each item.
type Repository struct {
	FullName string `json:"full_name"`
}

// Item is one file returned by code search. HTMLURL is its identity.
type Item struct {
	// HTMLURL is the browse URL of the file, e.g.
	// https://github.com/owner/repo/blob/<ref>/path/to/file.
	HTMLURL string `json:"html_url"`

	// Path is the file path inside the repository.
	Path string `json:"path"`

	// Repository identifies the repository holding the file.
	Repository Repository `json:"repository"`
}

// SearchResult is the outcome of one search request. Items and TotalCount
// are set only when the outcome is OK.
type SearchResult struct {
	Outcome

	Items      []Item
	TotalCount int
}

type searchResponse struct {
	TotalCount int    `json:"total_count"`
	Items      []Item `json:"items"`
}

type apiMessage struct {
	Message string `json:"message"`
}

// Search runs one page of a code search. Pages are 1-indexed.
// A page with zero items marks the end of results and is not an error.
//
// Search never returns a Go error: every failure is folded into the
// result's Outcome.
func (c *Client) Search(ctx context.Context, query string, page int, token string) SearchResult {
	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	resp, body, err := c.do(ctx, c.SearchURL(query, page), token, searchAccept, searchMaxBodySize)
	outcome := classify(resp, err, false)

	switch outcome.Kind {
	case KindOK:
	case KindRateLimited:
		var msg apiMessage
		if json.Unmarshal(body, &msg) == nil {
			outcome.Message = msg.Message
		}
		return SearchResult{Outcome: outcome}
	default:
		return SearchResult{Outcome: outcome}
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return SearchResult{Outcome: Outcome{Kind: KindTransient, Status: outcome.Status, Code: "malformed"}}
	}

	return SearchResult{
		Outcome:    outcome,
		Items:      decoded.Items,
		TotalCount: decoded.TotalCount,
	}
}

// SearchURL returns the request URL for one page of query.
func (c *Client) SearchURL(query string, page int) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(c.perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sort", "indexed")
	params.Set("order", "desc")
	return c.apiBaseURL + "/search/code?" + params.Encode()
}
