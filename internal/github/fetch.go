package github

import (
	"context"
	"strings"
)

// rawAccept is sent with raw file downloads.
const rawAccept = "text/plain, */*"

// FetchResult is the outcome of one raw file download. Body is set only
// when the outcome is OK.
type FetchResult struct {
	Outcome

	Body string
}

// RawURL converts a browse URL into its raw-content URL: the github.com
// host is replaced by raw.githubusercontent.com and the first "/blob/"
// segment is removed. It is pure and never fails; URLs that do not match
// the expected shape are returned with whatever substitution applies.
func RawURL(htmlURL string) string {
	return rawURL(htmlURL, DefaultHTMLBaseURL, DefaultRawBaseURL)
}

func rawURL(htmlURL, htmlBase, rawBase string) string {
	u := htmlURL
	if rest, ok := strings.CutPrefix(u, htmlBase); ok {
		u = rawBase + rest
	}
	return strings.Replace(u, "/blob/", "/", 1)
}

// RawURL converts a browse URL using the client's raw host.
func (c *Client) RawURL(htmlURL string) string {
	return rawURL(htmlURL, c.htmlBaseURL, c.rawBaseURL)
}

// Fetch downloads the raw contents of item with token. Server errors are
// reported as KindNetwork, everything else is classified like a search.
// At most the configured maximum body size is read.
func (c *Client) Fetch(ctx context.Context, item Item, token string) FetchResult {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	resp, body, err := c.do(ctx, c.RawURL(item.HTMLURL), token, rawAccept, c.maxBodySize)
	outcome := classify(resp, err, true)
	if !outcome.OK() {
		return FetchResult{Outcome: outcome}
	}
	return FetchResult{Outcome: outcome, Body: string(body)}
}
