// Package github is a small client for GitHub code search and raw file
// downloads, authenticated with a bearer token chosen per request.
//
// Neither Search nor Fetch returns a Go error. Each request ends in exactly
// one Outcome kind:
//
//   - KindOK: usable response
//   - KindRateLimited: HTTP 403 or X-RateLimit-Remaining of 0
//   - KindTransient: another non-200 status, or an undecodable search body
//   - KindNetwork: no response (and, for raw downloads, HTTP 5xx)
//
// Design decision: classification is one function shared by both request
// types, so the crawler can apply a single policy table to either result.
//
// The transport built by NewHTTPClient can dial through a SOCKS5 proxy, and
// WithRateLimit attaches a token-bucket limiter shared by all goroutines
// using the client.
package github
