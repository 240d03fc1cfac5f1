package github

import (
	"net/http"
	"strconv"
)

// Kind is the class of a search or fetch response.
type Kind int

const (
	// KindOK means the request succeeded and the body was usable.
	KindOK Kind = iota

	// KindRateLimited means the token hit its rate limit. The caller should
	// put the token on cooldown and retry the work with another one.
	KindRateLimited

	// KindTransient means the API answered with an unexpected status or a
	// body that could not be decoded.
	KindTransient

	// KindNetwork means no usable response arrived: a connection failure,
	// a timeout, or (for raw fetches) a server error.
	KindNetwork
)

// String returns a short name for the kind, used in logs.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindRateLimited:
		return "ratelimit"
	case KindTransient:
		return "transient"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Outcome describes how a request ended. Exactly one Kind applies.
type Outcome struct {
	// Kind classifies the response.
	Kind Kind

	// Status is the HTTP status code, or 0 when no response arrived.
	Status int

	// Code is a short machine-readable reason for non-OK outcomes,
	// for example "http_404" or "malformed".
	Code string

	// Message is the API's own explanation for a rate limit, if it sent one.
	Message string
}

// OK reports whether the outcome is KindOK.
func (o Outcome) OK() bool {
	return o.Kind == KindOK
}

// rateLimitRemainingHeader carries the number of requests left in the
// current window.
const rateLimitRemainingHeader = "X-RateLimit-Remaining"

// classify maps response metadata onto an Outcome. It is the single
// classification rule shared by search and fetch:
//
//  1. no response: network
//  2. server error, when serverErrorIsNetwork is set: network
//  3. HTTP 403, or a remaining-quota header of "0": rate limited
//  4. any status other than 200: transient
//  5. otherwise: ok, pending body decoding by the caller
func classify(resp *http.Response, err error, serverErrorIsNetwork bool) Outcome {
	if err != nil || resp == nil {
		return Outcome{Kind: KindNetwork, Code: "network"}
	}

	status := resp.StatusCode
	if serverErrorIsNetwork && status >= http.StatusInternalServerError {
		return Outcome{Kind: KindNetwork, Status: status, Code: "network"}
	}

	if status == http.StatusForbidden || resp.Header.Get(rateLimitRemainingHeader) == "0" {
		return Outcome{Kind: KindRateLimited, Status: status, Code: "ratelimit"}
	}

	if status != http.StatusOK {
		return Outcome{Kind: KindTransient, Status: status, Code: "http_" + strconv.Itoa(status)}
	}

	return Outcome{Kind: KindOK, Status: status}
}
