package fetcher

import (
	"net/url"
)

// PageStatus is the fetcher's verdict on a single page request.
// It carries exactly one of the outcomes the classifier understands.
type PageStatus int

const (
	// StatusOK means a 2xx response with a non-empty body.
	StatusOK PageStatus = iota
	// StatusHTTP means the catalog answered with a non-2xx status.
	StatusHTTP
	// StatusEmpty means the catalog answered but returned no content.
	StatusEmpty
	// StatusTimedOut means the per-request timeout elapsed.
	StatusTimedOut
	// StatusTransport means the request never produced a response.
	StatusTransport
)

func (s PageStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusHTTP:
		return "http_status"
	case StatusEmpty:
		return "empty"
	case StatusTimedOut:
		return "timed_out"
	case StatusTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// PageResult is what a PageFetcher hands back for one search page.
// Failures are values, not errors: the caller classifies them.
type PageResult struct {
	status   PageStatus
	url      url.URL
	body     []byte
	code     int
	detail   string
	attempts int
}

func (p PageResult) Status() PageStatus {
	return p.status
}

func (p PageResult) URL() url.URL {
	return p.url
}

func (p PageResult) Body() []byte {
	return p.body
}

// Code is the HTTP status when one was observed, 0 otherwise.
func (p PageResult) Code() int {
	return p.code
}

// Detail is a human-readable description of the failure, if any.
func (p PageResult) Detail() string {
	return p.detail
}

func (p PageResult) Attempts() int {
	return p.attempts
}

func (p PageResult) OK() bool {
	return p.status == StatusOK
}

func NewOKResult(fetchUrl url.URL, body []byte, code int) PageResult {
	return PageResult{status: StatusOK, url: fetchUrl, body: body, code: code}
}

func NewHTTPStatusResult(fetchUrl url.URL, code int, detail string) PageResult {
	return PageResult{status: StatusHTTP, url: fetchUrl, code: code, detail: detail}
}

func NewEmptyResult(fetchUrl url.URL, code int) PageResult {
	return PageResult{status: StatusEmpty, url: fetchUrl, code: code, detail: "empty response body"}
}

func NewTimedOutResult(fetchUrl url.URL, detail string) PageResult {
	return PageResult{status: StatusTimedOut, url: fetchUrl, detail: detail}
}

func NewTransportResult(fetchUrl url.URL, detail string) PageResult {
	return PageResult{status: StatusTransport, url: fetchUrl, detail: detail}
}

func (p PageResult) withAttempts(attempts int) PageResult {
	p.attempts = attempts
	return p
}

// AutocompleteEntry is one suggestion returned by the catalog's
// autocomplete endpoint.
type AutocompleteEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
