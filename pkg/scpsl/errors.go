package scpsl

import "errors"

// Error kinds returned by the client and the converters. Callers match them
// with errors.Is; the wrapped message carries the offending value or the
// underlying cause.
var (
	// ErrTransport covers network, HTTP status and cancellation failures.
	ErrTransport = errors.New("transport request failed")

	// ErrURLBuild means the base URL or a parameter could not form a
	// valid absolute request URL.
	ErrURLBuild = errors.New("invalid request url")

	// ErrMalformedPayload means the response JSON is missing required
	// structure or has the wrong shape.
	ErrMalformedPayload = errors.New("malformed response payload")

	// ErrDateFormat means a LastOnline value deviates from YYYY-MM-DD or
	// names an invalid calendar day.
	ErrDateFormat = errors.New("invalid date format")

	// ErrCountFormat means a Players value is not "<current>/<max>" with
	// two non-negative integers.
	ErrCountFormat = errors.New("invalid player count format")

	// ErrEncoding means an Info value is not padded base64 of UTF-8 text.
	ErrEncoding = errors.New("invalid info encoding")

	// ErrAddrParse means the ip endpoint returned something that is not
	// an IPv4 or IPv6 literal.
	ErrAddrParse = errors.New("invalid ip address in response")
)
