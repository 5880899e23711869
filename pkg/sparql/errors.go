package sparql

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an endpoint failure. The repair loop in pkg/qa retries
// only KindMalformedQuery; every other kind is terminal.
type Kind string

const (
	KindMalformedQuery   Kind = "malformed_query"         // status 400
	KindUnauthorized     Kind = "unauthorized"            // status 401
	KindEndpointNotFound Kind = "endpoint_not_found"      // status 404
	KindURITooLong       Kind = "uri_too_long"            // status 414
	KindEndpointInternal Kind = "endpoint_internal_error" // status 500
	KindTransport        Kind = "transport_error"         // any other non-2xx status
	KindUnknown          Kind = "unknown_error"           // network or protocol failure
)

// QueryError is the failure reported for a query that the endpoint did not
// answer. Message carries the endpoint's own error text when one was
// returned; StatusCode is zero when the request never produced a response.
type QueryError struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *QueryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sparql: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sparql: %s: %s", e.Kind, e.Message)
}

// IsMalformed reports whether err is a QueryError for a syntactically
// rejected query.
func IsMalformed(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == KindMalformedQuery
}

// classifyStatus maps an HTTP status code to a failure kind.
func classifyStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindMalformedQuery
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindEndpointNotFound
	case http.StatusRequestURITooLong:
		return KindURITooLong
	case http.StatusInternalServerError:
		return KindEndpointInternal
	default:
		return KindTransport
	}
}
