package acs

import (
	"fmt"
)

// UpstreamError is returned when the API answers with a non-2xx status. Its
// message is the raw response body, which is where the API explains what was
// wrong with the request.
type UpstreamError struct {
	StatusCode int
	Body       string
	URL        string
	Variables  []string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("acs: upstream returned status %d", e.StatusCode)
	}
	return e.Body
}

// DataShapeError is returned when the response does not have the expected
// shape, most often because an expected-numeric field could not be parsed.
// This usually means the survey year's variables differ from the catalog.
type DataShapeError struct {
	Field string
	Value string
	Row   int
	Err   error
}

func (e *DataShapeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("acs: unexpected response shape: %v", e.Err)
	}
	return fmt.Sprintf("acs: row %d: field %s: cannot parse %q as a number", e.Row, e.Field, e.Value)
}

func (e *DataShapeError) Unwrap() error {
	return e.Err
}
