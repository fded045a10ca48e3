package weather

import "errors"

var (
	// ErrNetwork covers transport failures, timeouts and unusable upstream responses.
	ErrNetwork = errors.New("network error")
	// ErrNotFound is returned when the provider has no data for the query.
	ErrNotFound = errors.New("location not found")
	// ErrParse is returned when a response cannot be mapped to a Reading.
	ErrParse = errors.New("malformed provider response")
	// ErrLocation is returned when no device position could be obtained.
	ErrLocation = errors.New("location unavailable")
)

// ErrorKind is a structured classification of a failure for presentation.
type ErrorKind string

const (
	KindUnknown  ErrorKind = "unknown"
	KindNetwork  ErrorKind = "network"
	KindNotFound ErrorKind = "not_found"
	KindParse    ErrorKind = "parse"
	KindLocation ErrorKind = "location"
)

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrLocation):
		return KindLocation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	default:
		return KindUnknown
	}
}
