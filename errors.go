package reddit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	// ErrInvalidArgument is returned when a constructor receives an invalid combination of arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidValue is returned when a supplied value is syntactically invalid.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNoAttribute is returned when a field is absent even after fetching.
	ErrNoAttribute = errors.New("no such attribute")

	// ErrAPI is returned when Reddit reports errors in a json response envelope.
	ErrAPI = errors.New("reddit API error")

	// ErrNotFound is returned for HTTP 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidGrant is returned when the token endpoint rejects the client or account credentials.
	ErrInvalidGrant = errors.New("credentials rejected")
)

// ArgumentError reports a usage error detected at construction time.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string { return e.Message }

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// ValueError reports an invalid value for a named field.
type ValueError struct {
	Field   string
	Message string
}

func (e *ValueError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValueError) Is(target error) bool { return target == ErrInvalidValue }

// AttributeError reports a field that the remote object does not carry.
type AttributeError struct {
	Type string
	Name string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%s has no attribute %q", e.Type, e.Name)
}

func (e *AttributeError) Is(target error) bool { return target == ErrNoAttribute }

// APIError is a single error entry from Reddit's {"json":{"errors":[...]}} envelope.
type APIError struct {
	Code    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s on field %q", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }

func newValueError(field, message string) error {
	return &ValueError{Field: field, Message: message}
}

// errorClass categorizes Reddit responses for targeted handling.
type errorClass int

const (
	errNone         errorClass = iota
	errUnauthorized            // 401: token expired or revoked
	errForbidden               // 403: not allowed for this account
	errNotFound                // 404
	errRateLimited             // 429
	errServer                  // 5xx
	errAPI                     // 200 with json.errors
	errInvalidGrant            // token endpoint rejected the credentials
)

// classifyError inspects a response status and body for known Reddit failure modes.
func classifyError(status int, body []byte) errorClass {
	switch {
	case status == 401:
		return errUnauthorized
	case status == 403:
		return errForbidden
	case status == 404:
		return errNotFound
	case status == 429:
		return errRateLimited
	case status >= 500:
		return errServer
	}

	var probe struct {
		Error any `json:"error"`
		JSON  struct {
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if json.Unmarshal(body, &probe) != nil {
		return errNone
	}
	if probe.Error == "invalid_grant" || probe.Error == "unauthorized_client" {
		return errInvalidGrant
	}
	if len(probe.JSON.Errors) > 0 {
		return errAPI
	}
	return errNone
}

// parseAPIErrors extracts the json.errors triples from an api_type=json response.
// It returns nil when the body carries no errors.
func parseAPIErrors(body []byte) error {
	var env struct {
		JSON struct {
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if json.Unmarshal(body, &env) != nil || len(env.JSON.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(env.JSON.Errors))
	for _, triple := range env.JSON.Errors {
		apiErr := &APIError{}
		if len(triple) > 0 {
			apiErr.Code = fmt.Sprint(triple[0])
		}
		if len(triple) > 1 {
			apiErr.Message = fmt.Sprint(triple[1])
		}
		if len(triple) > 2 && triple[2] != nil {
			apiErr.Field = fmt.Sprint(triple[2])
		}
		errs = append(errs, apiErr)
	}
	return errors.Join(errs...)
}

// parseRateLimitReset parses the x-ratelimit-reset header (seconds until the window resets).
// Falls back to 10 minutes from now if missing or invalid.
func parseRateLimitReset(v string) time.Time {
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
		return time.Now().Add(time.Duration(secs * float64(time.Second)))
	}
	return time.Now().Add(10 * time.Minute)
}
