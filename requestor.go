package reddit

import (
	"context"
	"fmt"
	"net/url"
)

// Requestor is the remote-service collaborator injected into every model object.
// endpoint is an operation name from Endpoints, path is relative to the API base.
// *Client is the production implementation.
type Requestor interface {
	Get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error)
	Post(ctx context.Context, endpoint, path string, form url.Values) ([]byte, error)
}

// getPath expands an endpoint and issues a GET through r.
func getPath(ctx context.Context, r Requestor, endpoint string, params url.Values, args ...string) ([]byte, error) {
	if r == nil {
		return nil, newValueError("requestor", "object is not bound to a requestor")
	}
	path, err := EndpointPath(endpoint, args...)
	if err != nil {
		return nil, err
	}
	body, err := r.Get(ctx, endpoint, path, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	return body, nil
}

// postAction expands an endpoint, posts an api_type=json form and surfaces json.errors.
func postAction(ctx context.Context, r Requestor, endpoint string, form url.Values, args ...string) ([]byte, error) {
	if r == nil {
		return nil, newValueError("requestor", "object is not bound to a requestor")
	}
	path, err := EndpointPath(endpoint, args...)
	if err != nil {
		return nil, err
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("api_type", "json")
	body, err := r.Post(ctx, endpoint, path, form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	if apiErr := parseAPIErrors(body); apiErr != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, apiErr)
	}
	return body, nil
}
