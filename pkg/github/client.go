package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cli/go-gh/v2/pkg/api"
)

// RESTDoer is the subset of the go-gh REST client used by this server.
// Satisfied by *api.RESTClient; mocked in tests.
type RESTDoer interface {
	Get(path string, response interface{}) error
	Post(path string, body io.Reader, response interface{}) error
	Patch(path string, body io.Reader, response interface{}) error
	Put(path string, body io.Reader, response interface{}) error
	Delete(path string, response interface{}) error
	Request(method string, path string, body io.Reader) (*http.Response, error)
}

// GraphQLDoer is the subset of the go-gh GraphQL client used by this server.
type GraphQLDoer interface {
	Do(query string, variables map[string]interface{}, response interface{}) error
}

// Client wraps the GitHub REST and GraphQL clients behind one object that is
// constructed once at startup and passed to every service explicitly. There
// is no package-level singleton.
type Client struct {
	rest RESTDoer
	gql  GraphQLDoer
}

// NewClient creates an authenticated client from a token. The token is not
// verified here; the first API call will fail with 401 if it is invalid.
func NewClient(token string) (*Client, error) {
	opts := api.ClientOptions{AuthToken: token}

	restClient, err := api.NewRESTClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}

	gqlClient, err := api.NewGraphQLClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL client: %w", err)
	}

	return &Client{rest: restClient, gql: gqlClient}, nil
}

// NewClientWith builds a client around pre-constructed REST and GraphQL
// implementations. Used by tests to bind mocks.
func NewClientWith(rest RESTDoer, gql GraphQLDoer) *Client {
	return &Client{rest: rest, gql: gql}
}

// Get issues a GET request and decodes the JSON response into response.
func (c *Client) Get(path string, response interface{}) error {
	return c.rest.Get(path, response)
}

// Post issues a POST request with a JSON-encoded body.
func (c *Client) Post(path string, body interface{}, response interface{}) error {
	r, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.rest.Post(path, r, response)
}

// Patch issues a PATCH request with a JSON-encoded body.
func (c *Client) Patch(path string, body interface{}, response interface{}) error {
	r, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.rest.Patch(path, r, response)
}

// Put issues a PUT request with a JSON-encoded body.
func (c *Client) Put(path string, body interface{}, response interface{}) error {
	r, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.rest.Put(path, r, response)
}

// Delete issues a DELETE request.
func (c *Client) Delete(path string, response interface{}) error {
	return c.rest.Delete(path, response)
}

// Raw issues a request and returns the raw HTTP response. The caller owns
// the response body. Used for endpoints that redirect to blob storage,
// such as CI log downloads.
func (c *Client) Raw(method, path string) (*http.Response, error) {
	return c.rest.Request(method, path, nil)
}

// GraphQL executes a GraphQL query or mutation.
func (c *Client) GraphQL(query string, variables map[string]interface{}, response interface{}) error {
	return c.gql.Do(query, variables, response)
}

func encodeBody(body interface{}) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(data), nil
}
