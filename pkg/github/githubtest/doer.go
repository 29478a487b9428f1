// Package githubtest provides in-memory REST and GraphQL doubles for service
// tests. Responses are routed by "METHOD path" and returned as JSON, the same
// way the real client decodes them.
package githubtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Call records one REST request made against the fake.
type Call struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// Handler produces the response payload for a routed request. The payload is
// JSON round-tripped into the caller's response struct. Return an error
// (typically *api.HTTPError) to simulate a failed request.
type Handler func(body map[string]interface{}) (interface{}, error)

// FakeREST implements the REST doer interface with canned, path-routed
// responses. Unrouted requests fail loudly so tests cannot silently pass on
// requests they never declared.
type FakeREST struct {
	mu       sync.Mutex
	calls    []Call
	handlers map[string]Handler

	// RawFunc serves Request calls when set. Used for log-download tests.
	RawFunc func(method, path string) (*http.Response, error)
}

func NewFakeREST() *FakeREST {
	return &FakeREST{handlers: map[string]Handler{}}
}

// Handle routes "METHOD path" to a handler.
func (f *FakeREST) Handle(method, path string, h Handler) {
	f.handlers[method+" "+path] = h
}

// Respond routes "METHOD path" to a fixed payload.
func (f *FakeREST) Respond(method, path string, payload interface{}) {
	f.Handle(method, path, func(map[string]interface{}) (interface{}, error) {
		return payload, nil
	})
}

// FailWith routes "METHOD path" to a fixed error.
func (f *FakeREST) FailWith(method, path string, err error) {
	f.Handle(method, path, func(map[string]interface{}) (interface{}, error) {
		return nil, err
	})
}

// Calls returns a snapshot of every recorded request in order.
func (f *FakeREST) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many requests matched "METHOD path".
func (f *FakeREST) CallCount(method, path string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (f *FakeREST) do(method, path string, body io.Reader, response interface{}) error {
	var decoded map[string]interface{}
	if body != nil {
		data, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &decoded); err != nil {
				return fmt.Errorf("request body is not a JSON object: %w", err)
			}
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Path: path, Body: decoded})
	h, ok := f.handlers[method+" "+path]
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("unexpected request: %s %s", method, path)
	}

	payload, err := h(decoded)
	if err != nil {
		return err
	}
	if response == nil || payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, response)
}

func (f *FakeREST) Get(path string, response interface{}) error {
	return f.do("GET", path, nil, response)
}

func (f *FakeREST) Post(path string, body io.Reader, response interface{}) error {
	return f.do("POST", path, body, response)
}

func (f *FakeREST) Patch(path string, body io.Reader, response interface{}) error {
	return f.do("PATCH", path, body, response)
}

func (f *FakeREST) Put(path string, body io.Reader, response interface{}) error {
	return f.do("PUT", path, body, response)
}

func (f *FakeREST) Delete(path string, response interface{}) error {
	return f.do("DELETE", path, nil, response)
}

func (f *FakeREST) Request(method string, path string, body io.Reader) (*http.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Path: path})
	f.mu.Unlock()
	if f.RawFunc != nil {
		return f.RawFunc(method, path)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

// FakeGraphQL implements the GraphQL doer interface.
type FakeGraphQL struct {
	mu    sync.Mutex
	calls []GraphQLCall

	// DoFunc handles every query. The response is filled by JSON
	// round-tripping the returned payload.
	DoFunc func(query string, variables map[string]interface{}) (interface{}, error)
}

// GraphQLCall records one GraphQL request made against the fake.
type GraphQLCall struct {
	Query     string
	Variables map[string]interface{}
}

func (f *FakeGraphQL) Do(query string, variables map[string]interface{}, response interface{}) error {
	f.mu.Lock()
	f.calls = append(f.calls, GraphQLCall{Query: query, Variables: variables})
	f.mu.Unlock()

	if f.DoFunc == nil {
		return fmt.Errorf("unexpected GraphQL request")
	}
	payload, err := f.DoFunc(query, variables)
	if err != nil {
		return err
	}
	if response == nil || payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, response)
}

// Calls returns a snapshot of every recorded GraphQL request in order.
func (f *FakeGraphQL) Calls() []GraphQLCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]GraphQLCall(nil), f.calls...)
}
