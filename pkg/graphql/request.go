package graphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxRequestBodySize is the maximum allowed request body size (1MB).
const MaxRequestBodySize = 1 << 20

// ErrEmptyQuery is returned when a request carries no operation text.
var ErrEmptyQuery = errors.New("query is required")

// DecodeRequest reads a GraphQL request from GET query parameters or a POST
// body. POST bodies may be application/json or application/graphql.
func DecodeRequest(r *http.Request) (*Request, error) {
	var req *Request
	var err error

	switch r.Method {
	case http.MethodGet:
		req, err = decodeGetRequest(r)
	case http.MethodPost:
		req, err = decodePostRequest(r)
	default:
		return nil, fmt.Errorf("method %s not allowed", r.Method)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	return req, nil
}

func decodeGetRequest(r *http.Request) (*Request, error) {
	query := r.URL.Query()

	req := &Request{
		Query:         query.Get("query"),
		OperationName: query.Get("operationName"),
	}

	if varsStr := query.Get("variables"); varsStr != "" {
		var variables map[string]any
		if err := json.Unmarshal([]byte(varsStr), &variables); err != nil {
			return nil, errors.New("invalid variables JSON")
		}
		req.Variables = variables
	}

	return req, nil
}

func decodePostRequest(r *http.Request) (*Request, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	defer func() { _ = r.Body.Close() }()

	if len(body) == 0 {
		return nil, errors.New("empty request body")
	}
	if len(body) > MaxRequestBodySize {
		return nil, fmt.Errorf("request body exceeds %d bytes", MaxRequestBodySize)
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/graphql") {
		return &Request{Query: string(body)}, nil
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.New("invalid JSON request body")
	}
	return &req, nil
}
