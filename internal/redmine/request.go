// Package redmine is the transport client for the Redmine REST API.
//
// A Request describes one HTTP exchange. Its Body is either a JSONBody,
// encoded as UTF-8 JSON without escaping non-ASCII text, or a BinaryBody
// sent as an octet stream. Paths are written without the ".json" suffix;
// the client adds it for structured calls and leaves Raw calls untouched.
package redmine

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Body is the payload of a Request. It is implemented only by JSONBody and
// BinaryBody.
type Body interface {
	isBody()
}

// JSONBody is a structured payload sent as application/json.
type JSONBody struct {
	Value interface{}
}

// BinaryBody is a raw payload, used for file uploads.
type BinaryBody struct {
	Data        []byte
	ContentType string
}

func (JSONBody) isBody()   {}
func (BinaryBody) isBody() {}

// Request is a single call against the remote API.
type Request struct {
	Method string
	// Path is relative to the base URL, e.g. Path("issues", 42).
	Path  string
	Query url.Values
	Body  Body
	// Header holds extra headers merged over the defaults.
	Header http.Header
	// Raw requests binary content; the response body is returned untouched.
	Raw bool
}

// Get builds a GET request.
func Get(path string, query url.Values) *Request {
	return &Request{Method: http.MethodGet, Path: path, Query: query}
}

// Post builds a POST request with a JSON body.
func Post(path string, value interface{}) *Request {
	return &Request{Method: http.MethodPost, Path: path, Body: JSONBody{Value: value}}
}

// Put builds a PUT request with a JSON body. A nil value sends no body.
func Put(path string, value interface{}) *Request {
	req := &Request{Method: http.MethodPut, Path: path}
	if value != nil {
		req.Body = JSONBody{Value: value}
	}
	return req
}

// Delete builds a DELETE request.
func Delete(path string, query url.Values) *Request {
	return &Request{Method: http.MethodDelete, Path: path, Query: query}
}

// binary reports whether the call moves file content in either direction.
func (r *Request) binary() bool {
	if r.Raw {
		return true
	}
	_, ok := r.Body.(BinaryBody)
	return ok
}

// String renders the request line for logs and error messages.
func (r *Request) String() string {
	return r.Method + " " + r.Path
}

// Path joins segments into an API path, percent-encoding each one so that
// identifiers, wiki titles and filenames with arbitrary Unicode survive.
func Path(segments ...interface{}) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(fmt.Sprint(s)))
	}
	return b.String()
}
