package redmine

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
)

// Response is the outcome of a successful (2xx) call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Get returns the value at the gjson path in a JSON body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Value decodes the value at path into plain Go values
// (map[string]interface{}, []interface{}, float64, string, bool or nil).
// An empty path decodes the whole body.
func (r *Response) Value(path string) interface{} {
	if len(r.Body) == 0 {
		return nil
	}
	if path == "" {
		return gjson.ParseBytes(r.Body).Value()
	}
	return r.Get(path).Value()
}

// Empty reports whether the remote returned no content.
func (r *Response) Empty() bool {
	return r.Status == http.StatusNoContent || len(r.Body) == 0
}

// ContentType returns the media type of the body without parameters.
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}

// Filename extracts the filename from Content-Disposition, preferring the
// RFC 5987 filename* form so that non-ASCII names round-trip.
func (r *Response) Filename() string {
	cd := r.Header.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	// mime.ParseMediaType decodes filename*=UTF-8''... into "filename".
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// Size returns the declared Content-Length or the body length.
func (r *Response) Size() int64 {
	if cl := r.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			return n
		}
	}
	return int64(len(r.Body))
}
