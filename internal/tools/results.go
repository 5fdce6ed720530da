package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/redmine"
)

// Pagination bounds. Redmine itself never returns more than 100 items per page.
const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// ListResult is the payload of every list operation.
type ListResult struct {
	Items      []interface{} `json:"items"`
	TotalCount int           `json:"total_count"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
	HasMore    bool          `json:"has_more"`
	NextOffset *int          `json:"next_offset,omitempty"`
	// LimitCapped is set when the requested limit exceeded MaxLimit.
	LimitCapped    bool `json:"limit_capped,omitempty"`
	RequestedLimit int  `json:"requested_limit,omitempty"`
}

// StatusResult confirms a mutation that has no entity to return.
type StatusResult map[string]interface{}

// page is the validated pagination of one list call.
type page struct {
	limit     int
	offset    int
	requested int
	capped    bool
}

func pageOf(args Args) (page, error) {
	p := page{limit: DefaultLimit}
	if args.Has("limit") {
		n, ok := args.Int("limit")
		if !ok || n < 1 {
			return p, errortypes.ValidationError(nil, "limit must be a positive integer")
		}
		p.limit = n
	}
	if args.Has("offset") {
		n, ok := args.Int("offset")
		if !ok || n < 0 {
			return p, errortypes.ValidationError(nil, "offset must be a non-negative integer")
		}
		p.offset = n
	}
	if p.limit > MaxLimit {
		p.requested = p.limit
		p.limit = MaxLimit
		p.capped = true
	}
	return p, nil
}

// listPaged fetches one page of a paginated collection.
func listPaged(ctx context.Context, c redmine.Caller, path, key string, query url.Values, args Args) (*ListResult, error) {
	p, err := pageOf(args)
	if err != nil {
		return nil, err
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", fmt.Sprint(p.limit))
	query.Set("offset", fmt.Sprint(p.offset))

	resp, err := c.Call(ctx, redmine.Get(path, query))
	if err != nil {
		return nil, err
	}

	res := &ListResult{
		Items:  itemsOf(resp, key),
		Limit:  p.limit,
		Offset: p.offset,
	}
	if v := resp.Get("limit"); v.Exists() {
		res.Limit = int(v.Int())
	}
	if v := resp.Get("offset"); v.Exists() {
		res.Offset = int(v.Int())
	}
	res.TotalCount = res.Offset + len(res.Items)
	if v := resp.Get("total_count"); v.Exists() {
		res.TotalCount = int(v.Int())
	}
	if consumed := res.Offset + len(res.Items); res.TotalCount > consumed {
		res.HasMore = true
		res.NextOffset = &consumed
	}
	if p.capped {
		res.LimitCapped = true
		res.RequestedLimit = p.requested
	}
	return res, nil
}

// listAll fetches a collection the remote returns in a single response.
func listAll(ctx context.Context, c redmine.Caller, path, key string, query url.Values) (*ListResult, error) {
	resp, err := c.Call(ctx, redmine.Get(path, query))
	if err != nil {
		return nil, err
	}
	items := itemsOf(resp, key)
	return &ListResult{Items: items, TotalCount: len(items), Limit: len(items)}, nil
}

func itemsOf(resp *redmine.Response, key string) []interface{} {
	items, _ := resp.Value(key).([]interface{})
	if items == nil {
		items = []interface{}{}
	}
	return items
}

// getEntity fetches one entity and unwraps it from its root key.
func getEntity(ctx context.Context, c redmine.Caller, path, key string, query url.Values) (interface{}, error) {
	resp, err := c.Call(ctx, redmine.Get(path, query))
	if err != nil {
		return nil, err
	}
	return unwrap(resp, key), nil
}

// createEntity posts {key: fields} and returns the created entity.
func createEntity(ctx context.Context, c redmine.Caller, path, key string, fields map[string]interface{}) (interface{}, error) {
	resp, err := c.Call(ctx, redmine.Post(path, map[string]interface{}{key: fields}))
	if err != nil {
		return nil, err
	}
	if resp.Empty() {
		return StatusResult{"status": "created"}, nil
	}
	return unwrap(resp, key), nil
}

// updateEntity puts {key: fields}, sending only the supplied fields, and
// re-fetches the entity from getPath when one is given. A failed re-fetch
// is reported as refetch_error on the updated result, never as a failure.
func updateEntity(ctx context.Context, c redmine.Caller, path, key string, fields map[string]interface{}, idName string, id interface{}, getPath string) (interface{}, error) {
	if len(fields) == 0 {
		return nil, errortypes.ValidationError(nil, fmt.Sprintf("no fields to update for %s %v", key, id))
	}
	if _, err := c.Call(ctx, redmine.Put(path, map[string]interface{}{key: fields})); err != nil {
		return nil, errortypes.WithResource(err, id)
	}
	result := StatusResult{"status": "updated", idName: id}
	if getPath == "" {
		return result, nil
	}
	entity, err := getEntity(ctx, c, getPath, key, nil)
	if err != nil {
		// The change is already applied remotely; report it and say why the entity is missing.
		result["refetch_error"] = fmt.Sprintf("%s: %s", errortypes.KindOf(err), errortypes.As(err).Message)
		return result, nil
	}
	result[key] = entity
	return result, nil
}

// deleteEntity deletes path and confirms.
func deleteEntity(ctx context.Context, c redmine.Caller, path string, query url.Values, idName string, id interface{}) (interface{}, error) {
	if _, err := c.Call(ctx, redmine.Delete(path, query)); err != nil {
		return nil, errortypes.WithResource(err, id)
	}
	return StatusResult{"status": "deleted", idName: id}, nil
}

func unwrap(resp *redmine.Response, key string) interface{} {
	if resp.Empty() {
		return nil
	}
	if v := resp.Get(key); v.Exists() {
		return v.Value()
	}
	return resp.Value("")
}

// idOf returns the supplied identifier in its JSON form. Digit strings
// become integers and identifiers are trimmed, matching Ref.
func idOf(args Args, name string) interface{} {
	if s, ok := args[name].(string); ok {
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return s
	}
	return normalize(args[name])
}

// includeQuery renders the include[] argument as Redmine's include parameter.
func includeQuery(args Args, query url.Values) url.Values {
	if query == nil {
		query = url.Values{}
	}
	if inc := args.Strings("include"); len(inc) > 0 {
		query.Set("include", strings.Join(inc, ","))
	}
	return query
}

// filterQuery copies supplied scalar arguments into query parameters.
// A name of the form "arg=param" renames the argument.
func filterQuery(args Args, names ...string) url.Values {
	query := url.Values{}
	for _, name := range names {
		arg, param := name, name
		if i := strings.IndexByte(name, '='); i >= 0 {
			arg, param = name[:i], name[i+1:]
		}
		if !args.Has(arg) {
			continue
		}
		if b, ok := args.Bool(arg); ok {
			if b {
				query.Set(param, "1")
			} else {
				query.Set(param, "0")
			}
			continue
		}
		query.Set(param, args.String(arg))
	}
	return query
}

func validationErrorf(format string, a ...interface{}) error {
	return errortypes.ValidationError(nil, fmt.Sprintf(format, a...))
}

// withID enriches err with the identifier argument.
func withID(err error, args Args, name string) error {
	if err == nil {
		return nil
	}
	return errortypes.WithResource(err, args.String(name))
}
