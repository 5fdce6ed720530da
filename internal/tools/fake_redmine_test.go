package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localrivet/redminemcp/internal/redmine"
)

// fakeCaller records requests and answers them with respond.
type fakeCaller struct {
	mu      sync.Mutex
	calls   []*redmine.Request
	respond func(req *redmine.Request) (*redmine.Response, error)
}

func (f *fakeCaller) Call(_ context.Context, req *redmine.Request) (*redmine.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.respond == nil {
		return jsonResponse(http.StatusOK, `{}`), nil
	}
	return f.respond(req)
}

func (f *fakeCaller) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCaller) last() *redmine.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func jsonResponse(status int, body string) *redmine.Response {
	return &redmine.Response{
		Status: status,
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   []byte(body),
	}
}

// bodyOf returns the JSON body of req as generic values.
func bodyOf(t *testing.T, req *redmine.Request) map[string]interface{} {
	t.Helper()
	jb, ok := req.Body.(redmine.JSONBody)
	require.True(t, ok, "expected a JSON body, got %T", req.Body)
	raw, err := json.Marshal(jb.Value)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// fakeRedmine is an in-memory Redmine covering issues, uploads and
// attachments, served over HTTP so the real client is exercised.
type fakeRedmine struct {
	mu          sync.Mutex
	nextID      int64
	issues      map[string]map[string]interface{}
	uploads     map[string]fakeFile
	attachments map[string]fakeFile
	requests    int64
}

type fakeFile struct {
	id          string
	filename    string
	contentType string
	data        []byte
}

func newFakeRedmine(t *testing.T) (*fakeRedmine, *redmine.Client) {
	t.Helper()
	f := &fakeRedmine{
		nextID:      100,
		issues:      make(map[string]map[string]interface{}),
		uploads:     make(map[string]fakeFile),
		attachments: make(map[string]fakeFile),
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	client, err := redmine.NewClient(redmine.Options{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return f, client
}

func (f *fakeRedmine) id() string {
	f.nextID++
	return strconv.FormatInt(f.nextID, 10)
}

func (f *fakeRedmine) serve(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&f.requests, 1)
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimSuffix(r.URL.Path, ".json")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case r.Method == http.MethodPost && path == "/uploads":
		data, _ := io.ReadAll(r.Body)
		id := f.id()
		token := id + ".token"
		f.uploads[token] = fakeFile{filename: r.URL.Query().Get("filename"), data: data}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"upload": map[string]interface{}{"id": id, "token": token}})

	case r.Method == http.MethodPost && path == "/issues":
		var body struct {
			Issue map[string]interface{} `json:"issue"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Issue["subject"] == nil || body.Issue["subject"] == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": []string{"Subject cannot be blank"}})
			return
		}
		id := f.id()
		issue := map[string]interface{}{"id": json.Number(id)}
		f.applyIssue(issue, body.Issue)
		f.issues[id] = issue
		writeJSON(w, http.StatusCreated, map[string]interface{}{"issue": issue})

	case len(parts) == 2 && parts[0] == "issues":
		issue, ok := f.issues[parts[1]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]interface{}{"issue": issue})
		case http.MethodPut:
			var body struct {
				Issue map[string]interface{} `json:"issue"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.applyIssue(issue, body.Issue)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			delete(f.issues, parts[1])
			w.WriteHeader(http.StatusNoContent)
		}

	case len(parts) == 2 && parts[0] == "attachments" && r.Method == http.MethodGet:
		att, ok := f.attachments[parts[1]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"attachment": map[string]interface{}{
			"id":           json.Number(att.id),
			"filename":     att.filename,
			"filesize":     len(att.data),
			"content_type": att.contentType,
		}})

	case len(parts) == 3 && parts[0] == "attachments" && parts[1] == "download":
		att, ok := f.attachments[parts[2]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", att.contentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.filename}))
		_, _ = w.Write(att.data)

	default:
		http.Error(w, fmt.Sprintf("unhandled %s %s", r.Method, r.URL.Path), http.StatusNotImplemented)
	}
}

// applyIssue merges supplied fields into issue; uploads become attachments.
func (f *fakeRedmine) applyIssue(issue, fields map[string]interface{}) {
	for k, v := range fields {
		if k != "uploads" {
			issue[k] = v
			continue
		}
		list, _ := v.([]interface{})
		for _, item := range list {
			up, _ := item.(map[string]interface{})
			token, _ := up["token"].(string)
			file, ok := f.uploads[token]
			if !ok {
				continue
			}
			file.id = f.id()
			if name, _ := up["filename"].(string); name != "" {
				file.filename = name
			}
			file.contentType, _ = up["content_type"].(string)
			f.attachments[file.id] = file
			atts, _ := issue["attachments"].([]interface{})
			issue["attachments"] = append(atts, map[string]interface{}{"id": json.Number(file.id), "filename": file.filename})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
