package redmine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := Options{BaseURL: srv.URL + "/", APIKey: "secret"}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "", APIKey: "k"})
	assert.True(t, errortypes.Is(err, errortypes.KindConfig))

	_, err = NewClient(Options{BaseURL: "ftp://example.com", APIKey: "k"})
	assert.True(t, errortypes.Is(err, errortypes.KindConfig))

	_, err = NewClient(Options{BaseURL: "https://example.com"})
	assert.True(t, errortypes.Is(err, errortypes.KindConfig))

	c, err := NewClient(Options{BaseURL: "https://example.com/redmine/", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/redmine", c.BaseURL())
}

func TestCallSendsAuthAndJSONSuffix(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/1.json", r.URL.Path)
		assert.Equal(t, "relations", r.URL.Query().Get("include"))
		assert.Equal(t, "secret", r.Header.Get("X-Redmine-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"project":{"id":1,"name":"Demo"}}`)
	})

	resp, err := c.Call(context.Background(), Get(Path("projects", 1), url.Values{"include": {"relations"}}))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": float64(1), "name": "Demo"}, resp.Value("project"))
	assert.Equal(t, "application/json", resp.ContentType())
}

func TestCallBasicAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "pw", pass)
		assert.Empty(t, r.Header.Get("X-Redmine-API-Key"))
		w.WriteHeader(http.StatusNoContent)
	}, func(o *Options) {
		o.APIKey = ""
		o.Username = "admin"
		o.Password = "pw"
	})

	resp, err := c.Call(context.Background(), Delete(Path("issues", 5), nil))
	require.NoError(t, err)
	assert.True(t, resp.Empty())
	assert.Nil(t, resp.Value(""))
}

func TestJSONBodyPreservesUnicode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), "Überprüfung <日本語> & ✓")
		assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))

		var decoded map[string]map[string]string
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "Überprüfung <日本語> & ✓", decoded["issue"]["subject"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(raw)
	})

	body := map[string]interface{}{"issue": map[string]interface{}{"subject": "Überprüfung <日本語> & ✓"}}
	resp, err := c.Call(context.Background(), Post("/issues", body))
	require.NoError(t, err)
	assert.Equal(t, "Überprüfung <日本語> & ✓", resp.Get("issue.subject").String())
}

func TestPathEscapesUnicodeSegments(t *testing.T) {
	assert.Equal(t, "/projects/demo/wiki/Caf%C3%A9%20Notes", Path("projects", "demo", "wiki", "Café Notes"))
	assert.Equal(t, "/issues/42/watchers/7", Path("issues", 42, "watchers", 7))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/demo/wiki/Café Notes.json", r.URL.Path)
		_, _ = io.WriteString(w, `{}`)
	})
	_, err := c.Call(context.Background(), Get(Path("projects", "demo", "wiki", "Café Notes"), nil))
	require.NoError(t, err)
}

func TestBinaryUploadAndRawDownload(t *testing.T) {
	payload := []byte{0x00, 0xff, 0x10, 'a'}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/uploads.json":
			assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
			assert.Equal(t, "résumé.pdf", r.URL.Query().Get("filename"))
			raw, _ := io.ReadAll(r.Body)
			assert.Equal(t, payload, raw)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"upload":{"id":3,"token":"3.abc"}}`)
		case "/attachments/download/3":
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `attachment; filename="resume.pdf"; filename*=UTF-8''r%C3%A9sum%C3%A9.pdf`)
			_, _ = w.Write(payload)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	up := &Request{
		Method: http.MethodPost,
		Path:   "/uploads",
		Query:  url.Values{"filename": {"résumé.pdf"}},
		Body:   BinaryBody{Data: payload},
	}
	resp, err := c.Call(context.Background(), up)
	require.NoError(t, err)
	assert.Equal(t, "3.abc", resp.Get("upload.token").String())

	down := &Request{Method: http.MethodGet, Path: Path("attachments", "download", 3), Raw: true}
	resp, err = c.Call(context.Background(), down)
	require.NoError(t, err)
	assert.Equal(t, payload, resp.Body)
	assert.Equal(t, "résumé.pdf", resp.Filename())
	assert.Equal(t, "application/pdf", resp.ContentType())
	assert.Equal(t, int64(len(payload)), resp.Size())
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    errortypes.Kind
		details []string
	}{
		{"unauthorized", 401, "", errortypes.KindAuth, nil},
		{"forbidden", 403, "", errortypes.KindAuth, nil},
		{"not found", 404, "", errortypes.KindNotFound, nil},
		{"unprocessable", 422, `{"errors":["Name can't be blank","Identifier is invalid"]}`, errortypes.KindRemoteValidation, []string{"Name can't be blank", "Identifier is invalid"}},
		{"conflict", 409, `{"errors":"stale object"}`, errortypes.KindRemoteValidation, []string{"stale object"}},
		{"too many requests", 429, "", errortypes.KindTransient, nil},
		{"server error", 500, "<html>boom</html>", errortypes.KindTransient, nil},
		{"bad gateway", 502, "", errortypes.KindTransient, nil},
		{"teapot", 418, "", errortypes.KindInternal, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Call(context.Background(), Get(Path("issues", 9999), nil))
			require.Error(t, err)

			appErr := errortypes.As(err)
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.details, appErr.Details)
			for _, d := range tt.details {
				assert.Contains(t, appErr.Message, d)
			}
		})
	}
}

func TestTimeoutIsDistinctFromServerError(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(o *Options) { o.Timeout = 50 * time.Millisecond })
	defer close(release)

	_, err := c.Call(context.Background(), Get("/projects", nil))
	require.Error(t, err)
	assert.Equal(t, errortypes.KindTimeout, errortypes.KindOf(err))
}

func TestUploadUsesLongerTimeout(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "https://example.com", APIKey: "k", Timeout: time.Second})
	require.NoError(t, err)

	assert.Equal(t, time.Second, c.timeoutFor(Get("/projects", nil)))
	assert.Equal(t, DefaultUploadTimeout, c.timeoutFor(&Request{Method: http.MethodPost, Path: "/uploads", Body: BinaryBody{}}))
	assert.Equal(t, DefaultUploadTimeout, c.timeoutFor(&Request{Method: http.MethodGet, Path: "/attachments/download/1", Raw: true}))
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: base, APIKey: "k"})
	require.NoError(t, err)
	_, err = c.Call(context.Background(), Get("/projects", nil))
	assert.Equal(t, errortypes.KindTransient, errortypes.KindOf(err))
}

func TestMetricsRecorded(t *testing.T) {
	metrics := telemetry.NewMetricsCollector()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, func(o *Options) { o.Metrics = metrics })

	_, _ = c.Call(context.Background(), Get("/issues/1", nil))
	assert.Equal(t, int64(1), metrics.GetCounter(telemetry.MetricHTTPRequests))
	assert.Equal(t, int64(1), metrics.GetCounter(telemetry.MetricHTTPErrors))
	assert.Equal(t, int64(1), metrics.GetCounter(telemetry.Name(telemetry.MetricHTTPStatus, 404)))
}

func TestExtraHeadersOverrideDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.Header.Get("X-Redmine-Switch-User-Test"))
		assert.Equal(t, "custom", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{}`)
	})
	req := Get("/projects", nil)
	req.Header = http.Header{"X-Redmine-Switch-User-Test": {"1"}, "User-Agent": {"custom"}}
	_, err := c.Call(context.Background(), req)
	require.NoError(t, err)
}
