package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a fresh command tree with args and captures stdout/stderr.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	root := newRootCmd()
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

// isolated returns flags pointing config and env files at an empty temp dir.
func isolated(t *testing.T, url string) []string {
	t.Helper()
	dir := t.TempDir()
	flags := []string{
		"--config", filepath.Join(dir, "absent.json"),
		"--env-file", filepath.Join(dir, "absent.env"),
		"--log-level", "error",
	}
	if url != "" {
		flags = append(flags, "--url", url, "--api-key", "cli-key")
	}
	return flags
}

func fakeRedmine(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Redmine-API-Key") != "cli-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users/current.json":
			_, _ = w.Write([]byte(`{"user":{"id":1,"login":"admin"}}`))
		case "/issues/7.json":
			_, _ = w.Write([]byte(`{"issue":{"id":7,"subject":"Überprüfung"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %T: %v", err, err)
	return exitErr.Code
}

func TestToolsListsCatalog(t *testing.T) {
	out, _, err := executeCommand(append([]string{"tools"}, isolated(t, "")...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "get_issue")
	assert.Contains(t, out, "download_attachment")
}

func TestToolsDescribesOne(t *testing.T) {
	out, _, err := executeCommand(append([]string{"tools", "create_issue_relation"}, isolated(t, "")...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "relation_type")
	assert.Contains(t, out, "precedes")

	_, _, err = executeCommand(append([]string{"tools", "no_such_tool"}, isolated(t, "")...)...)
	assert.Equal(t, exitFailure, exitCode(t, err))
}

func TestToolsJSONSchemas(t *testing.T) {
	out, _, err := executeCommand(append([]string{"tools", "--json", "get_issue"}, isolated(t, "")...)...)
	require.NoError(t, err)

	var defs []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &defs))
	require.Len(t, defs, 1)
	assert.Equal(t, "get_issue", defs[0]["name"])
	schema := defs[0]["inputSchema"].(map[string]interface{})
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema["required"], "issue_id")
}

func TestCallPrintsEnvelope(t *testing.T) {
	srv := fakeRedmine(t)
	args := append([]string{"call", "get_issue", `{"issue_id": 7}`}, isolated(t, srv.URL)...)

	out, _, err := executeCommand(args...)
	require.NoError(t, err)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, true, env["success"])
	assert.Contains(t, out, "Überprüfung")
}

func TestCallFailureExitCode(t *testing.T) {
	srv := fakeRedmine(t)

	out, _, err := executeCommand(append([]string{"call", "get_issue", `{"issue_id": 8}`}, isolated(t, srv.URL)...)...)
	assert.Equal(t, exitToolFailed, exitCode(t, err))
	assert.Contains(t, out, "NotFoundError")

	_, _, err = executeCommand(append([]string{"call", "get_issue", `[1,2]`}, isolated(t, srv.URL)...)...)
	assert.Equal(t, exitInputParse, exitCode(t, err))
}

func TestCallWithoutCredentials(t *testing.T) {
	_, _, err := executeCommand(append([]string{"call", "get_current_user"}, isolated(t, "")...)...)
	assert.Equal(t, exitConfig, exitCode(t, err))
}

func TestReadArguments(t *testing.T) {
	args, err := readArguments(strings.NewReader(`{"project_id":"demo"}`), []string{"-"}, "")
	require.NoError(t, err)
	assert.Equal(t, "demo", args["project_id"])

	args, err = readArguments(nil, nil, "")
	require.NoError(t, err)
	assert.Empty(t, args)

	path := filepath.Join(t.TempDir(), "args.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"limit": 5}`), 0600))
	args, err = readArguments(nil, []string{`{"ignored":true}`}, path)
	require.NoError(t, err)
	assert.Equal(t, float64(5), args["limit"])

	args, err = readArguments(nil, []string{"null"}, "")
	require.NoError(t, err)
	assert.NotNil(t, args)
}

func TestCheck(t *testing.T) {
	srv := fakeRedmine(t)

	out, _, err := executeCommand(append([]string{"check"}, isolated(t, srv.URL)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `as "admin"`)

	flags := isolated(t, srv.URL)
	flags[len(flags)-1] = "wrong-key"
	_, _, err = executeCommand(append([]string{"check"}, flags...)...)
	assert.Equal(t, exitUnreachable, exitCode(t, err))
}

func TestConfigInitWritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redmine.json")
	flags := isolated(t, "https://redmine.example.com")

	out, _, err := executeCommand(append([]string{"config", "init", path}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "https://redmine.example.com")
	assert.NotContains(t, string(raw), "cli-key")

	_, _, err = executeCommand(append([]string{"config", "init", path}, flags...)...)
	assert.Equal(t, exitFailure, exitCode(t, err))
}

func TestConfigShowMasksCredentials(t *testing.T) {
	out, _, err := executeCommand(append([]string{"config", "show"}, isolated(t, "https://redmine.example.com")...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "cli-key")
}
