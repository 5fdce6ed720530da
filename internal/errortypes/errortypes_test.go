package errortypes

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetKind(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name string
		err  *AppError
		want Kind
	}{
		{"validation", ValidationError(base, "bad"), KindValidation},
		{"not found", NotFoundError(base, "missing"), KindNotFound},
		{"auth", AuthError(base, "denied"), KindAuth},
		{"remote validation", RemoteValidationError(base, "rejected"), KindRemoteValidation},
		{"timeout", TimeoutError(base, "slow"), KindTimeout},
		{"transient", TransientServerError(base, "down"), KindTransient},
		{"internal", InternalError(base, "oops"), KindInternal},
		{"config", ConfigError(base, "cfg"), KindConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Kind)
			assert.Equal(t, tt.want, KindOf(tt.err))
			assert.True(t, Is(tt.err, tt.want))
			assert.ErrorIs(t, tt.err, base)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := ValidationError(nil, `missing required parameter "subject"`)
	assert.Equal(t, `missing required parameter "subject"`, err.Error())

	wrapped := NotFoundError(errors.New("HTTP 404"), "issue not found")
	assert.Equal(t, "issue not found: HTTP 404", wrapped.Error())
}

func TestUnknownOperationNamesValue(t *testing.T) {
	err := UnknownOperationError("frobnicate")
	assert.Equal(t, KindUnknownOperation, err.Kind)
	assert.Contains(t, err.Error(), `"frobnicate"`)
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.False(t, Is(errors.New("plain"), KindNotFound))
}

func TestWithResourceAndOperation(t *testing.T) {
	err := NotFoundError(nil, "gone").WithStatus(404)
	enriched := WithResource(fmt.Errorf("wrapped: %w", err), 9999)

	var appErr *AppError
	require.ErrorAs(t, enriched, &appErr)
	assert.Equal(t, "9999", appErr.ResourceID)
	assert.Equal(t, 404, appErr.Status)

	// the first identifier wins
	_ = WithResource(appErr, 1)
	assert.Equal(t, "9999", appErr.ResourceID)

	op := WithOperation(appErr, "get_issue")
	assert.Equal(t, "get_issue", op.Operation)
	assert.Equal(t, "get_issue", WithOperation(op, "other").Operation)

	assert.Nil(t, WithResource(nil, 1))
}

func TestAsWrapsForeignErrors(t *testing.T) {
	appErr := As(errors.New("plain"))
	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, "plain", appErr.Error())
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	err := RemoteValidationError(nil, "Name can't be blank").
		WithStatus(422).
		WithField("path", "/projects.json")
	err.Operation = "create_project"
	LogError(logger, err)

	out := buf.String()
	assert.Contains(t, out, "RemoteValidationError")
	assert.Contains(t, out, "create_project")
	assert.Contains(t, out, "status=422")
	assert.Contains(t, out, "/projects.json")

	buf.Reset()
	LogError(logger, errors.New("plain failure"))
	assert.Contains(t, buf.String(), "plain failure")
}
