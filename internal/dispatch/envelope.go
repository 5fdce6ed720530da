package dispatch

import (
	"bytes"
	"encoding/json"

	"github.com/localrivet/redminemcp/internal/errortypes"
)

// Envelope is the uniform answer to every dispatch.
type Envelope struct {
	Success bool         `json:"success"`
	Payload interface{}  `json:"payload,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail is the error half of an Envelope.
type ErrorDetail struct {
	Kind       errortypes.Kind `json:"kind"`
	Message    string          `json:"message"`
	Operation  string          `json:"operation,omitempty"`
	ResourceID string          `json:"resource_id,omitempty"`
	Status     int             `json:"status,omitempty"`
	Details    []string        `json:"details,omitempty"`
}

// Success wraps a handler result.
func Success(payload interface{}) Envelope {
	return Envelope{Success: true, Payload: payload}
}

// Failure converts any error into the error form of an Envelope.
func Failure(err error) Envelope {
	appErr := errortypes.As(err)
	return Envelope{
		Error: &ErrorDetail{
			Kind:       appErr.Kind,
			Message:    appErr.Message,
			Operation:  appErr.Operation,
			ResourceID: appErr.ResourceID,
			Status:     appErr.Status,
			Details:    appErr.Details,
		},
	}
}

// Err converts the detail back into an error of the same kind.
func (d *ErrorDetail) Err() *errortypes.AppError {
	err := errortypes.New(d.Kind, nil, d.Message).WithStatus(d.Status).WithDetails(d.Details...)
	err.Operation = d.Operation
	err.ResourceID = d.ResourceID
	return err
}

// JSON encodes the envelope as UTF-8 JSON, leaving non-ASCII text and
// HTML-significant characters unescaped.
func (e Envelope) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Indented is JSON with two-space indentation.
func (e Envelope) Indented() ([]byte, error) {
	raw, err := e.JSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
