package redmine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/tidwall/gjson"
)

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(req *Request, status int, body []byte) error {
	messages := remoteMessages(body)
	cause := fmt.Errorf("%s returned HTTP %d", req, status)

	var appErr *errortypes.AppError
	switch {
	case status == http.StatusUnauthorized:
		appErr = errortypes.AuthError(cause, "authentication failed; check the API key")
	case status == http.StatusForbidden:
		appErr = errortypes.AuthError(cause, "permission denied")
	case status == http.StatusNotFound:
		appErr = errortypes.NotFoundError(cause, "resource not found")
	case status == http.StatusUnprocessableEntity,
		status == http.StatusBadRequest,
		status == http.StatusConflict,
		status == http.StatusPreconditionFailed,
		status == http.StatusRequestEntityTooLarge,
		status == http.StatusUnsupportedMediaType:
		msg := strings.Join(messages, ", ")
		if msg == "" {
			msg = fmt.Sprintf("request rejected with HTTP %d", status)
		}
		appErr = errortypes.RemoteValidationError(cause, msg).WithDetails(messages...)
	case status == http.StatusTooManyRequests || status >= 500:
		appErr = errortypes.TransientServerError(cause, fmt.Sprintf("remote server error (HTTP %d)", status))
	default:
		appErr = errortypes.InternalError(cause, fmt.Sprintf("unexpected HTTP %d", status))
	}

	if appErr.Kind != errortypes.KindRemoteValidation && len(messages) > 0 {
		appErr.WithDetails(messages...)
	}
	return appErr.
		WithStatus(status).
		WithField("method", req.Method).
		WithField("path", req.Path)
}

// remoteMessages extracts {"errors": [...]} or {"errors": "..."} from a body.
func remoteMessages(body []byte) []string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil
	}
	res := gjson.GetBytes(body, "errors")
	if !res.Exists() {
		return nil
	}
	if res.IsArray() {
		var out []string
		for _, item := range res.Array() {
			out = append(out, item.String())
		}
		return out
	}
	if s := res.String(); s != "" {
		return []string{s}
	}
	return nil
}

// transportError maps a failure that produced no response.
func transportError(req *Request, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return errortypes.TimeoutError(err, fmt.Sprintf("%s timed out", req)).
			WithField("method", req.Method).
			WithField("path", req.Path)
	case errors.Is(err, context.Canceled):
		return errortypes.InternalError(err, fmt.Sprintf("%s was cancelled", req))
	default:
		return errortypes.TransientServerError(err, fmt.Sprintf("%s failed", req)).
			WithField("method", req.Method).
			WithField("path", req.Path)
	}
}
