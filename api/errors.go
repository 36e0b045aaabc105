package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API failure. Downstream code matches on the kind
// instead of probing status codes or response shapes.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a 400-class rejection carrying field messages.
	// Recovered locally in forms, never fatal.
	KindValidation
	// KindAuth is a 401 outside the refresh flow, or refresh exhaustion.
	KindAuth
	// KindPermission is a 403.
	KindPermission
	// KindNotFound is a 404.
	KindNotFound
	// KindServer is any 5xx.
	KindServer
	// KindNetwork means no response was received at all.
	KindNetwork
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is the normalized failure returned by every client call. It is
// built in exactly one place, at the HTTP boundary.
type Error struct {
	Kind       Kind
	StatusCode int // 0 for network failures
	Message    string
	// Fields carries field-level validation messages for KindValidation.
	Fields map[string][]string
	// Err is the underlying transport error for KindNetwork.
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsValidation reports whether err is a field-validation rejection.
func IsValidation(err error) bool { return hasKind(err, KindValidation) }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return hasKind(err, KindAuth) }

// IsPermission reports whether err is a permission rejection.
func IsPermission(err error) bool { return hasKind(err, KindPermission) }

// IsNotFound reports whether err is a missing-resource failure.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsServer reports whether err is a 5xx failure.
func IsServer(err error) bool { return hasKind(err, KindServer) }

// IsNetwork reports whether err means no response was received.
func IsNetwork(err error) bool { return hasKind(err, KindNetwork) }

func hasKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// Classify builds an Error from a non-2xx response. The body is parsed for
// the server's detail message and field errors when it is a JSON object.
func Classify(status int, body []byte) *Error {
	e := &Error{StatusCode: status}

	switch {
	case status == http.StatusBadRequest:
		e.Kind = KindValidation
		e.Message = "validation failed"
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
		e.Message = "authentication required"
	case status == http.StatusForbidden:
		e.Kind = KindPermission
		e.Message = "permission denied"
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		e.Message = "not found"
	case status >= 500:
		e.Kind = KindServer
		e.Message = "server error, please try again"
	default:
		e.Kind = KindUnknown
		e.Message = http.StatusText(status)
	}

	applyBody(e, body)
	return e
}

// NetworkError wraps a transport-level failure where no response arrived.
func NetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: "could not reach the server", Err: err}
}

// applyBody folds the server's error payload into e. The API answers with
// either {"detail": "..."} or a field→messages map; both shapes are folded
// into the one tagged variant here so nothing downstream probes JSON.
func applyBody(e *Error, body []byte) {
	if len(body) == 0 {
		return
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return
	}

	if raw, ok := payload["detail"]; ok {
		var detail string
		if err := json.Unmarshal(raw, &detail); err == nil && detail != "" {
			e.Message = detail
		}
		delete(payload, "detail")
	}

	fields := make(map[string][]string)
	for name, raw := range payload {
		var messages []string
		if err := json.Unmarshal(raw, &messages); err != nil {
			var single string
			if err := json.Unmarshal(raw, &single); err != nil {
				continue
			}
			messages = []string{single}
		}
		if len(messages) > 0 {
			fields[name] = messages
		}
	}

	if messages, ok := fields["non_field_errors"]; ok && len(messages) > 0 {
		e.Message = messages[0]
		delete(fields, "non_field_errors")
	}
	if len(fields) > 0 {
		e.Fields = fields
	}
}
