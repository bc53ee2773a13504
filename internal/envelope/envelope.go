// Package envelope defines the {status, ...} result shape returned by every
// room, booking and auth operation.
package envelope

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is a result map that always carries a "status" key. Error
// envelopes carry "error_message"; success envelopes carry operation payload.
type Envelope map[string]any

// Success returns a success envelope holding payload. Payload keys never
// override "status".
func Success(payload map[string]any) Envelope {
	env := make(Envelope, len(payload)+1)
	for k, v := range payload {
		env[k] = v
	}
	env["status"] = StatusSuccess
	return env
}

// Error returns an error envelope with the given message.
func Error(message string) Envelope {
	return Envelope{
		"status":        StatusError,
		"error_message": message,
	}
}

// Errorf returns an error envelope with a formatted message.
func Errorf(format string, args ...any) Envelope {
	return Error(fmt.Sprintf(format, args...))
}

// Status returns the envelope status.
func (e Envelope) Status() string {
	s, _ := e["status"].(string)
	return s
}

// IsError reports whether the envelope is an error envelope.
func (e Envelope) IsError() bool {
	return e.Status() == StatusError
}

// ErrorMessage returns the error message, or "" for success envelopes.
func (e Envelope) ErrorMessage() string {
	s, _ := e["error_message"].(string)
	return s
}

// JSON renders the envelope as indented JSON for tool output.
func (e Envelope) JSON() string {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"status":"error","error_message":%q}`, "failed to encode result: "+err.Error())
	}
	return string(data)
}
