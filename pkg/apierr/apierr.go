// Package apierr normalizes server error payloads into one uniform record.
// The server emits errors in two shapes: an API-style envelope with a
// nested error object, and a socket-style frame with the fields at the top
// level. Anything else degrades to heuristic string extraction and finally
// to a fixed sentinel. Every accessor is total; no input makes one fail.
package apierr

import "strings"

const (
	// UnknownType labels values that match neither known error shape.
	UnknownType = "unknown_error"
	// DefaultSeverity applies whenever the payload carries no severity,
	// which includes the entire socket shape.
	DefaultSeverity = "medium"

	unknownMessage = "An unknown error occurred"
)

// Normalized is the uniform record the UI renders from any error payload.
type Normalized struct {
	Message  string
	Type     string
	Severity string
	Details  map[string]any
}

// IsErrorResponse reports whether the value unambiguously matches one of
// the two known error shapes.
func IsErrorResponse(value any) bool {
	if _, ok := apiShape(value); ok {
		return true
	}
	_, ok := socketShape(value)

	return ok
}

// Normalize extracts the full uniform record in one pass.
func Normalize(value any) Normalized {
	return Normalized{
		Message:  Message(value),
		Type:     Kind(value),
		Severity: Severity(value),
		Details:  Details(value),
	}
}

// Message extracts a renderable message. Qualifying shapes prefer their
// user_friendly text over the raw message; non-qualifying values fall back
// to the value itself when it is a string, then to generic message-like
// fields, then to a fixed sentinel. Empty strings are treated as absent at
// every step.
func Message(value any) string {
	if errObj, ok := apiShape(value); ok {
		if msg := firstNonEmpty(stringField(errObj, "user_friendly"), stringField(errObj, "message")); msg != "" {
			return msg
		}
		return unknownMessage
	}

	if top, ok := socketShape(value); ok {
		if msg := firstNonEmpty(stringField(top, "user_friendly"), stringField(top, "message")); msg != "" {
			return msg
		}
		return unknownMessage
	}

	if text, ok := value.(string); ok && text != "" {
		return text
	}

	if generic, ok := value.(map[string]any); ok {
		if msg := firstNonEmpty(
			stringField(generic, "message"),
			stringField(generic, "detail"),
			stringField(generic, "error"),
		); msg != "" {
			return msg
		}
	}

	return unknownMessage
}

// Kind extracts the error type identifier, UnknownType for anything that
// does not qualify as an error response.
func Kind(value any) string {
	if errObj, ok := apiShape(value); ok {
		return stringField(errObj, "type")
	}
	if top, ok := socketShape(value); ok {
		return stringField(top, "error_type")
	}

	return UnknownType
}

// Details extracts the structured detail map; always non-nil, always empty
// for non-qualifying values.
func Details(value any) map[string]any {
	if errObj, ok := apiShape(value); ok {
		if details, ok := errObj["details"].(map[string]any); ok {
			return details
		}
	}
	if top, ok := socketShape(value); ok {
		if details, ok := top["details"].(map[string]any); ok {
			return details
		}
	}

	return map[string]any{}
}

// Severity extracts the severity for the API shape, defaulting to medium
// everywhere else; the socket shape carries no severity field at all.
func Severity(value any) string {
	if errObj, ok := apiShape(value); ok {
		if severity := stringField(errObj, "severity"); severity != "" {
			return severity
		}
	}

	return DefaultSeverity
}

// apiShape matches {error: {type: string, message: string, …}} and returns
// the inner error object.
func apiShape(value any) (map[string]any, bool) {
	envelope, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}

	errObj, ok := envelope["error"].(map[string]any)
	if !ok {
		return nil, false
	}

	if !hasStringField(errObj, "type") || !hasStringField(errObj, "message") {
		return nil, false
	}

	return errObj, true
}

// socketShape matches {type: "error", error_type: string, message: string}
// at the top level.
func socketShape(value any) (map[string]any, bool) {
	top, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}

	if kind, ok := top["type"].(string); !ok || kind != "error" {
		return nil, false
	}

	if !hasStringField(top, "error_type") || !hasStringField(top, "message") {
		return nil, false
	}

	return top, true
}

func hasStringField(m map[string]any, key string) bool {
	_, ok := m[key].(string)
	return ok
}

func stringField(m map[string]any, key string) string {
	value, _ := m[key].(string)
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}

	return ""
}
