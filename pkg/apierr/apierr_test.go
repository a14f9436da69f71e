package apierr

import "testing"

func apiPayload() map[string]any {
	return map[string]any{
		"error": map[string]any{
			"type":          "permission_denied",
			"message":       "permission denied for door",
			"user_friendly": "You cannot open that door.",
			"severity":      "high",
			"details":       map[string]any{"door_id": "oak-3"},
		},
	}
}

func socketPayload() map[string]any {
	return map[string]any{
		"type":       "error",
		"error_type": "rate_limited",
		"message":    "too many commands",
	}
}

func TestIsErrorResponseShapes(t *testing.T) {
	if !IsErrorResponse(apiPayload()) {
		t.Fatal("API envelope should qualify")
	}
	if !IsErrorResponse(socketPayload()) {
		t.Fatal("socket frame should qualify")
	}

	rejects := []any{
		map[string]any{"error": "not an object"},
		map[string]any{"error": map[string]any{"type": "x"}},
		map[string]any{"error": map[string]any{"type": 7, "message": "y"}},
		map[string]any{"type": "error", "message": "missing error_type"},
		map[string]any{"type": "notice", "error_type": "x", "message": "y"},
		"just a string",
		nil,
		42,
	}
	for _, value := range rejects {
		if IsErrorResponse(value) {
			t.Fatalf("IsErrorResponse(%#v) = true, want false", value)
		}
	}
}

func TestMessagePrefersUserFriendly(t *testing.T) {
	if got := Message(apiPayload()); got != "You cannot open that door." {
		t.Fatalf("Message = %q, want user_friendly text", got)
	}

	payload := apiPayload()
	payload["error"].(map[string]any)["user_friendly"] = ""
	if got := Message(payload); got != "permission denied for door" {
		t.Fatalf("Message = %q, want fallback to message when user_friendly is empty", got)
	}
}

func TestMessageSocketFallsBackToMessageVerbatim(t *testing.T) {
	if got := Message(socketPayload()); got != "too many commands" {
		t.Fatalf("Message = %q, want %q", got, "too many commands")
	}

	payload := socketPayload()
	payload["user_friendly"] = "Slow down a little."
	if got := Message(payload); got != "Slow down a little." {
		t.Fatalf("Message = %q, want user_friendly when present", got)
	}
}

func TestMessageNonQualifyingFallbacks(t *testing.T) {
	if got := Message("the connection dropped"); got != "the connection dropped" {
		t.Fatalf("Message = %q, want bare string passthrough", got)
	}

	generic := map[string]any{"message": "", "detail": "lock jammed"}
	if got := Message(generic); got != "lock jammed" {
		t.Fatalf("Message = %q, want first non-empty generic field", got)
	}

	generic = map[string]any{"error": "boom"}
	if got := Message(generic); got != "boom" {
		t.Fatalf("Message = %q, want %q", got, "boom")
	}

	for _, value := range []any{nil, 42, map[string]any{}, map[string]any{"message": "   "}, ""} {
		if got := Message(value); got != unknownMessage {
			t.Fatalf("Message(%#v) = %q, want sentinel", value, got)
		}
	}
}

func TestKind(t *testing.T) {
	if got := Kind(apiPayload()); got != "permission_denied" {
		t.Fatalf("Kind = %q, want %q", got, "permission_denied")
	}
	if got := Kind(socketPayload()); got != "rate_limited" {
		t.Fatalf("Kind = %q, want %q", got, "rate_limited")
	}
	if got := Kind("whatever"); got != UnknownType {
		t.Fatalf("Kind = %q, want %q", got, UnknownType)
	}
}

func TestDetails(t *testing.T) {
	details := Details(apiPayload())
	if details["door_id"] != "oak-3" {
		t.Fatalf("Details = %v, want door_id entry", details)
	}

	payload := socketPayload()
	payload["details"] = map[string]any{"retry_after": 5.0}
	if got := Details(payload); got["retry_after"] != 5.0 {
		t.Fatalf("Details = %v, want retry_after entry", got)
	}

	for _, value := range []any{"nope", nil, map[string]any{"message": "x"}} {
		got := Details(value)
		if got == nil {
			t.Fatalf("Details(%#v) = nil, want empty map", value)
		}
		if len(got) != 0 {
			t.Fatalf("Details(%#v) = %v, want empty", value, got)
		}
	}
}

func TestSeverity(t *testing.T) {
	if got := Severity(apiPayload()); got != "high" {
		t.Fatalf("Severity = %q, want %q", got, "high")
	}

	payload := apiPayload()
	delete(payload["error"].(map[string]any), "severity")
	if got := Severity(payload); got != DefaultSeverity {
		t.Fatalf("Severity = %q, want default", got)
	}

	// The socket shape carries no severity field at all.
	if got := Severity(socketPayload()); got != DefaultSeverity {
		t.Fatalf("Severity = %q, want default for socket shape", got)
	}
	if got := Severity("oops"); got != DefaultSeverity {
		t.Fatalf("Severity = %q, want default for non-qualifying value", got)
	}
}

func TestNormalizeBundlesAllFields(t *testing.T) {
	got := Normalize(apiPayload())

	if got.Message != "You cannot open that door." ||
		got.Type != "permission_denied" ||
		got.Severity != "high" ||
		got.Details["door_id"] != "oak-3" {
		t.Fatalf("Normalize = %+v, want all fields extracted", got)
	}
}
