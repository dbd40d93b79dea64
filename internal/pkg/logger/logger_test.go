package logger

import (
	"testing"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"authorization", "Bearer abc",
		"api_key", "k-123",
		"path", "/api/personas",
		"identity_id", "user-1",
		"note", "bearer xyz",
	})
	got := map[string]interface{}{}
	for i := 0; i+1 < len(kv); i += 2 {
		got[kv[i].(string)] = kv[i+1]
	}
	if got["authorization"] != "[REDACTED]" || got["api_key"] != "[REDACTED]" {
		t.Fatalf("expected secrets redacted, got %#v", got)
	}
	if got["path"] != "/api/personas" {
		t.Fatalf("expected path untouched, got %v", got["path"])
	}
	if s, _ := got["identity_id"].(string); len(s) != len("hash:")+12 {
		t.Fatalf("expected hashed identity, got %v", got["identity_id"])
	}
	if got["note"] != "[REDACTED]" {
		t.Fatalf("expected bearer value redacted, got %v", got["note"])
	}
}

func TestTruncate(t *testing.T) {
	if Truncate("abc", 10) != "abc" {
		t.Fatal("short strings must be unchanged")
	}
	if got := Truncate("abcdef", 3); got != "abc...(truncated)" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
