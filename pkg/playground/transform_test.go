package playground

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTransformQuery(t *testing.T) {
	out, err := TransformQuery("a[b]=c&a[d]=e", "")
	if err != nil {
		t.Fatalf("TransformQuery failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	a, ok := decoded["a"].(map[string]any)
	if !ok || a["b"] != "c" || a["d"] != "e" {
		t.Errorf("unexpected result: %s", out)
	}
}

func TestTransformQueryWithOptions(t *testing.T) {
	out, err := TransformQuery("a.b=c", `{"allowDots": true}`)
	if err != nil {
		t.Fatalf("TransformQuery failed: %v", err)
	}
	if !strings.Contains(out, `"b": "c"`) {
		t.Errorf("allowDots option not honored: %s", out)
	}
}

func TestTransformQueryRejectsBadOptions(t *testing.T) {
	if _, err := TransformQuery("a=b", `{"duplicates": "bogus"}`); err == nil {
		t.Fatal("expected error for unknown duplicates policy")
	}
	if _, err := TransformQuery("a=b", `not json`); err == nil {
		t.Fatal("expected error for malformed options document")
	}
}

func TestRoundTrip(t *testing.T) {
	out, err := RoundTrip("a[0]=x&a[1]=y", `{"encode": false}`)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	var doc struct {
		Parsed     json.RawMessage `json:"parsed"`
		Serialized string          `json:"serialized"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Serialized != "a[0]=x&a[1]=y" {
		t.Errorf("serialized = %q, want a[0]=x&a[1]=y", doc.Serialized)
	}
}
