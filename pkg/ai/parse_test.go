package ai

import "testing"

func TestParseStructuredPlainArray(t *testing.T) {
	raw := `[{"title":"A","score":8.1},{"title":"B","score":7.2}]`
	v := ParseStructured(raw, FormatArray)
	arr, ok := v.([]any)
	if !ok {
		t.Fatalf("expected array, got %T", v)
	}
	if len(arr) != 2 {
		t.Fatalf("expected 2 items, got %d", len(arr))
	}
}

func TestParseStructuredFencedJSON(t *testing.T) {
	raw := "```json\n{\"content\":\"hello\"}\n```"
	v := ParseStructured(raw, FormatObject)
	obj, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", v)
	}
	if obj["content"] != "hello" {
		t.Fatalf("unexpected content: %v", obj["content"])
	}
}

func TestParseStructuredEmbeddedArray(t *testing.T) {
	raw := `Here are your ideas:

[{"title":"One"},{"title":"Two"}]

Let me know if you want more.`
	v := ParseStructured(raw, FormatArray)
	arr, ok := v.([]any)
	if !ok {
		t.Fatalf("expected array, got %T", v)
	}
	if len(arr) != 2 {
		t.Fatalf("expected 2 items, got %d", len(arr))
	}
}

func TestParseStructuredRepairsMalformedJSON(t *testing.T) {
	// Trailing comma plus unquoted key, typical truncation damage.
	raw := `[{"title": "One", "score": 8,}]`
	v := ParseStructured(raw, FormatArray)
	arr, ok := v.([]any)
	if !ok {
		t.Fatalf("expected repaired array, got %T", v)
	}
	if len(arr) != 1 {
		t.Fatalf("expected 1 item, got %d", len(arr))
	}
}

func TestParseStructuredFallbackArray(t *testing.T) {
	raw := "just some prose, no structure at all"
	v := ParseStructured(raw, FormatArray)
	arr, ok := v.([]any)
	if !ok {
		t.Fatalf("expected fallback array, got %T", v)
	}
	if len(arr) != 1 {
		t.Fatalf("expected single fallback item, got %d", len(arr))
	}
	item := arr[0].(map[string]any)
	if item["content"] != raw {
		t.Fatalf("fallback content mismatch: %v", item["content"])
	}
	if item["score"] != 7.5 {
		t.Fatalf("fallback score mismatch: %v", item["score"])
	}
}

func TestParseStructuredFallbackObject(t *testing.T) {
	raw := "freeform strategy advice"
	v := ParseStructured(raw, FormatObject)
	obj, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected fallback object, got %T", v)
	}
	if obj["content"] != raw {
		t.Fatalf("fallback content mismatch: %v", obj["content"])
	}
	if _, hasScore := obj["score"]; hasScore {
		t.Fatalf("object fallback should not carry a score")
	}
}

func TestParseStrict(t *testing.T) {
	var out []map[string]any
	if err := ParseStrict("```json\n[{\"title\":\"x\"}]\n```", &out); err != nil {
		t.Fatalf("ParseStrict: %v", err)
	}
	if len(out) != 1 || out[0]["title"] != "x" {
		t.Fatalf("unexpected decode result: %v", out)
	}

	var bad []map[string]any
	if err := ParseStrict("not json at all {{{", &bad); err == nil {
		t.Fatalf("expected error for unparseable input")
	}
}
