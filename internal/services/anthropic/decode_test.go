package anthropic

import "testing"

func TestDecodeJSONBare(t *testing.T) {
	var out struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := DecodeJSON(`{"category":"Bug","confidence":0.92}`, &out); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if out.Category != "Bug" || out.Confidence != 0.92 {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}

func TestDecodeJSONCodeFence(t *testing.T) {
	payload := "```json\n{\"category\": \"Praise\", \"confidence\": 0.8}\n```"
	var out struct {
		Category string `json:"category"`
	}
	if err := DecodeJSON(payload, &out); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if out.Category != "Praise" {
		t.Fatalf("category = %q, want Praise", out.Category)
	}
}

func TestDecodeJSONSurroundingProse(t *testing.T) {
	payload := `Here is the classification you asked for: {"category":"Spam","confidence":0.99} Let me know if you need anything else.`
	var out struct {
		Category string `json:"category"`
	}
	if err := DecodeJSON(payload, &out); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if out.Category != "Spam" {
		t.Fatalf("category = %q, want Spam", out.Category)
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var out map[string]any
	if err := DecodeJSON("not json at all", &out); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
	if err := DecodeJSON("", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.73, 0.73},
		{1, 1},
		{1.4, 1},
	}
	for _, tc := range cases {
		if got := clampConfidence(tc.in); got != tc.want {
			t.Errorf("clampConfidence(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
