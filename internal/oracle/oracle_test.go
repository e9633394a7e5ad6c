package oracle

import (
	"context"
	"testing"
)

func TestCognizeFallsBackWithoutClient(t *testing.T) {
	o := New(nil)
	frame := o.Cognize(context.Background(), Prompt{MoodLabel: "anxious", PlayerName: "p1", Utterance: "hello"})

	if !frame.Fallback {
		t.Fatalf("expected fallback frame without a configured client")
	}
	if frame.Dialogue != "..." {
		t.Fatalf("fallback dialogue = %q, want \"...\"", frame.Dialogue)
	}
	if frame.TrustDelta != 0 {
		t.Fatalf("fallback trustDelta = %v, want 0", frame.TrustDelta)
	}
	if frame.Intent != IntentIgnore {
		t.Fatalf("fallback intent = %v, want Ignore", frame.Intent)
	}
}

func TestNewClientReturnsNilWithoutAPIKey(t *testing.T) {
	if c := NewClient("", 10); c != nil {
		t.Fatalf("NewClient with empty key should return nil, got %+v", c)
	}
}

func TestGenerateBioReturnsEmptyWithoutClient(t *testing.T) {
	o := New(nil)
	bio, err := o.GenerateBio(context.Background(), "Bram", "guard", "loyal, stern", "content")
	if err != nil {
		t.Fatalf("GenerateBio: %v", err)
	}
	if bio != "" {
		t.Fatalf("bio = %q, want empty string with no configured client", bio)
	}
}

func TestParseCognitiveFrameValidatesIntentAndBounds(t *testing.T) {
	raw := `Sure, here you go: {"reflection":"wary","dialogue":"Who goes there?","intent":"Guard","mood_shift":0.1,"urgency":0.9,"trust_delta":5.0,"emotional_weight":2.0,"extracted_topics":["stranger"]}`
	frame, ok := parseCognitiveFrame(raw)
	if !ok {
		t.Fatalf("expected successful parse")
	}
	if frame.TrustDelta != MaxTrustDelta {
		t.Fatalf("trustDelta = %v, want clamped to %v", frame.TrustDelta, MaxTrustDelta)
	}
	if frame.EmotionalWeight != 1.0 {
		t.Fatalf("emotionalWeight = %v, want clamped to 1.0", frame.EmotionalWeight)
	}
	if frame.Intent != IntentGuard {
		t.Fatalf("intent = %v, want Guard", frame.Intent)
	}
}

func TestParseCognitiveFrameRejectsUnknownIntent(t *testing.T) {
	raw := `{"reflection":"x","dialogue":"y","intent":"Dance","urgency":0.1,"trust_delta":0}`
	if _, ok := parseCognitiveFrame(raw); ok {
		t.Fatalf("expected parse failure for unknown intent")
	}
}

func TestParseCognitiveFrameRejectsMalformedJSON(t *testing.T) {
	if _, ok := parseCognitiveFrame("not json at all"); ok {
		t.Fatalf("expected parse failure for non-JSON input")
	}
}

func TestParseCognitiveFrameDefaultsEmptyDialogue(t *testing.T) {
	raw := `{"reflection":"x","dialogue":"","intent":"Ignore","urgency":0,"trust_delta":0}`
	frame, ok := parseCognitiveFrame(raw)
	if !ok {
		t.Fatalf("expected successful parse")
	}
	if frame.Dialogue != "..." {
		t.Fatalf("empty dialogue should default to \"...\", got %q", frame.Dialogue)
	}
}
