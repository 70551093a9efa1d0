package ai

import "testing"

func TestRespondUsesSpecializationPool(t *testing.T) {
	responder := &CannedResponder{pick: func(int) int { return 0 }}

	got := responder.Respond("finance", "how should I price?")
	if got != cannedResponses["finance"][0] {
		t.Fatalf("finance response = %q", got)
	}

	got = responder.Respond("  Finance  ", "case and whitespace")
	if got != cannedResponses["finance"][0] {
		t.Fatalf("normalized tag response = %q", got)
	}
}

func TestRespondFallsBackToGeneral(t *testing.T) {
	responder := &CannedResponder{pick: func(int) int { return 0 }}

	got := responder.Respond("astrology", "unknown tag")
	if got != cannedResponses["general"][0] {
		t.Fatalf("fallback response = %q", got)
	}

	got = responder.Respond("", "empty tag")
	if got != cannedResponses["general"][0] {
		t.Fatalf("empty tag response = %q", got)
	}
}

func TestRespondStaysInPool(t *testing.T) {
	responder := NewCannedResponder()
	pool := map[string]bool{}
	for _, candidate := range cannedResponses["wellness"] {
		pool[candidate] = true
	}
	for i := 0; i < 50; i++ {
		if got := responder.Respond("wellness", "x"); !pool[got] {
			t.Fatalf("response %q not in wellness pool", got)
		}
	}
}
