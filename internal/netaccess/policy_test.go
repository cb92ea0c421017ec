package netaccess

import "testing"

func TestJudge(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		keywords []string
		policy   MatchPolicy
		expected Confidence
	}{
		{name: "login logout", body: "Click to LOGOUT", keywords: loginKeywords, policy: StrictMatch, expected: ConfidenceExplicit},
		{name: "login machines", body: "Your Authorized Machines", keywords: loginKeywords, policy: StrictMatch, expected: ConfidenceExplicit},
		{name: "login nothing", body: "welcome", keywords: loginKeywords, policy: StrictMatch, expected: ConfidenceNone},
		{name: "approve success", body: "Success!", keywords: approveKeywords, policy: StrictMatch, expected: ConfidenceExplicit},
		{name: "approve authorized", body: "machine authorized", keywords: approveKeywords, policy: OptimisticDefault, expected: ConfidenceExplicit},
		{name: "approve empty optimistic", body: "", keywords: approveKeywords, policy: OptimisticDefault, expected: ConfidenceWeak},
		{name: "approve empty strict", body: "", keywords: approveKeywords, policy: StrictMatch, expected: ConfidenceNone},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := judge(test.body, test.keywords, test.policy); got != test.expected {
				t.Fatalf("expected confidence %d, got %d", test.expected, got)
			}
		})
	}
}

func TestParseMatchPolicy(t *testing.T) {
	for raw, expected := range map[string]MatchPolicy{
		"":           OptimisticDefault,
		"optimistic": OptimisticDefault,
		"Strict":     StrictMatch,
		" strict ":   StrictMatch,
	} {
		policy, err := ParseMatchPolicy(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if policy != expected {
			t.Fatalf("parse %q: expected %s, got %s", raw, expected, policy)
		}
	}
	if _, err := ParseMatchPolicy("lenient"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestDuration(t *testing.T) {
	if !DurationHour.Valid() || !DurationDay.Valid() {
		t.Fatal("known durations must be valid")
	}
	if Duration(0).Valid() || Duration(3).Valid() {
		t.Fatal("unknown durations must be invalid")
	}
	if DurationDay.String() != "1 day" || DurationHour.String() != "1 hour" {
		t.Fatalf("unexpected names: %s, %s", DurationHour, DurationDay)
	}
}
