package model

import (
	"encoding/json"
	"testing"

	"github.com/Jhector1/learnoir-api/shared"
)

func TestAnswerKeyMatchesExact(t *testing.T) {
	key := AnswerKey{Kind: shared.AnswerKindExact, Text: "Tokyo"}

	cases := []struct {
		answer interface{}
		want   bool
	}{
		{"Tokyo", true},
		{"tokyo", true},
		{"  Tokyo  ", true},
		{"Osaka", false},
		{"", false},
		{42, false},
		{[]interface{}{"Tokyo"}, false},
	}
	for _, tc := range cases {
		if got := key.Matches(tc.answer); got != tc.want {
			t.Fatalf("Matches(%v) = %v, want %v", tc.answer, got, tc.want)
		}
	}
}

func TestAnswerKeyMatchesNumeric(t *testing.T) {
	key := AnswerKey{Kind: shared.AnswerKindNumeric, Value: 0.75, Tolerance: 0.01}

	cases := []struct {
		answer interface{}
		want   bool
	}{
		{0.75, true},
		{0.76, true},
		{0.74, true},
		{0.77, false},
		{"0.75", true},
		{json.Number("0.75"), true},
		{"not a number", false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := key.Matches(tc.answer); got != tc.want {
			t.Fatalf("Matches(%v) = %v, want %v", tc.answer, got, tc.want)
		}
	}

	exact := AnswerKey{Kind: shared.AnswerKindNumeric, Value: 30, Tolerance: 0}
	if !exact.Matches(30) {
		t.Fatalf("zero tolerance must accept the exact value")
	}
	if exact.Matches(30.001) {
		t.Fatalf("zero tolerance must reject any deviation")
	}
}

func TestAnswerKeyMatchesMultiSelect(t *testing.T) {
	key := AnswerKey{Kind: shared.AnswerKindMultiSelect, Choices: []string{"5/8", "2/3"}}

	cases := []struct {
		answer interface{}
		want   bool
	}{
		{[]interface{}{"5/8", "2/3"}, true},
		{[]interface{}{"2/3", "5/8"}, true},
		{[]interface{}{" 5/8 ", "2/3"}, true},
		{[]string{"5/8", "2/3"}, true},
		{[]interface{}{"5/8"}, false},
		{[]interface{}{"5/8", "2/3", "3/8"}, false},
		{[]interface{}{"5/8", 7}, false},
		{"5/8", false},
	}
	for _, tc := range cases {
		if got := key.Matches(tc.answer); got != tc.want {
			t.Fatalf("Matches(%v) = %v, want %v", tc.answer, got, tc.want)
		}
	}
}

func TestAnswerKeyUnknownKindNeverMatches(t *testing.T) {
	key := AnswerKey{Kind: "regex", Text: ".*"}
	if key.Matches(".*") || key.Matches("anything") {
		t.Fatalf("unknown kinds must never match")
	}
}

func TestAnswerKeyReveal(t *testing.T) {
	if got := (&AnswerKey{Kind: shared.AnswerKindExact, Text: "Tokyo"}).Reveal(); got != "Tokyo" {
		t.Fatalf("exact reveal = %v", got)
	}
	if got := (&AnswerKey{Kind: shared.AnswerKindNumeric, Value: 0.75}).Reveal(); got != 0.75 {
		t.Fatalf("numeric reveal = %v", got)
	}
	choices := (&AnswerKey{Kind: shared.AnswerKindMultiSelect, Choices: []string{"a", "b"}}).Reveal().([]string)
	if len(choices) != 2 || choices[0] != "a" {
		t.Fatalf("multi_select reveal = %v", choices)
	}
}

func TestSessionScorePct(t *testing.T) {
	cases := []struct {
		total, correct, want int
	}{
		{0, 0, 0},
		{5, 3, 60},
		{3, 1, 33},
		{3, 2, 67},
		{10, 10, 100},
		{4, 0, 0},
	}
	for _, tc := range cases {
		s := PracticeSession{Total: tc.total, Correct: tc.correct}
		if got := s.ScorePct(); got != tc.want {
			t.Fatalf("ScorePct(%d/%d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestActorRef(t *testing.T) {
	if ref := (Actor{UserID: "u1"}).Ref(); ref != "user:u1" {
		t.Fatalf("user ref = %q", ref)
	}
	if ref := (Actor{GuestID: "g1"}).Ref(); ref != "guest:g1" {
		t.Fatalf("guest ref = %q", ref)
	}

	// A user identity owns the ref even when a guest id is also present.
	if ref := (Actor{UserID: "u1", GuestID: "g1"}).Ref(); ref != "user:u1" {
		t.Fatalf("mixed ref = %q", ref)
	}

	a := Actor{GuestID: "g1"}
	if !a.SameAs(Actor{GuestID: "g1"}) {
		t.Fatalf("identical guests must match")
	}
	if a.SameAs(Actor{GuestID: "g2"}) || a.SameAs(Actor{UserID: "g1"}) {
		t.Fatalf("distinct lineages must never match")
	}
}
