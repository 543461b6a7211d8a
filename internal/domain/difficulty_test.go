package domain

import "testing"

func TestTimeBudgets(t *testing.T) {
	cases := map[Difficulty]int{Easy: 25, Medium: 15, Hard: 10}
	for d, want := range cases {
		if got := d.TimeBudget(); got != want {
			t.Fatalf("%s budget = %d, want %d", d, got, want)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" hard ")
	if err != nil || d != Hard {
		t.Fatalf("expected Hard, got %q err=%v", d, err)
	}
	if _, err := ParseDifficulty("legendary"); err != ErrInvalidDifficulty {
		t.Fatalf("expected ErrInvalidDifficulty, got %v", err)
	}
}

func TestQuestionCorrectText(t *testing.T) {
	q := Question{
		Options:   []Option{{ID: "a", Text: "Tahsas 29"}, {ID: "b", Text: "Meskerem 1"}},
		CorrectID: "a",
	}
	if got := q.CorrectText(); got != "Tahsas 29" {
		t.Fatalf("unexpected correct text %q", got)
	}
	q.CorrectID = "z"
	if got := q.CorrectText(); got != "" {
		t.Fatalf("expected empty text for dangling id, got %q", got)
	}
}
