package model

import "testing"

func TestParseDifficulty(t *testing.T) {
	for _, in := range []string{"easy", " Medium ", "HARD"} {
		if _, err := ParseDifficulty(in); err != nil {
			t.Fatalf("expected %q to parse: %v", in, err)
		}
	}
	if _, err := ParseDifficulty("insane"); err == nil {
		t.Fatalf("expected unknown difficulty to fail")
	}
}

func TestCharStatusString(t *testing.T) {
	if StatusCurrent.String() != "current" || StatusIncorrect.String() != "incorrect" {
		t.Fatalf("unexpected status names")
	}
}
