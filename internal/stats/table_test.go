package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"User", "WPM", "Accuracy"}
	rows := [][]string{
		{"alice", "92", "98%"},
		{"bob_the_typist", "7", "100%"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "User           WPM Accuracy" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "alice           92      98%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "bob_the_typist   7     100%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"User", "WPM"}, [][]string{{"日本", "50"}}, map[int]bool{1: true})
	if lines[1] != "日本  50" {
		t.Fatalf("unexpected wide-rune row: %q", lines[1])
	}
}
