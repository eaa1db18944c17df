package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Date", "Words", "Goal"}
	rows := [][]string{
		{"2024-01-02", "1,200", "yes"},
		{"today", "35", "no"},
	}
	rightAlign := map[int]bool{1: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Date       Words Goal" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "2024-01-02 1,200 yes " {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "today         35 no  " {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Text", "N"}, [][]string{{"日本", "1"}}, nil)
	if lines[0] != "Text N" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "日本 1" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
}
