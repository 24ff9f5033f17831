package cmd

import (
	"strings"
	"testing"
)

func TestNormalizeCSVLoose(t *testing.T) {
	in := strings.NewReader(
		"ID,Thought,Distortion\n" +
			"1,I always fail,overgeneralizing\n" +
			"2,No one likes me,Mind Reading\n" +
			"3,whatever,Magical Thinking\n" +
			"4,calm thought,none\n" +
			"5,two labels,\"Labeling, Blaming\"\n")
	var out strings.Builder

	unmatched, err := normalizeCSV(in, &out, false)
	if err != nil {
		t.Fatalf("normalizeCSV() error = %v", err)
	}

	wantLines := []string{
		"ID,Thought,Distortion,Distortion_ID",
		"1,I always fail,overgeneralizing,2",
		"2,No one likes me,Mind Reading,5",
		"3,whatever,Magical Thinking,",
		"4,calm thought,none,",
		`5,two labels,"Labeling, Blaming",3`,
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(got) != len(wantLines) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(wantLines), out.String())
	}
	for i, want := range wantLines {
		if got[i] != want {
			t.Errorf("line %d = %q, want %q", i+1, got[i], want)
		}
	}

	if len(unmatched) != 1 || unmatched[0] != "Magical Thinking" {
		t.Errorf("unmatched = %v, want [Magical Thinking]", unmatched)
	}
}

func TestNormalizeCSVExact(t *testing.T) {
	in := strings.NewReader(
		"ID,Thought,Distortion\n" +
			"1,a,Mind Reading\n" +
			"2,b,mind reading\n")
	var out strings.Builder

	unmatched, err := normalizeCSV(in, &out, true)
	if err != nil {
		t.Fatalf("normalizeCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[1] != "1,a,Mind Reading,5" {
		t.Errorf("exact match line = %q", lines[1])
	}
	if lines[2] != "2,b,mind reading," {
		t.Errorf("case-mismatch line = %q", lines[2])
	}
	if len(unmatched) != 1 || unmatched[0] != "mind reading" {
		t.Errorf("unmatched = %v", unmatched)
	}
}

func TestNormalizeCSVMissingColumn(t *testing.T) {
	in := strings.NewReader("ID,Thought\n1,a\n")
	var out strings.Builder
	if _, err := normalizeCSV(in, &out, false); err == nil {
		t.Fatal("normalizeCSV() expected error for missing Distortion column")
	}
}

func TestNormalizeCSVAltColumnName(t *testing.T) {
	in := strings.NewReader("Thinking Traps,Definition\nCatastrophizing,d\n")
	var out strings.Builder

	unmatched, err := normalizeCSV(in, &out, false)
	if err != nil {
		t.Fatalf("normalizeCSV() error = %v", err)
	}
	if len(unmatched) != 0 {
		t.Errorf("unmatched = %v, want none", unmatched)
	}
	if !strings.Contains(out.String(), "Catastrophizing,d,10") {
		t.Errorf("output missing mapped id:\n%s", out.String())
	}
}
