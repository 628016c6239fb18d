package logparse

import (
	"testing"
	"time"
)

func TestStripTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[2024-01-01 00:00:00.000] METRIC {}", "METRIC {}"},
		{"[2024-01-01 00:00:00] Pool:{\"runtime\":1}", "Pool:{\"runtime\":1}"},
		{"no prefix here", "no prefix here"},
		{"", ""},
		// Only the first marker counts.
		{"[ts] User a:{\"x\":\"] y\"}", "User a:{\"x\":\"] y\"}"},
		// Marker anywhere in the line is honored.
		{"abc] def", "def"},
		{"]no space", "]no space"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := StripTimestamp(tt.input)
			if got != tt.expected {
				t.Errorf("StripTimestamp(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseLine_Timestamp(t *testing.T) {
	l := ParseLine("[2024-01-15 10:30:45.123] METRIC {\"type\":\"share\"}")
	if !l.HasTimestamp {
		t.Fatal("expected timestamp to be parsed")
	}
	want := time.Date(2024, 1, 15, 10, 30, 45, 123_000_000, time.Local)
	if !l.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", l.Timestamp, want)
	}
	if l.Content != "METRIC {\"type\":\"share\"}" {
		t.Errorf("Content = %q", l.Content)
	}
}

func TestParseLine_NoTimestamp(t *testing.T) {
	l := ParseLine("  \"nonce\": \"abcd\",")
	if l.HasTimestamp {
		t.Error("continuation line should not carry a timestamp")
	}
	if l.Content != l.Raw {
		t.Errorf("Content = %q, want raw line", l.Content)
	}
}

func TestParseLine_BadBracket(t *testing.T) {
	l := ParseLine("[not a time] text")
	if l.HasTimestamp {
		t.Error("unparseable bracket should not produce a timestamp")
	}
	if l.Content != "text" {
		t.Errorf("Content = %q, want %q", l.Content, "text")
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank middle", "a\n\nb\n", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitLines(%q) = %q, want %q", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitLines(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
