package logparse

import (
	"strings"
	"time"
)

// timestampMarker separates ckpool's bracketed timestamp from the message.
const timestampMarker = "] "

// timestampLayouts are the bracket formats ckpool writes, most precise first.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
}

// Line is one physical log line with its optional timestamp prefix removed.
type Line struct {
	Raw          string
	Content      string
	Timestamp    time.Time // zero when HasTimestamp is false
	HasTimestamp bool
}

// StripTimestamp returns the text after the first "] " in line, or line
// unchanged when the marker is absent. Payload JSON later in the line may
// contain the marker too, so only the first occurrence counts.
func StripTimestamp(line string) string {
	if idx := strings.Index(line, timestampMarker); idx >= 0 {
		return line[idx+len(timestampMarker):]
	}
	return line
}

// ParseLine tokenizes one raw line.
func ParseLine(raw string) Line {
	l := Line{Raw: raw, Content: StripTimestamp(raw)}
	if ts, ok := parseBracketTimestamp(raw); ok {
		l.Timestamp = ts
		l.HasTimestamp = true
	}
	return l
}

// ParseLines tokenizes every raw line, keeping order.
func ParseLines(raw []string) []Line {
	lines := make([]Line, len(raw))
	for i, r := range raw {
		lines[i] = ParseLine(r)
	}
	return lines
}

// SplitLines splits a log buffer into physical lines. A trailing newline
// does not produce an empty final line and CRLF endings are normalized.
func SplitLines(data string) []string {
	if data == "" {
		return nil
	}
	parts := strings.Split(data, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

func parseBracketTimestamp(raw string) (time.Time, bool) {
	if !strings.HasPrefix(raw, "[") {
		return time.Time{}, false
	}
	end := strings.Index(raw, timestampMarker)
	if end < 0 {
		return time.Time{}, false
	}
	inner := raw[1:end]
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, inner, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
