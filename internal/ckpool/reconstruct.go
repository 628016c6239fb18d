package ckpool

import (
	"strings"

	"github.com/valyala/fastjson"

	"github.com/tinytelemetry/poolstat/internal/logparse"
	"github.com/tinytelemetry/poolstat/internal/model"
)

const metricMarker = "METRIC "

// Outcome is the result of feeding one line to the Reconstructor.
// A line can supersede a pending object and complete a new one at once.
type Outcome struct {
	// Event is set when the line completed a well-formed METRIC object.
	Event *Event
	// Superseded reports that a pending multi-line object was abandoned.
	Superseded bool
	// Repaired reports that Event needed the best-effort repair pass.
	Repaired bool
	// Skip names why a completed object was dropped, empty otherwise.
	Skip string
}

// Reconstructor reassembles METRIC JSON objects that span several lines.
// Its only state is the pending buffer and the unmatched brace count.
type Reconstructor struct {
	pending   strings.Builder
	junctions []int
	need      int
	active    bool
	parser    fastjson.Parser
}

// NewReconstructor returns a Reconstructor with nothing pending.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{}
}

// Pending reports whether a multi-line object is still open.
func (r *Reconstructor) Pending() bool {
	return r.active
}

// Feed processes one raw log line.
func (r *Reconstructor) Feed(raw string) Outcome {
	var out Outcome
	content := strings.TrimSpace(logparse.StripTimestamp(raw))

	if r.active && strings.HasPrefix(content, metricMarker) {
		r.reset()
		out.Superseded = true
	}

	if r.active {
		r.append(content)
		if r.need <= 0 {
			r.complete(&out)
		}
		return out
	}

	idx := strings.Index(content, metricMarker)
	if idx < 0 {
		return out
	}
	frag := strings.TrimLeft(content[idx+len(metricMarker):], " \t")
	brace := strings.IndexByte(frag, '{')
	if brace < 0 {
		out.Skip = model.SkipMetricNoObject
		return out
	}
	r.active = true
	r.append(frag[brace:])
	if r.need <= 0 {
		r.complete(&out)
	}
	return out
}

// Flush abandons any object still open at end of input and reports
// whether one was dropped.
func (r *Reconstructor) Flush() bool {
	if !r.active {
		return false
	}
	r.reset()
	return true
}

func (r *Reconstructor) append(frag string) {
	if r.pending.Len() > 0 {
		r.junctions = append(r.junctions, r.pending.Len())
	}
	r.pending.WriteString(frag)
	r.need += braceDelta(frag)
}

func (r *Reconstructor) complete(out *Outcome) {
	text := r.pending.String()
	junctions := r.junctions
	r.reset()

	v, err := r.parser.Parse(text)
	if err != nil {
		repaired := repairJSON(text, junctions)
		if repaired == text {
			out.Skip = model.SkipMetricMalformed
			return
		}
		v, err = r.parser.Parse(repaired)
		if err != nil {
			out.Skip = model.SkipMetricMalformed
			return
		}
		out.Repaired = true
	}
	if v.Type() != fastjson.TypeObject {
		out.Skip = model.SkipMetricMalformed
		out.Repaired = false
		return
	}

	ev := decodeEvent(v)
	if ev.Kind == EventUnknown {
		out.Skip = model.SkipMetricUnknown
		out.Repaired = false
		return
	}
	out.Event = &ev
}

func (r *Reconstructor) reset() {
	r.pending.Reset()
	r.junctions = nil
	r.need = 0
	r.active = false
}

// braceDelta counts raw braces, including any inside string values.
func braceDelta(s string) int {
	return strings.Count(s, "{") - strings.Count(s, "}")
}

// repairJSON inserts the comma a concurrent writer can drop between two
// adjacent objects: `}"{` becomes `},"{` and `}{` at a line junction
// becomes `},{`.
func repairJSON(text string, junctions []int) string {
	if len(junctions) > 0 {
		var b strings.Builder
		b.Grow(len(text) + len(junctions))
		prev := 0
		for _, j := range junctions {
			b.WriteString(text[prev:j])
			if j > 0 && j < len(text) && text[j-1] == '}' && text[j] == '{' {
				b.WriteByte(',')
			}
			prev = j
		}
		b.WriteString(text[prev:])
		text = b.String()
	}
	text = strings.ReplaceAll(text, `}"{`, `},"{`)
	return strings.ReplaceAll(text, "}\n{", "},{")
}
