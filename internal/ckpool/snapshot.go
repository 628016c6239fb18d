package ckpool

import (
	"regexp"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/tinytelemetry/poolstat/internal/logparse"
	"github.com/tinytelemetry/poolstat/internal/model"
)

var workerLineRE = regexp.MustCompile(`Worker\s+([^:]+):(\{.*\})\s*$`)

// snapshotScan is the accumulator threaded through the reverse
// User/Worker scan.
type snapshotScan struct {
	userRE  *regexp.Regexp
	address string

	User      *model.UserSnapshot
	UserFound bool
	Workers   []model.WorkerSnapshot
}

func newSnapshotScan(address string) *snapshotScan {
	s := &snapshotScan{address: address, Workers: []model.WorkerSnapshot{}}
	if address != "" {
		s.userRE = regexp.MustCompile(`User\s+` + regexp.QuoteMeta(address) + `:(\{.*\})\s*$`)
	}
	return s
}

// done reports whether the scan has reached its stopping point: the most
// recent User line for the tracked address.
func (s *snapshotScan) done() bool {
	return s.UserFound
}

// scanSnapshots walks lines from the end, collecting every Worker line
// until the tracked User line is found.
func scanSnapshots(lines []string, address string, diag *model.Diagnostics) *snapshotScan {
	scan := newSnapshotScan(address)
	var p fastjson.Parser
	for i := len(lines) - 1; i >= 0 && !scan.done(); i-- {
		scan.visit(&p, logparse.StripTimestamp(lines[i]), diag)
	}
	return scan
}

func (s *snapshotScan) visit(p *fastjson.Parser, content string, diag *model.Diagnostics) {
	if strings.HasPrefix(content, "Worker ") {
		m := workerLineRE.FindStringSubmatch(content)
		if m == nil {
			return
		}
		v, err := p.Parse(m[2])
		if err != nil || v.Type() != fastjson.TypeObject {
			diag.Skip(model.SkipWorkerMalformed)
			return
		}
		s.Workers = append(s.Workers, decodeWorker(v, m[1]))
		diag.WorkerLines++
		return
	}

	if s.userRE == nil || !strings.HasPrefix(content, "User ") || !strings.Contains(content, s.address) {
		return
	}
	m := s.userRE.FindStringSubmatch(content)
	if m == nil {
		return
	}
	v, err := p.Parse(m[1])
	if err != nil || v.Type() != fastjson.TypeObject {
		diag.Skip(model.SkipUserMalformed)
		return
	}
	s.UserFound = true
	// An empty object still ends the scan but carries nothing to report.
	if o, _ := v.Object(); o != nil && o.Len() > 0 {
		u := decodeUser(v)
		s.User = &u
	}
}
