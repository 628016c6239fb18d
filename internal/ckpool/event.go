package ckpool

import (
	"math"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/tinytelemetry/poolstat/internal/model"
)

// EventKind tags a decoded METRIC object.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventShare
	EventWorkInfo
)

func (k EventKind) String() string {
	switch k {
	case EventShare:
		return "share"
	case EventWorkInfo:
		return "workinfo"
	default:
		return "unknown"
	}
}

// Event is one reconstructed METRIC record. Exactly one of Share or
// WorkInfo is meaningful, selected by Kind.
type Event struct {
	Kind EventKind
	// Username is the trimmed "username" field of a share, used only for
	// address filtering.
	Username string
	Share    model.ShareRecord
	WorkInfo model.WorkInfo
}

// decodeEvent converts a parsed METRIC object into an Event. Absent or
// mistyped fields fall back to zero values.
func decodeEvent(v *fastjson.Value) Event {
	switch jsonString(v, "type") {
	case "share":
		return Event{
			Kind:     EventShare,
			Username: strings.TrimSpace(jsonString(v, "username")),
			Share: model.ShareRecord{
				Timestamp:  jsonTimestamp(v, "ts"),
				WorkInfoID: jsonInt(v, "workinfoid"),
				ClientID:   jsonInt(v, "clientid"),
				Enonce1:    jsonString(v, "enonce1"),
				Nonce2:     jsonString(v, "nonce2"),
				Nonce:      jsonString(v, "nonce"),
				NTime:      jsonString(v, "ntime"),
				Diff:       jsonFloat(v, "diff"),
				SDiff:      jsonFloat(v, "sdiff"),
				Hash:       jsonString(v, "hash"),
				Result:     jsonTruthy(v, "result"),
				Errn:       jsonInt(v, "errn"),
				WorkerName: strings.TrimSpace(jsonString(v, "workername")),
				Agent:      jsonString(v, "agent"),
				Address:    jsonString(v, "address"),
			},
		}
	case "workinfo":
		return Event{
			Kind: EventWorkInfo,
			WorkInfo: model.WorkInfo{
				Timestamp:    jsonTimestamp(v, "ts"),
				WorkInfoID:   jsonInt(v, "workinfoid"),
				Pool:         jsonString(v, "pool"),
				PoolInstance: jsonString(v, "poolinstance"),
				PrevHash:     jsonString(v, "prevhash"),
				Version:      jsonString(v, "version"),
				NTime:        jsonString(v, "ntime"),
				Bits:         jsonString(v, "bits"),
				Reward:       jsonInt(v, "reward"),
			},
		}
	default:
		return Event{Kind: EventUnknown}
	}
}

// decodeUser reads a `User <address>:{...}` object.
func decodeUser(v *fastjson.Value) model.UserSnapshot {
	return model.UserSnapshot{
		LastShare:   jsonTimestamp(v, "lastshare"),
		Shares:      jsonFloat(v, "shares"),
		Hashrate1m:  jsonStringOr(v, "hashrate1m", "0"),
		Hashrate5m:  jsonStringOr(v, "hashrate5m", "0"),
		Hashrate1hr: jsonStringOr(v, "hashrate1hr", "0"),
		Hashrate1d:  jsonStringOr(v, "hashrate1d", "0"),
		Hashrate7d:  jsonStringOr(v, "hashrate7d", "0"),
		Workers:     jsonInt(v, "workers"),
		BestShare:   jsonFloat(v, "bestshare"),
		Difficulty:  jsonFloat(v, "difficulty"),
	}
}

// decodeWorker reads a `Worker <name>:{...}` object. The name from the
// line prefix is used when the object carries no workername.
func decodeWorker(v *fastjson.Value, lineName string) model.WorkerSnapshot {
	name := jsonString(v, "workername")
	if name == "" {
		name = strings.TrimSpace(lineName)
	}
	return model.WorkerSnapshot{
		WorkerName:  name,
		Hashrate1m:  jsonStringOr(v, "hashrate1m", "0"),
		Hashrate5m:  jsonStringOr(v, "hashrate5m", "0"),
		Hashrate1hr: jsonStringOr(v, "hashrate1hr", "0"),
		Hashrate1d:  jsonStringOr(v, "hashrate1d", "0"),
		Hashrate7d:  jsonStringOr(v, "hashrate7d", "0"),
		LastShare:   jsonTimestamp(v, "lastshare"),
		Shares:      jsonFloat(v, "shares"),
		BestShare:   jsonFloat(v, "bestshare"),
		BestEver:    jsonFloat(v, "bestever"),
	}
}

func jsonFloat(v *fastjson.Value, key string) float64 {
	f := v.Get(key)
	if f == nil {
		return 0
	}
	switch f.Type() {
	case fastjson.TypeNumber:
		n, err := f.Float64()
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case fastjson.TypeString:
		b, _ := f.StringBytes()
		n, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case fastjson.TypeTrue:
		return 1
	default:
		return 0
	}
}

func jsonInt(v *fastjson.Value, key string) int64 {
	f := v.Get(key)
	if f != nil && f.Type() == fastjson.TypeNumber {
		if n, err := f.Int64(); err == nil {
			return n
		}
	}
	n := jsonFloat(v, key)
	if n >= math.MaxInt64 || n <= math.MinInt64 {
		return 0
	}
	return int64(n)
}

// jsonTimestamp reads unix seconds, truncating fractions. Negative values
// clamp to zero.
func jsonTimestamp(v *fastjson.Value, key string) int64 {
	ts := jsonInt(v, key)
	if ts < 0 {
		return 0
	}
	return ts
}

func jsonString(v *fastjson.Value, key string) string {
	return jsonStringOr(v, key, "")
}

func jsonStringOr(v *fastjson.Value, key, fallback string) string {
	f := v.Get(key)
	if f == nil {
		return fallback
	}
	switch f.Type() {
	case fastjson.TypeString:
		b, _ := f.StringBytes()
		return string(b)
	case fastjson.TypeNumber, fastjson.TypeTrue, fastjson.TypeFalse:
		return f.String()
	default:
		return fallback
	}
}

// jsonTruthy follows loose truthiness: non-zero numbers, non-empty strings
// and containers count as true.
func jsonTruthy(v *fastjson.Value, key string) bool {
	f := v.Get(key)
	if f == nil {
		return false
	}
	switch f.Type() {
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeNumber:
		n, err := f.Float64()
		return err == nil && n != 0
	case fastjson.TypeString:
		b, _ := f.StringBytes()
		return len(b) > 0
	case fastjson.TypeObject:
		o, _ := f.Object()
		return o != nil && o.Len() > 0
	case fastjson.TypeArray:
		a, _ := f.Array()
		return len(a) > 0
	default:
		return false
	}
}
