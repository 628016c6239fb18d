package ckpool

import (
	"testing"

	"github.com/tinytelemetry/poolstat/internal/model"
)

func TestAggregate_Windows(t *testing.T) {
	const ref = 100_000
	shares := []model.ShareRecord{
		{Timestamp: ref - 100, SDiff: 1},
		{Timestamp: ref - 700, SDiff: 2},
		{Timestamp: ref - 4000, SDiff: 3},
	}

	agg := Aggregate(shares, ref)

	// ref-700 is older than the 600s window.
	if agg.Last10m != (model.WindowAggregate{Count: 1, AvgSDiff: 1}) {
		t.Errorf("Last10m = %+v", agg.Last10m)
	}
	if agg.Last1h != (model.WindowAggregate{Count: 2, AvgSDiff: 1.5}) {
		t.Errorf("Last1h = %+v", agg.Last1h)
	}
	if agg.BestSDiff24h != 3 {
		t.Errorf("BestSDiff24h = %v", agg.BestSDiff24h)
	}
}

func TestAggregate_WindowBoundaryInclusive(t *testing.T) {
	const ref = 5000
	agg := Aggregate([]model.ShareRecord{{Timestamp: ref - 600, SDiff: 4}}, ref)
	if agg.Last10m.Count != 1 {
		t.Errorf("share exactly 600s old should be in the 10m window")
	}
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil, 1000)
	if agg.Last10m.Count != 0 || agg.Last10m.AvgSDiff != 0 || agg.BestSDiff24h != 0 {
		t.Errorf("unexpected aggregate %+v", agg)
	}
	if agg.ByAgent == nil || agg.ByWorker == nil {
		t.Error("groupings should be empty, not nil")
	}
}

func TestAggregate_Rounding(t *testing.T) {
	shares := []model.ShareRecord{
		{Timestamp: 10, SDiff: 1},
		{Timestamp: 10, SDiff: 1},
		{Timestamp: 10, SDiff: 2},
	}
	agg := Aggregate(shares, 10)
	if agg.Last10m.AvgSDiff != 1.333 {
		t.Errorf("AvgSDiff = %v, want 1.333", agg.Last10m.AvgSDiff)
	}
}

func TestCountBy_OrderStable(t *testing.T) {
	shares := []model.ShareRecord{
		{Agent: "b"}, {Agent: "a"}, {Agent: ""}, {Agent: "a"}, {Agent: "c"}, {Agent: "b"},
	}
	got := countBy(shares, func(s model.ShareRecord) string { return s.Agent })
	want := model.OrderedCounts{{Name: "b", Count: 2}, {Name: "a", Count: 2}, {Name: "c", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	}
}

func TestSortShares_Limit(t *testing.T) {
	shares := []model.ShareRecord{{Timestamp: 1}, {Timestamp: 3}, {Timestamp: 2}}
	if got := sortShares(append([]model.ShareRecord(nil), shares...), 0); len(got) != 3 || got[0].Timestamp != 3 {
		t.Errorf("limit 0 = %+v", got)
	}
	if got := sortShares(append([]model.ShareRecord(nil), shares...), 2); len(got) != 2 || got[1].Timestamp != 2 {
		t.Errorf("limit 2 = %+v", got)
	}
}
