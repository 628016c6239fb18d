package otlpexport

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const bufSize = 1024 * 1024

type fakeCollector struct {
	colmetricspb.UnimplementedMetricsServiceServer

	mu       sync.Mutex
	requests []*colmetricspb.ExportMetricsServiceRequest
}

func (f *fakeCollector) Export(_ context.Context, req *colmetricspb.ExportMetricsServiceRequest) (*colmetricspb.ExportMetricsServiceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, proto.Clone(req).(*colmetricspb.ExportMetricsServiceRequest))
	return &colmetricspb.ExportMetricsServiceResponse{}, nil
}

func startCollector(t *testing.T) (*fakeCollector, *Exporter) {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	collector := &fakeCollector{}
	colmetricspb.RegisterMetricsServiceServer(srv, collector)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	exp, err := New(Config{Endpoint: "passthrough:///bufnet", Insecure: true},
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { exp.Close() })
	return collector, exp
}

func TestWriteSample_ExportsGauges(t *testing.T) {
	collector, exp := startCollector(t)
	sample := model.HashrateSample{
		Timestamp:   time.Unix(1_700_000_000, 0),
		Address:     "bc1qexport",
		Hashrate1m:  1.5e12,
		Workers:     3,
		PoolWorkers: 9,
	}

	if err := exp.WriteSample(context.Background(), sample); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}

	collector.mu.Lock()
	defer collector.mu.Unlock()
	if len(collector.requests) != 1 {
		t.Fatalf("collector got %d requests, want 1", len(collector.requests))
	}
	metrics := collector.requests[0].GetResourceMetrics()[0].GetScopeMetrics()[0].GetMetrics()
	byName := map[string]float64{}
	for _, m := range metrics {
		dp := m.GetGauge().GetDataPoints()[0]
		if dp.GetTimeUnixNano() != uint64(sample.Timestamp.UnixNano()) {
			t.Errorf("%s: TimeUnixNano = %d", m.GetName(), dp.GetTimeUnixNano())
		}
		if got := dp.GetAttributes()[0].GetValue().GetStringValue(); got != "bc1qexport" {
			t.Errorf("%s: address attribute = %q", m.GetName(), got)
		}
		byName[m.GetName()] = dp.GetAsDouble() + float64(dp.GetAsInt())
	}
	if byName["ckpool.user.hashrate.1m"] != 1.5e12 {
		t.Errorf("hashrate.1m = %v", byName["ckpool.user.hashrate.1m"])
	}
	if byName["ckpool.user.workers"] != 3 || byName["ckpool.pool.workers"] != 9 {
		t.Errorf("workers = %v / %v", byName["ckpool.user.workers"], byName["ckpool.pool.workers"])
	}
}

func TestBuildRequest_Resource(t *testing.T) {
	req := BuildRequest(model.HashrateSample{Timestamp: time.Unix(1, 0)})
	rm := req.GetResourceMetrics()
	if len(rm) != 1 {
		t.Fatalf("resource metrics = %d", len(rm))
	}
	attr := rm[0].GetResource().GetAttributes()[0]
	if attr.GetKey() != "service.name" || attr.GetValue().GetStringValue() != serviceName {
		t.Errorf("resource attribute = %v", attr)
	}
	if n := len(rm[0].GetScopeMetrics()[0].GetMetrics()); n != 10 {
		t.Errorf("metrics = %d, want 10", n)
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty endpoint")
	}
}
