// Package otlpexport pushes hashrate samples as OTLP gauge metrics over gRPC.
package otlpexport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const (
	serviceName = "poolstat"
	scopeName   = "github.com/tinytelemetry/poolstat/internal/sampler"

	// DefaultTimeout bounds a single export call.
	DefaultTimeout = 10 * time.Second
)

// Config selects the collector endpoint.
type Config struct {
	Endpoint string
	Insecure bool
	Timeout  time.Duration
}

// Exporter sends each sample as one ExportMetricsServiceRequest.
type Exporter struct {
	conn    *grpc.ClientConn
	client  colmetricspb.MetricsServiceClient
	timeout time.Duration
}

// New connects to the collector at cfg.Endpoint. Extra dial options are
// appended after the transport credentials.
func New(cfg Config, opts ...grpc.DialOption) (*Exporter, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("otlpexport: endpoint is required")
	}
	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	if cfg.Insecure {
		creds = insecure.NewCredentials()
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)

	conn, err := grpc.NewClient(cfg.Endpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("otlpexport: dial %s: %w", cfg.Endpoint, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exporter{
		conn:    conn,
		client:  colmetricspb.NewMetricsServiceClient(conn),
		timeout: timeout,
	}, nil
}

// Close releases the connection.
func (e *Exporter) Close() error {
	return e.conn.Close()
}

// WriteSample exports sample as gauges.
func (e *Exporter) WriteSample(ctx context.Context, sample model.HashrateSample) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Export(ctx, BuildRequest(sample))
	if err != nil {
		return fmt.Errorf("otlpexport: export: %w", err)
	}
	if ps := resp.GetPartialSuccess(); ps != nil && ps.GetRejectedDataPoints() > 0 {
		log.Printf("otlpexport: collector rejected %d data points: %s", ps.GetRejectedDataPoints(), ps.GetErrorMessage())
	}
	return nil
}

// BuildRequest converts a sample into an OTLP metrics request.
func BuildRequest(sample model.HashrateSample) *colmetricspb.ExportMetricsServiceRequest {
	ts := uint64(sample.Timestamp.UnixNano())
	attrs := []*commonpb.KeyValue{stringAttr("btc.address", sample.Address)}

	double := func(name, unit string, v float64) *metricspb.Metric {
		return gauge(name, unit, &metricspb.NumberDataPoint{
			Attributes:   attrs,
			TimeUnixNano: ts,
			Value:        &metricspb.NumberDataPoint_AsDouble{AsDouble: v},
		})
	}
	integer := func(name, unit string, v int64) *metricspb.Metric {
		return gauge(name, unit, &metricspb.NumberDataPoint{
			Attributes:   attrs,
			TimeUnixNano: ts,
			Value:        &metricspb.NumberDataPoint_AsInt{AsInt: v},
		})
	}

	metrics := []*metricspb.Metric{
		double("ckpool.user.hashrate.1m", "H/s", sample.Hashrate1m),
		double("ckpool.user.hashrate.5m", "H/s", sample.Hashrate5m),
		double("ckpool.user.hashrate.1h", "H/s", sample.Hashrate1h),
		double("ckpool.user.hashrate.1d", "H/s", sample.Hashrate1d),
		double("ckpool.user.hashrate.7d", "H/s", sample.Hashrate7d),
		double("ckpool.user.shares.accepted", "{share}", sample.AcceptedShares),
		double("ckpool.user.bestshare", "1", sample.BestShare),
		integer("ckpool.user.workers", "{worker}", sample.Workers),
		integer("ckpool.pool.users", "{user}", sample.PoolUsers),
		integer("ckpool.pool.workers", "{worker}", sample.PoolWorkers),
	}

	return &colmetricspb.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricspb.ResourceMetrics{{
			Resource: &resourcepb.Resource{
				Attributes: []*commonpb.KeyValue{stringAttr("service.name", serviceName)},
			},
			ScopeMetrics: []*metricspb.ScopeMetrics{{
				Scope:   &commonpb.InstrumentationScope{Name: scopeName},
				Metrics: metrics,
			}},
		}},
	}
}

func gauge(name, unit string, dp *metricspb.NumberDataPoint) *metricspb.Metric {
	return &metricspb.Metric{
		Name: name,
		Unit: unit,
		Data: &metricspb.Metric_Gauge{Gauge: &metricspb.Gauge{
			DataPoints: []*metricspb.NumberDataPoint{dp},
		}},
	}
}

func stringAttr(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{
		Key:   key,
		Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: value}},
	}
}

var _ model.SampleWriter = (*Exporter)(nil)
