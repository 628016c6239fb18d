package model

import (
	"context"
	"errors"
	"time"
)

// ErrHistoryDisabled is returned by History when no sample store is configured.
var ErrHistoryDisabled = errors.New("hashrate history is disabled")

// StatsReader produces a freshly parsed StatsResult. Implementations never
// fail; lossy input is reported through the returned Diagnostics.
type StatsReader interface {
	Stats(ctx context.Context) (*StatsResult, *Diagnostics)
}

// ReportReader builds the combined /metrics document.
type ReportReader interface {
	Report(ctx context.Context) (*MetricsReport, error)
}

// HistoryQuerier provides read-only access to stored hashrate samples.
type HistoryQuerier interface {
	SamplesSince(ctx context.Context, since time.Time, limit int) ([]HashrateSample, error)
}

// SampleWriter persists or exports hashrate samples.
type SampleWriter interface {
	WriteSample(ctx context.Context, sample HashrateSample) error
}

// ReadAPI is the unified read contract for read surfaces (HTTP and socket RPC).
type ReadAPI interface {
	StatsReader
	ReportReader
	History(ctx context.Context, window time.Duration, limit int) ([]HashrateSample, error)
}
