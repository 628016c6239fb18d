// Package backup periodically exports hashrate history to Parquet files
// and optionally ships them to S3-compatible storage.
package backup

import (
	"context"
	"time"
)

// Config controls periodic history exports.
type Config struct {
	Enabled   bool
	Interval  time.Duration
	LocalDir  string
	KeepLast  int
	BucketURL string

	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3SessionToken string
	S3UseSSL       bool
}

// Exporter writes the current history to a file.
type Exporter interface {
	ExportParquet(ctx context.Context, dstPath string) error
}

// Uploader ships one exported file.
type Uploader interface {
	UploadFile(ctx context.Context, localPath string) error
}
