package main

import (
	"time"

	"github.com/tinytelemetry/poolstat/internal/ckpool"
	"github.com/tinytelemetry/poolstat/internal/duckdb"
	"github.com/tinytelemetry/poolstat/internal/logsource"
	"github.com/tinytelemetry/poolstat/internal/model"
	"github.com/tinytelemetry/poolstat/internal/otlpexport"
	"github.com/tinytelemetry/poolstat/internal/pricefeed"
)

const (
	defaultBindHost         = "0.0.0.0"
	defaultAPIPort          = 8000
	defaultNetwork          = "mainnet"
	defaultShareLimit       = model.DefaultShareLimit
	defaultPoolMerge        = string(ckpool.MergeNewest)
	defaultRPCHost          = "127.0.0.1"
	defaultRPCPort          = 8332
	defaultRPCTimeout       = 10 * time.Second
	defaultSampleInterval   = model.DefaultSampleInterval
	defaultHistoryRetention = duckdb.DefaultRetentionDays // days, 0 = disabled
	defaultQueryTimeout     = duckdb.DefaultQueryTimeout
	defaultOTLPTimeout      = otlpexport.DefaultTimeout
	defaultLogPath          = logsource.DefaultLogPath
	defaultPriceURL         = pricefeed.DefaultURL
	defaultPriceTimezone    = pricefeed.DefaultTimezone
	defaultPriceWindow      = pricefeed.DefaultWindow
	defaultPriceTimeout     = pricefeed.DefaultTimeout
	defaultBackupInterval   = 6 * time.Hour
	defaultBackupKeepLast   = 24
)

// legacyEnv maps config keys to the bare environment names the pool
// container has always exported. POOLSTAT_* names take precedence.
var legacyEnv = map[string]string{
	"log-file":     "CKPOOL_LOG_FILE",
	"log-dir":      "CKPOOL_LOG_DIR",
	"btc-address":  "BTC_ADDRESS",
	"rpc-user":     "RPC_USER",
	"rpc-password": "RPC_PASSWORD",
	"rpc-host":     "RPC_HOST",
	"rpc-port":     "RPC_PORT",
}

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	LogFile    string `mapstructure:"log-file" yaml:"log-file"`
	LogDir     string `mapstructure:"log-dir" yaml:"log-dir"`
	LogPath    string `mapstructure:"log-path" yaml:"log-path"`
	BTCAddress string `mapstructure:"btc-address" yaml:"btc-address"`
	Network    string `mapstructure:"network" yaml:"network"`
	ShareLimit int    `mapstructure:"share-limit" yaml:"share-limit"`
	PoolMerge  string `mapstructure:"pool-merge" yaml:"pool-merge"`

	RPCHost     string        `mapstructure:"rpc-host" yaml:"rpc-host"`
	RPCPort     int           `mapstructure:"rpc-port" yaml:"rpc-port"`
	RPCUser     string        `mapstructure:"rpc-user" yaml:"rpc-user"`
	RPCPassword string        `mapstructure:"rpc-password" yaml:"rpc-password"`
	RPCTimeout  time.Duration `mapstructure:"rpc-timeout" yaml:"rpc-timeout"`

	PriceFeedEnabled  bool          `mapstructure:"price-feed-enabled" yaml:"price-feed-enabled"`
	PriceFeedURL      string        `mapstructure:"price-feed-url" yaml:"price-feed-url"`
	PriceFeedTimezone string        `mapstructure:"price-feed-timezone" yaml:"price-feed-timezone"`
	PriceFeedWindow   time.Duration `mapstructure:"price-feed-window" yaml:"price-feed-window"`
	PriceFeedTimeout  time.Duration `mapstructure:"price-feed-timeout" yaml:"price-feed-timeout"`

	APIEnabled bool   `mapstructure:"api-enabled" yaml:"api-enabled"`
	APIPort    int    `mapstructure:"api-port" yaml:"api-port"`
	APIAddr    string `mapstructure:"api-addr" yaml:"api-addr"`
	SocketPath string `mapstructure:"socket-path" yaml:"socket-path"`

	HistoryEnabled   bool          `mapstructure:"history-enabled" yaml:"history-enabled"`
	DBPath           string        `mapstructure:"db-path" yaml:"db-path"`
	SampleInterval   time.Duration `mapstructure:"sample-interval" yaml:"sample-interval"`
	HistoryRetention int           `mapstructure:"history-retention" yaml:"history-retention"`
	QueryTimeout     time.Duration `mapstructure:"query-timeout" yaml:"query-timeout"`

	OTLPEndpoint string        `mapstructure:"otlp-endpoint" yaml:"otlp-endpoint"`
	OTLPInsecure bool          `mapstructure:"otlp-insecure" yaml:"otlp-insecure"`
	OTLPTimeout  time.Duration `mapstructure:"otlp-timeout" yaml:"otlp-timeout"`

	BackupEnabled        bool          `mapstructure:"backup-enabled" yaml:"backup-enabled"`
	BackupInterval       time.Duration `mapstructure:"backup-interval" yaml:"backup-interval"`
	BackupLocalDir       string        `mapstructure:"backup-local-dir" yaml:"backup-local-dir"`
	BackupKeepLast       int           `mapstructure:"backup-keep-last" yaml:"backup-keep-last"`
	BackupBucketURL      string        `mapstructure:"backup-bucket-url" yaml:"backup-bucket-url"`
	BackupS3Endpoint     string        `mapstructure:"backup-s3-endpoint" yaml:"backup-s3-endpoint"`
	BackupS3Region       string        `mapstructure:"backup-s3-region" yaml:"backup-s3-region"`
	BackupS3AccessKey    string        `mapstructure:"backup-s3-access-key" yaml:"backup-s3-access-key"`
	BackupS3SecretKey    string        `mapstructure:"backup-s3-secret-key" yaml:"backup-s3-secret-key"`
	BackupS3SessionToken string        `mapstructure:"backup-s3-session-token" yaml:"backup-s3-session-token"`
	BackupS3UseSSL       bool          `mapstructure:"backup-s3-use-ssl" yaml:"backup-s3-use-ssl"`

	ConfigPath string `mapstructure:"-" yaml:"-"` // not from config file
}

// redacted returns a copy safe to print.
func (c appConfig) redacted() appConfig {
	if c.RPCPassword != "" {
		c.RPCPassword = "********"
	}
	if c.BackupS3SecretKey != "" {
		c.BackupS3SecretKey = "********"
	}
	if c.BackupS3SessionToken != "" {
		c.BackupS3SessionToken = "********"
	}
	return c
}
