package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/poolstat/internal/ckpool"
	"github.com/tinytelemetry/poolstat/internal/mining"
	"github.com/tinytelemetry/poolstat/internal/socketrpc"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var printConfig bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/poolstat/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&printConfig, "print-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("poolstat - ckpool statistics service\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if printConfig {
		if err := writeConfigYAML(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "poolstat", "poolstat.duckdb")

	v := viper.New()
	v.SetEnvPrefix("POOLSTAT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for key, legacy := range legacyEnv {
		prefixed := "POOLSTAT_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return cfg, fmt.Errorf("binding %s: %w", legacy, err)
		}
	}

	v.SetDefault("log-file", "")
	v.SetDefault("log-dir", "")
	v.SetDefault("log-path", defaultLogPath)
	v.SetDefault("btc-address", "")
	v.SetDefault("network", defaultNetwork)
	v.SetDefault("share-limit", defaultShareLimit)
	v.SetDefault("pool-merge", defaultPoolMerge)
	v.SetDefault("rpc-host", defaultRPCHost)
	v.SetDefault("rpc-port", defaultRPCPort)
	v.SetDefault("rpc-user", "")
	v.SetDefault("rpc-password", "")
	v.SetDefault("rpc-timeout", defaultRPCTimeout)
	v.SetDefault("price-feed-enabled", true)
	v.SetDefault("price-feed-url", defaultPriceURL)
	v.SetDefault("price-feed-timezone", defaultPriceTimezone)
	v.SetDefault("price-feed-window", defaultPriceWindow)
	v.SetDefault("price-feed-timeout", defaultPriceTimeout)
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("api-addr", "")
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("history-enabled", true)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("sample-interval", defaultSampleInterval)
	v.SetDefault("history-retention", defaultHistoryRetention)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("otlp-endpoint", "")
	v.SetDefault("otlp-insecure", false)
	v.SetDefault("otlp-timeout", defaultOTLPTimeout)
	v.SetDefault("backup-enabled", false)
	v.SetDefault("backup-interval", defaultBackupInterval)
	v.SetDefault("backup-local-dir", filepath.Join(home, ".local", "share", "poolstat", "backups"))
	v.SetDefault("backup-keep-last", defaultBackupKeepLast)
	v.SetDefault("backup-bucket-url", "")
	v.SetDefault("backup-s3-endpoint", "")
	v.SetDefault("backup-s3-region", "us-east-1")
	v.SetDefault("backup-s3-access-key", "")
	v.SetDefault("backup-s3-secret-key", "")
	v.SetDefault("backup-s3-session-token", "")
	v.SetDefault("backup-s3-use-ssl", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "poolstat", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	} else {
		cfg.ConfigPath = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}

	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.BackupLocalDir = expandHome(cfg.BackupLocalDir, home)
	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}

func validateConfig(cfg *appConfig) error {
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.RPCPort <= 0 || cfg.RPCPort > 65535 {
		return fmt.Errorf("invalid rpc-port: %d", cfg.RPCPort)
	}
	if cfg.ShareLimit < 0 {
		return fmt.Errorf("invalid share-limit: %d", cfg.ShareLimit)
	}
	if _, err := ckpool.ParseMergePolicy(cfg.PoolMerge); err != nil {
		return err
	}
	if cfg.HistoryEnabled && cfg.SampleInterval <= 0 {
		return fmt.Errorf("invalid sample-interval: %s", cfg.SampleInterval)
	}
	if cfg.HistoryRetention < 0 {
		return fmt.Errorf("invalid history-retention: %d", cfg.HistoryRetention)
	}
	if cfg.BackupEnabled {
		if !cfg.HistoryEnabled {
			return fmt.Errorf("backup-enabled requires history-enabled")
		}
		if cfg.BackupInterval <= 0 {
			return fmt.Errorf("invalid backup-interval: %s", cfg.BackupInterval)
		}
		if cfg.BackupKeepLast < 0 {
			return fmt.Errorf("invalid backup-keep-last: %d", cfg.BackupKeepLast)
		}
	}
	if _, err := mining.ChainParams(cfg.Network); err != nil {
		return err
	}
	cfg.BTCAddress = strings.TrimSpace(cfg.BTCAddress)
	return nil
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// warnAddress logs when the tracked address does not decode on the
// configured network. Parsing still proceeds with the raw string.
func warnAddress(cfg appConfig) {
	if cfg.BTCAddress == "" {
		log.Printf("config: btc-address is empty; shares are not filtered and no User record will match")
		return
	}
	params, err := mining.ChainParams(cfg.Network)
	if err != nil {
		return
	}
	if err := mining.ValidateAddress(cfg.BTCAddress, params); err != nil {
		log.Printf("config: warning: %v", err)
	}
}

func writeConfigYAML(w io.Writer, cfg appConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.redacted()); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
