package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// isolateEnv points HOME at a temp dir and clears every variable the
// loader reads.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_RUNTIME_DIR", "")
	for key, legacy := range legacyEnv {
		t.Setenv(legacy, "")
		os.Unsetenv(legacy)
		prefixed := "POOLSTAT_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		t.Setenv(prefixed, "")
		os.Unsetenv(prefixed)
	}
	return home
}

func TestLoadConfig_Defaults(t *testing.T) {
	home := isolateEnv(t)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LogPath != "/ckpool/logs/ckpool.log" {
		t.Errorf("LogPath = %q", cfg.LogPath)
	}
	if cfg.ShareLimit != 100 || cfg.PoolMerge != "newest" || cfg.Network != "mainnet" {
		t.Errorf("core defaults = %d %q %q", cfg.ShareLimit, cfg.PoolMerge, cfg.Network)
	}
	if cfg.RPCHost != "127.0.0.1" || cfg.RPCPort != 8332 {
		t.Errorf("rpc = %s:%d", cfg.RPCHost, cfg.RPCPort)
	}
	if cfg.APIAddr != "0.0.0.0:8000" {
		t.Errorf("APIAddr = %q", cfg.APIAddr)
	}
	if cfg.SampleInterval != time.Minute || cfg.HistoryRetention != 30 {
		t.Errorf("history = %v %d", cfg.SampleInterval, cfg.HistoryRetention)
	}
	if want := filepath.Join(home, ".local", "share", "poolstat", "poolstat.duckdb"); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty without a file", cfg.ConfigPath)
	}
	if cfg.BackupEnabled || cfg.BackupInterval != 6*time.Hour || cfg.BackupKeepLast != 24 {
		t.Errorf("backup = %v %v %d", cfg.BackupEnabled, cfg.BackupInterval, cfg.BackupKeepLast)
	}
	if want := filepath.Join(home, ".local", "share", "poolstat", "backups"); cfg.BackupLocalDir != want {
		t.Errorf("BackupLocalDir = %q, want %q", cfg.BackupLocalDir, want)
	}
}

func TestLoadConfig_LegacyEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CKPOOL_LOG_FILE", "/data/ckpool.log")
	t.Setenv("CKPOOL_LOG_DIR", "/data/logs")
	t.Setenv("BTC_ADDRESS", "  bc1qlegacy  ")
	t.Setenv("RPC_USER", "alice")
	t.Setenv("RPC_PASSWORD", "secret")
	t.Setenv("RPC_HOST", "node.local")
	t.Setenv("RPC_PORT", "18332")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LogFile != "/data/ckpool.log" || cfg.LogDir != "/data/logs" {
		t.Errorf("log = %q %q", cfg.LogFile, cfg.LogDir)
	}
	if cfg.BTCAddress != "bc1qlegacy" {
		t.Errorf("BTCAddress = %q", cfg.BTCAddress)
	}
	if cfg.RPCUser != "alice" || cfg.RPCPassword != "secret" || cfg.RPCHost != "node.local" || cfg.RPCPort != 18332 {
		t.Errorf("rpc = %+v", cfg)
	}
}

func TestLoadConfig_PrefixedEnvWins(t *testing.T) {
	isolateEnv(t)
	t.Setenv("BTC_ADDRESS", "bc1qlegacy")
	t.Setenv("POOLSTAT_BTC_ADDRESS", "bc1qprefixed")
	t.Setenv("POOLSTAT_SHARE_LIMIT", "25")
	t.Setenv("POOLSTAT_POOL_MERGE", "overwrite")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BTCAddress != "bc1qprefixed" {
		t.Errorf("BTCAddress = %q, want prefixed value", cfg.BTCAddress)
	}
	if cfg.ShareLimit != 25 || cfg.PoolMerge != "overwrite" {
		t.Errorf("share-limit=%d pool-merge=%q", cfg.ShareLimit, cfg.PoolMerge)
	}
}

func TestLoadConfig_File(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
log-path: /srv/ckpool/ckpool.log
btc-address: bc1qfile
share-limit: 0
api-port: 9100
history-enabled: false
sample-interval: 30s
db-path: ~/stats.duckdb
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ConfigPath != path {
		t.Errorf("ConfigPath = %q", cfg.ConfigPath)
	}
	if cfg.LogPath != "/srv/ckpool/ckpool.log" || cfg.BTCAddress != "bc1qfile" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.ShareLimit != 0 {
		t.Errorf("ShareLimit = %d, want 0 (unlimited)", cfg.ShareLimit)
	}
	if cfg.APIAddr != "0.0.0.0:9100" || cfg.HistoryEnabled || cfg.SampleInterval != 30*time.Second {
		t.Errorf("api=%q history=%v interval=%v", cfg.APIAddr, cfg.HistoryEnabled, cfg.SampleInterval)
	}
	if home, _ := os.UserHomeDir(); cfg.DBPath != filepath.Join(home, "stats.duckdb") {
		t.Errorf("DBPath = %q, ~ not expanded", cfg.DBPath)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"api port", map[string]string{"POOLSTAT_API_PORT": "70000"}, "api-port"},
		{"rpc port", map[string]string{"RPC_PORT": "0"}, "rpc-port"},
		{"share limit", map[string]string{"POOLSTAT_SHARE_LIMIT": "-1"}, "share-limit"},
		{"merge policy", map[string]string{"POOLSTAT_POOL_MERGE": "oldest"}, "merge policy"},
		{"network", map[string]string{"POOLSTAT_NETWORK": "litecoin"}, "network"},
		{"retention", map[string]string{"POOLSTAT_HISTORY_RETENTION": "-5"}, "history-retention"},
		{"backup without history", map[string]string{"POOLSTAT_BACKUP_ENABLED": "true", "POOLSTAT_HISTORY_ENABLED": "false"}, "history-enabled"},
		{"backup interval", map[string]string{"POOLSTAT_BACKUP_ENABLED": "true", "POOLSTAT_BACKUP_INTERVAL": "0s"}, "backup-interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("share-limit: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestWriteConfigYAML_RedactsPassword(t *testing.T) {
	isolateEnv(t)
	t.Setenv("RPC_USER", "alice")
	t.Setenv("RPC_PASSWORD", "hunter2")
	t.Setenv("POOLSTAT_BACKUP_S3_SECRET_KEY", "s3secret")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	var buf bytes.Buffer
	if err := writeConfigYAML(&buf, cfg); err != nil {
		t.Fatalf("writeConfigYAML: %v", err)
	}
	if strings.Contains(buf.String(), "hunter2") || strings.Contains(buf.String(), "s3secret") {
		t.Fatal("password leaked into printed config")
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("printed config is not YAML: %v", err)
	}
	if decoded["rpc-user"] != "alice" || decoded["sample-interval"] != "1m0s" {
		t.Errorf("decoded = %v", decoded)
	}
	if _, ok := decoded["ConfigPath"]; ok {
		t.Error("ConfigPath should not be printed")
	}
}
