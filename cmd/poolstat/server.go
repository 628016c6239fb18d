package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/poolstat/internal/backup"
	"github.com/tinytelemetry/poolstat/internal/ckpool"
	"github.com/tinytelemetry/poolstat/internal/duckdb"
	"github.com/tinytelemetry/poolstat/internal/httpserver"
	"github.com/tinytelemetry/poolstat/internal/logsource"
	"github.com/tinytelemetry/poolstat/internal/model"
	"github.com/tinytelemetry/poolstat/internal/noderpc"
	"github.com/tinytelemetry/poolstat/internal/otlpexport"
	"github.com/tinytelemetry/poolstat/internal/pricefeed"
	"github.com/tinytelemetry/poolstat/internal/report"
	"github.com/tinytelemetry/poolstat/internal/sampler"
	"github.com/tinytelemetry/poolstat/internal/socketrpc"
)

// runServer serves pool statistics over HTTP and the Unix socket, and
// samples hashrate history until interrupted.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	warnAddress(cfg)

	policy, err := ckpool.ParseMergePolicy(cfg.PoolMerge)
	if err != nil {
		return err
	}
	source := &logsource.Resolver{
		File:     cfg.LogFile,
		Dir:      cfg.LogDir,
		Fallback: cfg.LogPath,
		Addr:     cfg.BTCAddress,
	}
	svcCfg := report.Config{
		Source:     source,
		ShareLimit: cfg.ShareLimit,
		PoolMerge:  policy,
	}

	nodeCfg := noderpc.Config{
		Host:     cfg.RPCHost,
		Port:     cfg.RPCPort,
		User:     cfg.RPCUser,
		Password: cfg.RPCPassword,
		Timeout:  cfg.RPCTimeout,
	}
	if nodeCfg.Enabled() {
		svcCfg.Difficulty = noderpc.New(nodeCfg)
	}

	if cfg.PriceFeedEnabled {
		prices, err := pricefeed.New(pricefeed.Config{
			URL:      cfg.PriceFeedURL,
			Timezone: cfg.PriceFeedTimezone,
			Window:   cfg.PriceFeedWindow,
			Timeout:  cfg.PriceFeedTimeout,
		})
		if err != nil {
			log.Printf("Warning: price feed disabled: %v", err)
		} else {
			svcCfg.Prices = prices
		}
	}

	var sinks []model.SampleWriter

	// Hashrate history store and its retention cleaner.
	if cfg.HistoryEnabled {
		store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
		if err != nil {
			return fmt.Errorf("failed to initialize DuckDB: %w", err)
		}
		defer store.Close()
		svcCfg.History = store
		sinks = append(sinks, store)

		retentionCleaner := duckdb.NewRetentionCleaner(store, duckdb.RetentionConfig{
			RetentionDays: cfg.HistoryRetention,
		})
		if retentionCleaner != nil {
			defer retentionCleaner.Stop()
		}

		backupManager, err := backup.NewManager(store, backup.Config{
			Enabled:        cfg.BackupEnabled,
			Interval:       cfg.BackupInterval,
			LocalDir:       cfg.BackupLocalDir,
			KeepLast:       cfg.BackupKeepLast,
			BucketURL:      cfg.BackupBucketURL,
			S3Endpoint:     cfg.BackupS3Endpoint,
			S3Region:       cfg.BackupS3Region,
			S3AccessKey:    cfg.BackupS3AccessKey,
			S3SecretKey:    cfg.BackupS3SecretKey,
			S3SessionToken: cfg.BackupS3SessionToken,
			S3UseSSL:       cfg.BackupS3UseSSL,
		})
		if err != nil {
			log.Printf("Warning: history backup disabled: %v", err)
		} else if backupManager != nil {
			defer backupManager.Stop()
		}
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlpexport.New(otlpexport.Config{
			Endpoint: cfg.OTLPEndpoint,
			Insecure: cfg.OTLPInsecure,
			Timeout:  cfg.OTLPTimeout,
		})
		if err != nil {
			log.Printf("Warning: OTLP export disabled: %v", err)
		} else {
			defer exporter.Close()
			sinks = append(sinks, exporter)
		}
	}

	svc := report.New(svcCfg)

	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, svc)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// Socket RPC server for the dashboard client.
	sockServer := socketrpc.NewServer(cfg.SocketPath, svc)
	if err := sockServer.Start(); err != nil {
		log.Printf("Warning: failed to start socket server: %v", err)
	} else {
		defer sockServer.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		cleanupSocket(cfg.SocketPath)
		os.Exit(1)
	}()

	printStartupBanner(cfg, source.LogPath(), svcCfg)

	g, gctx := errgroup.WithContext(ctx)

	if len(sinks) > 0 {
		smp := sampler.New(svc, source.Address, cfg.SampleInterval, sinks...)
		g.Go(func() error {
			return smp.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	signal.Stop(sigCh)
	return nil
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "poolstat")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	f, err := os.OpenFile(filepath.Join(logDir, "poolstat.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, logPath string, svcCfg report.Config) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")
	row := func(on bool, label, value string) string {
		mark := dot
		if on {
			mark = check
		}
		return fmt.Sprintf("    %s  %-14s %s", mark, label, value)
	}

	logo := cyan.Bold(true).Render(`
    ╔═╗╔═╗╔═╗╦  ╔═╗╔╦╗╔═╗╔╦╗
    ╠═╝║ ║║ ║║  ╚═╗ ║ ╠═╣ ║
    ╩  ╚═╝╚═╝╩═╝╚═╝ ╩ ╩ ╩ ╩`)

	separator := dim.Render("    ─────────────────────────────────")

	lines := []string{"", logo, "    " + dim.Render("v"+version), "", separator, ""}

	lines = append(lines, bold.Render("    Pool"), "")
	lines = append(lines, row(true, "Log", dim.Render(shortenPath(logPath))))
	addr := cfg.BTCAddress
	if addr == "" {
		addr = "(none)"
	}
	lines = append(lines, row(cfg.BTCAddress != "", "Address", cyan.Render(addr)))
	lines = append(lines, row(true, "Network", dim.Render(cfg.Network)))
	lines = append(lines, row(true, "Pool merge", dim.Render(string(svcCfg.PoolMerge))))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Sources"), "")
	if svcCfg.Difficulty != nil {
		lines = append(lines, row(true, "Bitcoin node", cyan.Render(fmt.Sprintf("%s:%d", cfg.RPCHost, cfg.RPCPort))))
	} else {
		lines = append(lines, row(false, "Bitcoin node", dim.Render("disabled (no rpc-user/rpc-password)")))
	}
	if svcCfg.Prices != nil {
		lines = append(lines, row(true, "Price feed", dim.Render(cfg.PriceFeedTimezone)))
	} else {
		lines = append(lines, row(false, "Price feed", dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"), "")
	if cfg.APIEnabled {
		lines = append(lines, row(true, "HTTP API", cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, row(false, "HTTP API", dim.Render("disabled")))
	}
	lines = append(lines, row(true, "Unix Socket", cyan.Render(shortenPath(cfg.SocketPath))))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    History"), "")
	if svcCfg.History != nil {
		lines = append(lines, row(true, "Storage", dim.Render(shortenPath(cfg.DBPath))))
		lines = append(lines, row(true, "Sampling", dim.Render("every "+cfg.SampleInterval.String())))
	} else {
		lines = append(lines, row(false, "Storage", dim.Render("disabled")))
	}
	if svcCfg.History != nil && cfg.BackupEnabled {
		target := shortenPath(cfg.BackupLocalDir)
		if cfg.BackupBucketURL != "" {
			target += " + " + cfg.BackupBucketURL
		}
		lines = append(lines, row(true, "Backups", dim.Render(target+" every "+cfg.BackupInterval.String())))
	} else {
		lines = append(lines, row(false, "Backups", dim.Render("disabled")))
	}
	if cfg.OTLPEndpoint != "" {
		lines = append(lines, row(true, "OTLP export", cyan.Render(cfg.OTLPEndpoint)))
	} else {
		lines = append(lines, row(false, "OTLP export", dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"), "")
	if cfg.ConfigPath != "" {
		lines = append(lines, row(true, "Config File", dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, row(false, "Config File", dim.Render("default (no file)")))
	}

	lines = append(lines, "", separator, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"), "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
