package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/poolstat/internal/model"
	"github.com/tinytelemetry/poolstat/internal/socketrpc"
	"github.com/tinytelemetry/poolstat/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file (default is $HOME/.config/poolstat/config.yml)")
	socketPath := flag.String("socket", "", "socket path of the running poolstat service")
	interval := flag.Duration("interval", 0, "refresh interval (overrides update-interval)")
	dumpJSON := flag.Bool("json", false, "print one metrics report as JSON and exit")
	showVersion := flag.Bool("version", false, "print version information")
	flag.Parse()

	if *showVersion {
		printVersion(os.Stdout)
		return
	}

	cfg, err := loadCLIConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}
	if *interval > 0 {
		cfg.UpdateInterval = *interval
	}

	client, err := socketrpc.Dial(cfg.SocketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: no poolstat service at %s: %v\nStart it with: poolstat\n", cfg.SocketPath, err)
		os.Exit(1)
	}
	defer client.Close()

	if *dumpJSON {
		err = dumpReport(os.Stdout, client)
	} else {
		err = runDashboard(client, cfg.UpdateInterval)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		client.Close()
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, "poolstat-tui - pool dashboard")
	for _, kv := range [][2]string{
		{"Version", version},
		{"Commit", commit},
		{"Built", buildTime},
		{"Go version", goVersion},
	} {
		fmt.Fprintf(w, "  %-11s %s\n", kv[0]+":", kv[1])
	}
}

type reporter interface {
	Report(ctx context.Context) (*model.MetricsReport, error)
}

func dumpReport(w io.Writer, r reporter) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	report, err := r.Report(ctx)
	if err != nil {
		return fmt.Errorf("fetch report: %w", err)
	}
	out, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

func runDashboard(client *socketrpc.Client, interval time.Duration) error {
	app := tui.NewApp(
		tui.NewDashboardPage(client, interval, "socket"),
		tui.NewDiagnosticsPage(client),
	)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("the dashboard requires a real terminal; use -json for scripted output")
		}
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
