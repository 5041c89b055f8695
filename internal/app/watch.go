package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/rewind/internal/metrics"
	"github.com/blackwell-systems/rewind/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool
	watchMetricsAddr string

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Ingest usage events as they are recorded",
		Long: `Keep the database in step with ~/.rewind/usage.log.

rewind-hook only appends to the usage log. The watcher moves new lines into
the database as soon as the log changes, and at least every watch.interval
(30s by default). 'rewind today' also ingests pending lines on its own, so
the watcher is optional; it keeps the log short and the status current.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as background process
  • Stop: Stop a running daemon

Under systemd (Type=notify) the daemon reports readiness and shutdown, and
answers the watchdog when WatchdogSec is set. With --metrics-addr it serves
Prometheus metrics on /metrics.`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  rewind watch

  # Run as background daemon
  rewind watch --daemon

  # Stop running daemon
  rewind watch --stop

  # Expose metrics
  rewind watch --metrics-addr 127.0.0.1:9469`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.rewind/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.rewind/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default: watch.metrics_addr)")

	watchCmd.Flags().MarkHidden("daemon-child") //nolint:errcheck
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	pidFile := watchPIDFile
	if pidFile == "" {
		pidFile = e.cfg.PIDPath()
	}
	logFile := watchLogFile
	if logFile == "" {
		logFile = e.cfg.WatchLogPath()
	}

	if watchStop {
		return stopWatchDaemon(cmd, pidFile)
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	interval, err := e.cfg.WatchInterval()
	if err != nil {
		return err
	}

	w, err := watcher.New(st, watcher.Options{
		Paths:    e.usagePaths(),
		Aliases:  e.aliases(),
		Interval: interval,
		Logger:   e.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	metricsAddr := watchMetricsAddr
	if metricsAddr == "" {
		metricsAddr = e.cfg.Watch.MetricsAddr
	}

	if watchDaemon {
		return startWatchDaemon(cmd, w, pidFile, logFile, metricsAddr)
	}

	if metricsAddr != "" {
		srv := metrics.NewServer(metricsAddr, e.logger)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer srv.Stop() //nolint:errcheck
	}

	if watchDaemonChild {
		// stdout and stderr already go to the log file.
		return w.RunDaemon(pidFile)
	}

	return runWatchForeground(cmd, w)
}

func stopWatchDaemon(cmd *cobra.Command, pidFile string) error {
	out := cmd.OutOrStdout()

	running, err := watcher.IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	if err := watcher.StopDaemon(pidFile); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	fmt.Fprintln(out, "✓ Daemon stopped")
	return nil
}

func startWatchDaemon(cmd *cobra.Command, w *watcher.Watcher, pidFile, logFile, metricsAddr string) error {
	out := cmd.OutOrStdout()

	// The child re-reads configuration, so pass through what the flags changed.
	var extra []string
	if configPath != "" {
		extra = append(extra, "--config", configPath)
	}
	if dbPath != "" {
		extra = append(extra, "--db", dbPath)
	}
	if logLevel != "" {
		extra = append(extra, "--log-level", logLevel)
	}
	if metricsAddr != "" {
		extra = append(extra, "--metrics-addr", metricsAddr)
	}
	extra = append(extra, "--pid-file", pidFile)

	if err := w.StartDaemon(pidFile, logFile, extra...); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Fprintln(out, "✓ Daemon started")
	fmt.Fprintf(out, "  PID file: %s\n", pidFile)
	fmt.Fprintf(out, "  Log file: %s\n", logFile)
	fmt.Fprintln(out, "\nTo stop: rewind watch --stop")
	return nil
}

func runWatchForeground(cmd *cobra.Command, w *watcher.Watcher) error {
	out := cmd.OutOrStdout()

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintln(out, "Watching usage log (press Ctrl+C to stop)...")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		fmt.Fprintf(out, "\nReceived %v, shutting down...\n", sig)
	case <-commandContext(cmd).Done():
	}

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	fmt.Fprintln(out, "✓ Watcher stopped")
	return nil
}
