package cli

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/powermon/internal/config"
)

var (
	// Global flags
	cfgFile string

	// Version info (set from main)
	Version = "0.1.0"
)

// rootCmd samples accelerator telemetry while tailing an evaluation log.
var rootCmd = &cobra.Command{
	Use:   "powermon [flags] <output_file> <eval_log_file>",
	Short: "Record accelerator power and evaluation progress",
	Long: `powermon samples accelerator power draw, memory and utilization once per
interval, follows an evaluation log for progress lines, and writes every
sample plus summary statistics to a JSON file. The file is saved when the
run is interrupted (SIGINT or SIGTERM) and, optionally, at checkpoints.

Examples:
  powermon results.json eval.log
  powermon --interval 500ms --listen 127.0.0.1:9464 results.json eval.log
  powermon -c powermon.yaml results.json eval.log`,
	Args: cobra.ExactArgs(2),
	RunE: runMonitor,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	addMonitorFlags(rootCmd)
}

func addMonitorFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("interval", 0, "sampling interval (overrides sampling.interval_ms)")
	cmd.Flags().String("listen", "", "serve status and metrics on host:port")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().Bool("from-start", false, "count log lines already present at startup")
}

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	Version = v
	rootCmd.Version = v
}

// loadConfig reads the config file if one was given and applies flag
// overrides. Only flags the user set take effect.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("interval") {
		interval, _ := flags.GetDuration("interval")
		cfg.Sampling.IntervalMS = int(interval / time.Millisecond)
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("from-start") {
		cfg.Tailer.FromStart, _ = flags.GetBool("from-start")
	}
	if flags.Changed("listen") {
		listen, _ := flags.GetString("listen")
		host, port, err := parseListen(listen)
		if err != nil {
			return nil, err
		}
		cfg.Server.Enabled = true
		cfg.Server.Host = host
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func parseListen(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid listen port %q", portStr)
	}

	if host == "" {
		host = "127.0.0.1"
	}
	return host, port, nil
}
