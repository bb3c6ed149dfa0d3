package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/powermon/internal/cli/tui"
)

var (
	watchURL        string
	refreshInterval time.Duration
	watchUser       string
	watchPassword   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard for a running monitor",
	Long: `Launch a terminal dashboard that polls the status endpoint of a powermon
run started with --listen (or server.enabled).

Examples:
  powermon watch
  powermon watch --url http://10.0.0.5:9464 --refresh 500ms`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "http://127.0.0.1:9464", "status server URL")
	watchCmd.Flags().DurationVar(&refreshInterval, "refresh", time.Second, "dashboard refresh interval")
	watchCmd.Flags().StringVar(&watchUser, "user", "", "auth username")
	watchCmd.Flags().StringVar(&watchPassword, "password", "", "auth password")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	return tui.Run(tui.Config{
		ServerURL:       watchURL,
		RefreshInterval: refreshInterval,
		User:            watchUser,
		Password:        watchPassword,
	})
}
