package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ryanfowler/gokv/cmd/kvctl/cmdutil"
	"github.com/ryanfowler/gokv/internal/cli/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved kvctl configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration (file + env + defaults, flag overrides applied)",
	Long: `Display the configuration kvctl would connect with, after merging the
config file, GOKV_* environment variables, defaults, and any --seeds/
--username/--bucket flag overrides. Passwords are redacted.

Examples:
  kvctl config show
  kvctl config show -o json`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	redacted := *cfg
	if redacted.Cluster.Password != "" {
		redacted.Cluster.Password = "********"
	}

	format, err := cmdutil.GetOutputFormat()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, redacted)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, redacted)
	default:
		return output.SimpleTable(os.Stdout, [][2]string{
			{"seeds", fmt.Sprint(redacted.Cluster.Seeds)},
			{"username", redacted.Cluster.Username},
			{"bucket", redacted.Bucket.Name},
			{"durability_floor", redacted.Bucket.DurabilityFloor},
			{"tls_enabled", cmdutil.BoolToYesNo(redacted.Cluster.TLS.Enabled)},
			{"bootstrap_timeout", redacted.Cluster.BootstrapTimeout.String()},
			{"poll_interval", redacted.Cluster.PollInterval.String()},
			{"backoff_initial", redacted.Retry.BackoffInitial.String()},
			{"backoff_max", redacted.Retry.BackoffMax.String()},
			{"jitter_fraction", fmt.Sprintf("%.2f", redacted.Retry.JitterFraction)},
			{"metrics_enabled", cmdutil.BoolToYesNo(redacted.Metrics.Enabled)},
		})
	}
}
