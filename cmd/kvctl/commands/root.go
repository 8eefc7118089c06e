// Package commands implements the kvctl CLI commands.
package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryanfowler/gokv/cmd/kvctl/cmdutil"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "kvctl",
	Short: "kvctl - command-line client for a Couchbase KV cluster",
	Long: `kvctl is a command-line client built on gokv's key-value protocol core.

Use it to connect to a cluster, inspect its configuration, and run document
operations (get, upsert, remove, touch) against a bucket/scope/collection.

Use "kvctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ConfigPath, _ = cmd.Flags().GetString("config")
		seeds, _ := cmd.Flags().GetString("seeds")
		if seeds != "" {
			cmdutil.Flags.Seeds = strings.Split(seeds, ",")
		}
		cmdutil.Flags.Username, _ = cmd.Flags().GetString("username")
		cmdutil.Flags.Password, _ = cmd.Flags().GetString("password")
		cmdutil.Flags.Bucket, _ = cmd.Flags().GetString("bucket")
		cmdutil.Flags.Scope, _ = cmd.Flags().GetString("scope")
		cmdutil.Flags.Collection, _ = cmd.Flags().GetString("collection")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	cmdutil.Version = Version
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/gokv/config.yaml)")
	rootCmd.PersistentFlags().String("seeds", "", "Comma-separated cluster seed addresses (overrides config)")
	rootCmd.PersistentFlags().String("username", "", "Cluster username (overrides config)")
	rootCmd.PersistentFlags().String("password", "", "Cluster password (overrides config)")
	rootCmd.PersistentFlags().String("bucket", "", "Bucket name (overrides config)")
	rootCmd.PersistentFlags().String("scope", "", "Scope name (default: _default)")
	rootCmd.PersistentFlags().String("collection", "", "Collection name (default: _default)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(upsertCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
