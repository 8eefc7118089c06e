// Package cmdutil provides shared utilities for kvctl commands: global
// flag state, output helpers, and the connection bootstrap every
// data-plane subcommand needs.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ryanfowler/gokv/internal/cli/output"
	"github.com/ryanfowler/gokv/internal/cli/prompt"
	"github.com/ryanfowler/gokv/pkg/config"
	"github.com/ryanfowler/gokv/pkg/kv"
	"github.com/ryanfowler/gokv/pkg/metrics/prometheus"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values set on the root command.
type GlobalFlags struct {
	ConfigPath string
	Seeds      []string
	Username   string
	Password   string
	Bucket     string
	Scope      string
	Collection string
	Output     string
	NoColor    bool
}

// LoadConfig loads configuration from Flags.ConfigPath (or the default
// location), then applies any connection flags given on the command line
// as overrides.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(Flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	if len(Flags.Seeds) > 0 {
		cfg.Cluster.Seeds = Flags.Seeds
	}
	if Flags.Username != "" {
		cfg.Cluster.Username = Flags.Username
	}
	if Flags.Password != "" {
		cfg.Cluster.Password = Flags.Password
	}
	if Flags.Bucket != "" {
		cfg.Bucket.Name = Flags.Bucket
	}

	return cfg, nil
}

// PromptForCredentials fills in username/password interactively when
// they're missing from config and flags, so kvctl never dials with an
// empty password.
func PromptForCredentials(cfg *config.Config) error {
	if cfg.Cluster.Username == "" {
		username, err := prompt.InputRequired("Username")
		if err != nil {
			return err
		}
		cfg.Cluster.Username = username
	}
	if cfg.Cluster.Password == "" {
		password, err := prompt.Password("Password")
		if err != nil {
			return err
		}
		cfg.Cluster.Password = password
	}
	return nil
}

// OpenCollection loads configuration, connects a Cluster, opens the
// configured bucket/scope/collection, and returns the bucket (so the
// caller can Close it) and the collection operations run against.
func OpenCollection(ctx context.Context) (*kv.Bucket, *kv.Collection, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	if err := PromptForCredentials(cfg); err != nil {
		return nil, nil, err
	}

	opts, err := cfg.ToClusterOptions()
	if err != nil {
		return nil, nil, err
	}
	opts.UserAgent = "kvctl/" + Version
	opts.Metrics = prometheus.NewKVMetrics()

	cluster, err := kv.Connect(cfg.Cluster.Seeds, opts)
	if err != nil {
		return nil, nil, err
	}

	bucket, err := cluster.Bucket(ctx, cfg.Bucket.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("opening bucket %q: %w", cfg.Bucket.Name, err)
	}

	scope := Flags.Scope
	if scope == "" {
		scope = "_default"
	}
	collection := Flags.Collection
	if collection == "" {
		collection = "_default"
	}

	return bucket, bucket.Scope(scope).Collection(collection), nil
}

// Version is the kvctl version string, used as part of the client's
// user agent. Set from commands.Version by commands.Execute.
var Version = "dev"

// GetOutputFormat returns the parsed output format from flags.
func GetOutputFormat() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// IsColorDisabled returns whether color output is disabled.
func IsColorDisabled() bool {
	return Flags.NoColor
}

// PrintResource prints data in the configured format: JSON/YAML directly,
// or via tableRenderer for table output.
func PrintResource(w io.Writer, data any, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormat()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(msg string) {
	format, err := GetOutputFormat()
	if err != nil || format != output.FormatTable {
		return
	}
	printer := output.NewPrinter(os.Stdout, format, !IsColorDisabled())
	printer.Success(msg)
}

// BoolToYesNo converts a boolean to "yes" or "no" for table display.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// HandleAbort returns nil for a user-aborted prompt (Ctrl+C), otherwise
// returns err unchanged.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}
