package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryanfowler/gokv/cmd/kvctl/cmdutil"
	"github.com/ryanfowler/gokv/pkg/kv"
)

var (
	touchTimeout time.Duration
	touchExpiry  time.Duration
)

var touchCmd = &cobra.Command{
	Use:   "touch <key>",
	Short: "Update a document's expiry without returning its value",
	Args:  cobra.ExactArgs(1),
	RunE:  runTouch,
}

func init() {
	touchCmd.Flags().DurationVar(&touchTimeout, "timeout", 2500*time.Millisecond, "Operation timeout")
	touchCmd.Flags().DurationVar(&touchExpiry, "expiry", 30*time.Second, "New expiry")
}

func runTouch(cmd *cobra.Command, args []string) error {
	key := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout+time.Second)
	defer cancel()

	bucket, coll, err := cmdutil.OpenCollection(ctx)
	if err != nil {
		return err
	}
	defer bucket.Close()

	res, err := coll.Touch(ctx, key, kv.TouchOptions{Timeout: touchTimeout, Expiry: touchExpiry})
	if err != nil {
		return fmt.Errorf("touch %q: %w", key, err)
	}

	view := documentView{Key: key, Cas: res.Cas}
	return cmdutil.PrintResource(os.Stdout, view, view)
}
