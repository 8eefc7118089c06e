package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryanfowler/gokv/cmd/kvctl/cmdutil"
	"github.com/ryanfowler/gokv/internal/cli/prompt"
	"github.com/ryanfowler/gokv/pkg/kv"
)

var (
	removeTimeout time.Duration
	removeCAS     uint64
	removeForce   bool
)

var removeCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	removeCmd.Flags().DurationVar(&removeTimeout, "timeout", 2500*time.Millisecond, "Operation timeout")
	removeCmd.Flags().Uint64Var(&removeCAS, "cas", 0, "Require this CAS to match (0 skips the check)")
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Skip the confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	key := args[0]

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete document %q?", key), removeForce)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout+time.Second)
	defer cancel()

	bucket, coll, err := cmdutil.OpenCollection(ctx)
	if err != nil {
		return err
	}
	defer bucket.Close()

	if _, err := coll.Remove(ctx, key, kv.RemoveOptions{Timeout: removeTimeout, CAS: removeCAS}); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Document %q deleted", key))
	return nil
}
