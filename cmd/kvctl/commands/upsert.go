package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryanfowler/gokv/cmd/kvctl/cmdutil"
	"github.com/ryanfowler/gokv/pkg/kv"
)

var (
	upsertTimeout    time.Duration
	upsertDurability string
	upsertExpiry     time.Duration
	upsertCAS        uint64
)

var upsertCmd = &cobra.Command{
	Use:   "upsert <key> <value>",
	Short: "Create or replace a document",
	Long: `Create or replace a document. value is parsed as JSON when valid;
otherwise it's stored as a raw string.

Examples:
  kvctl upsert user:1 '{"name":"ana"}'
  kvctl upsert counter:1 42 --durability majority`,
	Args: cobra.ExactArgs(2),
	RunE: runUpsert,
}

func init() {
	upsertCmd.Flags().DurationVar(&upsertTimeout, "timeout", 2500*time.Millisecond, "Operation timeout")
	upsertCmd.Flags().StringVar(&upsertDurability, "durability", "", "Durability level (none|majority|majority_and_persist_active|persist_to_majority)")
	upsertCmd.Flags().DurationVar(&upsertExpiry, "expiry", 0, "Document expiry (e.g. 30s, 1h); 0 never expires")
	upsertCmd.Flags().Uint64Var(&upsertCAS, "cas", 0, "Require this CAS to match (0 skips the check)")
}

func runUpsert(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	var value any = raw
	if json.Valid([]byte(raw)) {
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			value = decoded
		}
	}

	durability, err := durabilityFromFlag(upsertDurability)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), upsertTimeout+time.Second)
	defer cancel()

	bucket, coll, err := cmdutil.OpenCollection(ctx)
	if err != nil {
		return err
	}
	defer bucket.Close()

	res, err := coll.Upsert(ctx, key, value, kv.UpsertOptions{
		Timeout:    upsertTimeout,
		Durability: durability,
		Expiry:     upsertExpiry,
		CAS:        upsertCAS,
	})
	if err != nil {
		return fmt.Errorf("upsert %q: %w", key, err)
	}

	view := documentView{Key: key, Cas: res.Cas}
	return cmdutil.PrintResource(os.Stdout, view, view)
}

func durabilityFromFlag(name string) (kv.DurabilityLevel, error) {
	switch name {
	case "":
		return kv.DurabilityNone, nil
	case "none":
		return kv.DurabilityNone, nil
	case "majority":
		return kv.DurabilityMajority, nil
	case "majority_and_persist_active":
		return kv.DurabilityMajorityAndPersistToActive, nil
	case "persist_to_majority":
		return kv.DurabilityPersistToMajority, nil
	default:
		return kv.DurabilityNone, fmt.Errorf("unknown durability level %q", name)
	}
}
