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

var getTimeout time.Duration

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Fetch a document by key",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().DurationVar(&getTimeout, "timeout", 2500*time.Millisecond, "Operation timeout")
}

// documentView is the shape every data-operation command renders, in
// whichever format -o asks for.
type documentView struct {
	Key   string          `json:"key" yaml:"key"`
	Cas   uint64          `json:"cas" yaml:"cas"`
	Value json.RawMessage `json:"value,omitempty" yaml:"value,omitempty"`
}

func (d documentView) Headers() []string { return []string{"KEY", "CAS", "VALUE"} }

func (d documentView) Rows() [][]string {
	value := string(d.Value)
	if value == "" {
		value = "-"
	}
	return [][]string{{d.Key, fmt.Sprintf("%d", d.Cas), value}}
}

func runGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), getTimeout+time.Second)
	defer cancel()

	bucket, coll, err := cmdutil.OpenCollection(ctx)
	if err != nil {
		return err
	}
	defer bucket.Close()

	res, err := coll.Get(ctx, key, kv.GetOptions{Timeout: getTimeout})
	if err != nil {
		return fmt.Errorf("get %q: %w", key, err)
	}

	view := documentView{Key: key, Cas: res.Cas}
	if raw := res.ContentBytes(); json.Valid(raw) {
		view.Value = raw
	} else if len(raw) > 0 {
		view.Value, _ = json.Marshal(string(raw))
	}

	return cmdutil.PrintResource(os.Stdout, view, view)
}
