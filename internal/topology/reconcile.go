package topology

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ryanfowler/gokv/internal/logger"
)

// nodeKey is the stable node identity used to diff configurations
// (§4.2: "diff the node sets by (hostname, kv_port)").
func nodeKey(n Node) string {
	return fmt.Sprintf("%s:%d", n.Hostname, n.KVPort)
}

// ReconcileResult is the outcome of diffing a configuration against the
// tracker's current session set.
type ReconcileResult struct {
	// Sessions is the full session set after reconciliation: preserved
	// sessions plus newly bootstrapped ones, keyed by nodeKey.
	Sessions map[string]Session

	// Removed holds sessions for nodes no longer present in the new
	// configuration; the caller stops these outside any lock.
	Removed []Session
}

// Reconcile diffs cfg's node list against current, dialing added nodes
// via factory and leaving removed nodes for the caller to stop (§4.2:
// "Preserved nodes keep their session unchanged. Removed nodes: the
// tracker asynchronously stops those sessions outside any held lock.
// Added nodes trigger a new bootstrap. Their sessions are registered
// only after bootstrap succeeds"). Bootstraps for added nodes run
// concurrently.
func Reconcile(ctx context.Context, current map[string]Session, cfg *Config, network string, tls bool, factory Factory, pending map[string]bool) (ReconcileResult, error) {
	wanted := make(map[string]Node, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		if n.KVPort == 0 && n.KVSSLPort == 0 {
			continue // not a KV-serving node
		}
		wanted[nodeKey(n)] = n
	}

	result := ReconcileResult{Sessions: make(map[string]Session, len(wanted))}

	var toAdd []Node
	for key, node := range wanted {
		if sess, ok := current[key]; ok {
			result.Sessions[key] = sess
			continue
		}
		if pending[key] {
			// A Bootstrap call is already dialing this node; its result
			// will be registered directly once that call returns.
			// Treating it as "to add" here would recursively redial it
			// from inside its own bootstrap's config-fetch callback.
			continue
		}
		toAdd = append(toAdd, node)
	}
	for key, sess := range current {
		if _, ok := wanted[key]; !ok {
			result.Removed = append(result.Removed, sess)
		}
	}

	if len(toAdd) == 0 {
		return result, nil
	}

	type bootstrapped struct {
		key  string
		sess Session
	}
	out := make([]bootstrapped, len(toAdd))

	g, gctx := errgroup.WithContext(ctx)
	for i, node := range toAdd {
		i, node := i, node
		g.Go(func() error {
			addr, err := node.Addr(network, tls)
			if err != nil {
				logger.Warn("topology: skipping node with no usable address", "node", node.Hostname, "error", err)
				return nil
			}
			sess, err := factory(gctx, addr, node)
			if err != nil {
				logger.Warn("topology: bootstrap failed for added node", "addr", addr, "error", err)
				return nil // a failed bootstrap does not fail reconciliation as a whole
			}
			out[i] = bootstrapped{key: nodeKey(node), sess: sess}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for _, b := range out {
		if b.sess != nil {
			result.Sessions[b.key] = b.sess
		}
	}
	return result, nil
}
