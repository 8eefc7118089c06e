// Package topology implements the cluster-wide configuration tracker
// (C6): the cluster configuration data model, JSON parsing of the
// server's configuration document (§6.2), and reconciliation of the
// set of KV sessions against configuration changes (§4.2).
package topology

import (
	"encoding/json"
	"fmt"
)

// Node describes one cluster node's addressing for every service,
// plain and TLS, under both the default and external (alternate)
// network views (§6.2 nodesExt / alternateAddresses.external).
type Node struct {
	Hostname string

	KVPort    int
	KVSSLPort int

	ExternalHostname string
	ExternalKVPort   int
	ExternalKVSSLPort int

	// ThisNode is true when the server marked this entry as the node
	// the config was fetched from; if the server never marks one, the
	// tracker infers it from the bootstrap address (§3, Open Questions).
	ThisNode bool
}

// Addr returns the host:port a session should dial for this node under
// network (either "default" or "external") and tls.
func (n Node) Addr(network string, tls bool) (string, error) {
	host := n.Hostname
	port := n.KVPort
	if tls {
		port = n.KVSSLPort
	}
	if network == "external" {
		if n.ExternalHostname != "" {
			host = n.ExternalHostname
		}
		if tls {
			port = n.ExternalKVSSLPort
		} else {
			port = n.ExternalKVPort
		}
	}
	if port == 0 {
		return "", fmt.Errorf("topology: node %q has no kv port for network=%s tls=%v", host, network, tls)
	}
	return fmt.Sprintf("%s:%d", host, port), nil
}

// VbucketMap is a dense array indexed by vbucket id; each entry lists
// the node index of the master followed by replica node indices (§3).
// An index of -1 means "no owner currently assigned".
type VbucketMap [][]int

// Config is one immutable snapshot of cluster topology, ordered by
// (Epoch, Rev) (§3: "Monotonically ordered by (epoch, revision)").
type Config struct {
	Epoch int64
	Rev   int64

	// Force marks a configuration that must always supersede whatever
	// the tracker currently holds, bypassing the (epoch, rev) compare
	// (§4.2: "accepted when ... C.force").
	Force bool

	Nodes      []Node
	VbucketMap VbucketMap

	BucketCapabilities  []string
	ClusterCapabilities map[string][]string
}

// NewerThan reports whether c supersedes prev per §4.2's acceptance
// rule: prev absent, prev.Force, or prev's (epoch, rev) strictly less
// than c's.
func (c *Config) NewerThan(prev *Config) bool {
	if prev == nil {
		return true
	}
	if prev.Force {
		return true
	}
	if c.Epoch != prev.Epoch {
		return c.Epoch > prev.Epoch
	}
	return c.Rev > prev.Rev
}

// VbucketCount returns the number of vbuckets in the map.
func (c *Config) VbucketCount() int {
	return len(c.VbucketMap)
}

// Owner returns the node index owning vbucket vb at the given replica
// index (0 = master). ok is false if vb or replicaIdx is out of range or
// unassigned.
func (c *Config) Owner(vb, replicaIdx int) (nodeIdx int, ok bool) {
	if vb < 0 || vb >= len(c.VbucketMap) {
		return 0, false
	}
	row := c.VbucketMap[vb]
	if replicaIdx < 0 || replicaIdx >= len(row) {
		return 0, false
	}
	idx := row[replicaIdx]
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// wireConfig mirrors the subset of the server's configuration JSON the
// core reads (§6.2). Unknown fields are ignored by json.Unmarshal,
// satisfying the forward-compatibility requirement.
type wireConfig struct {
	Rev      int64 `json:"rev"`
	RevEpoch int64 `json:"revEpoch"`

	NodesExt []wireNodeExt `json:"nodesExt"`

	VBucketServerMap *wireVBucketMap `json:"vBucketServerMap"`

	BucketCapabilities  []string            `json:"bucketCapabilities"`
	ClusterCapabilities map[string][]string `json:"clusterCapabilities"`
}

type wireNodeExt struct {
	Hostname string `json:"hostname"`
	ThisNode bool   `json:"thisNode"`

	Services struct {
		KV    int `json:"kv"`
		KVSSL int `json:"kvSSL"`
	} `json:"services"`

	AlternateAddresses struct {
		External *wireExternalAddress `json:"external"`
	} `json:"alternateAddresses"`
}

type wireExternalAddress struct {
	Hostname string `json:"hostname"`
	Ports    struct {
		KV    int `json:"kv"`
		KVSSL int `json:"kvSSL"`
	} `json:"ports"`
}

type wireVBucketMap struct {
	ServerList []string `json:"serverList"`
	VBucketMap [][]int  `json:"vBucketMap"`
}

// ParseConfig parses one configuration document (§6.2). bootstrapHost,
// when non-empty, is used to infer ThisNode when the server did not mark
// any node (§3, Open Questions): every node whose Hostname matches is
// marked, regardless of TLS vs. plain port, per the documented decision
// in DESIGN.md.
func ParseConfig(data []byte, bootstrapHost string) (*Config, error) {
	var wc wireConfig
	if err := json.Unmarshal(data, &wc); err != nil {
		return nil, fmt.Errorf("topology: malformed configuration document: %w", err)
	}

	cfg := &Config{
		Epoch:               wc.RevEpoch,
		Rev:                 wc.Rev,
		BucketCapabilities:  wc.BucketCapabilities,
		ClusterCapabilities: wc.ClusterCapabilities,
	}

	anyMarked := false
	for _, wn := range wc.NodesExt {
		n := Node{
			Hostname:  wn.Hostname,
			KVPort:    wn.Services.KV,
			KVSSLPort: wn.Services.KVSSL,
			ThisNode:  wn.ThisNode,
		}
		if wn.AlternateAddresses.External != nil {
			n.ExternalHostname = wn.AlternateAddresses.External.Hostname
			n.ExternalKVPort = wn.AlternateAddresses.External.Ports.KV
			n.ExternalKVSSLPort = wn.AlternateAddresses.External.Ports.KVSSL
		}
		if n.ThisNode {
			anyMarked = true
		}
		cfg.Nodes = append(cfg.Nodes, n)
	}

	if !anyMarked && bootstrapHost != "" {
		for i := range cfg.Nodes {
			if cfg.Nodes[i].Hostname == bootstrapHost {
				cfg.Nodes[i].ThisNode = true
			}
		}
	}

	if wc.VBucketServerMap != nil {
		cfg.VbucketMap = wc.VBucketServerMap.VBucketMap
	}

	return cfg, nil
}
