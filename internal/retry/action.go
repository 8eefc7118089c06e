package retry

// Action is the orchestrator's verdict for a failed attempt (§4.4:
// "it answers one of: retry-same-node, retry-other-node, or
// do-not-retry").
type Action int

const (
	RetrySameNode Action = iota
	RetryOtherNode
	DoNotRetry
)

func (a Action) String() string {
	switch a {
	case RetrySameNode:
		return "retry_same_node"
	case RetryOtherNode:
		return "retry_other_node"
	case DoNotRetry:
		return "do_not_retry"
	default:
		return "unknown"
	}
}
