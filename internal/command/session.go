package command

import (
	"context"

	"github.com/ryanfowler/gokv/internal/collections"
	"github.com/ryanfowler/gokv/internal/kvsession"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// Handler is a type alias (not a new named type) for kvsession.Handler,
// so a *kvsession.Session's Send method — whose parameter is literally
// kvsession.Handler — satisfies the Session interface below exactly.
type Handler = kvsession.Handler

// Session is everything the command runtime needs from a bootstrapped KV
// session. dispatch.Dispatcher hands back a topology.Session; Runner
// type-asserts it to Session to get the send/collection/telemetry
// surface topology deliberately does not expose (keeping topology free
// of a kvsession import, §5).
type Session interface {
	Addr() string
	Send(pkt *mcbp.Packet, handler Handler) (uint32, error)
	CancelOutstanding(opaque uint32) bool
	Collections() *collections.Cache
	Features() mcbp.FeatureSet
	ErrorMap() *mcbp.ErrorMap
	StartSpan(ctx context.Context, opcode mcbp.Opcode) (context.Context, func())
}
