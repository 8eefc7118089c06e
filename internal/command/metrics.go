package command

import (
	"time"

	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// MetricsRecorder observes the outcome of one complete operation,
// including every retry attempt (§6.5/§4.6 step 5: latency recorded
// under db.couchbase.service=kv, db.operation=<opcode>). err is the final
// error returned to the caller, nil on success.
type MetricsRecorder interface {
	RecordOperation(opcode mcbp.Opcode, duration time.Duration, err error)
}
