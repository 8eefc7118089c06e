package kv

import (
	"encoding/json"
	"time"

	"github.com/ryanfowler/gokv/internal/command"
)

// Result is the outcome of a document operation: a CAS and, for
// operations that return one, a value.
type Result struct {
	Cas              uint64
	value            []byte
	isJSON           bool
	ServerDuration   time.Duration
}

func newResult(r command.Result) *Result {
	return &Result{
		Cas:            r.CAS,
		value:          r.Value,
		isJSON:         r.Datatype.HasJSON(),
		ServerDuration: time.Duration(r.ServerDurationUs) * time.Microsecond,
	}
}

// Content unmarshals the result's value into v. It is an error to call
// this on a result that carries no value (e.g. from Touch or Unlock).
func (r *Result) Content(v interface{}) error {
	return json.Unmarshal(r.value, v)
}

// ContentBytes returns the raw (already-decompressed) document bytes.
func (r *Result) ContentBytes() []byte {
	return r.value
}
