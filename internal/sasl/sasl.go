// Package sasl implements the SASL mechanisms the core negotiates during
// bootstrap (§4.3.1 SASL_LIST_MECHS/SASL_AUTH/SASL_STEP): PLAIN and the
// SCRAM-SHA1/256/512 family. No library in the retrieval pack offers a
// SASL or SCRAM client, so this package hand-rolls the exchange directly
// against golang.org/x/crypto/pbkdf2 and the standard crypto/hmac and
// crypto/sha1/sha256/sha512 packages (see DESIGN.md's "SASL hand-roll
// justification").
package sasl

import "fmt"

// Mechanism drives one SASL exchange. Start produces the client-first
// message; Step consumes each server challenge and produces the next
// client message until done is true.
type Mechanism interface {
	// Name is the mechanism name as sent in SASL_LIST_MECHS/SASL_AUTH,
	// e.g. "PLAIN" or "SCRAM-SHA512".
	Name() string

	// Start returns the initial client message.
	Start() ([]byte, error)

	// Step consumes a server challenge (the payload of an auth_continue
	// response) and returns the next client message. done is true once
	// the mechanism has nothing further to send; the caller still owes
	// the server's final response a verification pass via Step for
	// mechanisms that authenticate the server (SCRAM).
	Step(challenge []byte) (response []byte, done bool, err error)
}

// DefaultMechanisms returns the mechanism preference order a bootstrap
// should offer when the caller supplied none explicitly (§4.3.1 step 3):
// PLAIN alone over TLS, or the SCRAM family strongest-first otherwise.
func DefaultMechanisms(username, password string, tlsEnabled bool) []Mechanism {
	if tlsEnabled {
		return []Mechanism{NewPlain(username, password)}
	}
	return []Mechanism{
		NewSCRAM(SHA512, username, password),
		NewSCRAM(SHA256, username, password),
		NewSCRAM(SHA1, username, password),
	}
}

// ErrMechanismExhausted is returned when Step is called after the
// exchange has already completed.
type ErrMechanismExhausted struct{ Mechanism string }

func (e *ErrMechanismExhausted) Error() string {
	return fmt.Sprintf("sasl: %s exchange already completed", e.Mechanism)
}
