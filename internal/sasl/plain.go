package sasl

// Plain implements the SASL PLAIN mechanism (RFC 4616): a single message
// of the form authzid NUL authcid NUL password, sent only when the
// transport is already confidential (TLS).
type Plain struct {
	username string
	password string
	done     bool
}

// NewPlain constructs a PLAIN mechanism for username/password. authzid is
// left empty; the core never authenticates as a different identity than
// it authenticates with.
func NewPlain(username, password string) *Plain {
	return &Plain{username: username, password: password}
}

func (p *Plain) Name() string { return "PLAIN" }

func (p *Plain) Start() ([]byte, error) {
	msg := make([]byte, 0, len(p.username)+len(p.password)+2)
	msg = append(msg, 0)
	msg = append(msg, p.username...)
	msg = append(msg, 0)
	msg = append(msg, p.password...)
	p.done = true
	return msg, nil
}

// Step is never called for PLAIN under normal operation: the server
// either accepts the Start message outright or rejects it. It exists to
// satisfy Mechanism and reports the exchange as already finished.
func (p *Plain) Step(challenge []byte) ([]byte, bool, error) {
	return nil, true, &ErrMechanismExhausted{Mechanism: "PLAIN"}
}
