package sasl

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ShaVariant selects the hash function underlying a SCRAM mechanism.
type ShaVariant int

const (
	SHA1 ShaVariant = iota
	SHA256
	SHA512
)

func (v ShaVariant) name() string {
	switch v {
	case SHA1:
		return "SCRAM-SHA1"
	case SHA256:
		return "SCRAM-SHA256"
	case SHA512:
		return "SCRAM-SHA512"
	default:
		return "SCRAM-UNKNOWN"
	}
}

func (v ShaVariant) newHash() func() hash.Hash {
	switch v {
	case SHA1:
		return sha1.New
	case SHA256:
		return sha256.New
	case SHA512:
		return sha512.New
	default:
		return sha256.New
	}
}

type scramStage int

const (
	stageStart scramStage = iota
	stageClientFirstSent
	stageClientFinalSent
	stageDone
)

// SCRAM implements the client side of a SCRAM-SHA{1,256,512} exchange
// (RFC 5802), without channel binding (gs2-header "n,,").
type SCRAM struct {
	variant  ShaVariant
	username string
	password string
	newHash  func() hash.Hash

	clientNonce string
	stage       scramStage

	clientFirstBare string
	serverFirst     string
	saltedPassword  []byte
	authMessage     string
}

// NewSCRAM constructs a SCRAM mechanism for the given hash variant.
func NewSCRAM(variant ShaVariant, username, password string) *SCRAM {
	return &SCRAM{
		variant:     variant,
		username:    username,
		password:    password,
		newHash:     variant.newHash(),
		clientNonce: randomNonce(),
	}
}

func (s *SCRAM) Name() string { return s.variant.name() }

func (s *SCRAM) Start() ([]byte, error) {
	s.clientFirstBare = "n=" + escapeSaslName(s.username) + ",r=" + s.clientNonce
	s.stage = stageClientFirstSent
	return []byte("n,," + s.clientFirstBare), nil
}

// Step drives the remaining two legs: the server-first challenge
// produces the client-final message, and the server-final challenge is
// verified against the locally computed server signature.
func (s *SCRAM) Step(challenge []byte) ([]byte, bool, error) {
	switch s.stage {
	case stageClientFirstSent:
		return s.handleServerFirst(challenge)
	case stageClientFinalSent:
		return nil, true, s.handleServerFinal(challenge)
	default:
		return nil, true, &ErrMechanismExhausted{Mechanism: s.Name()}
	}
}

func (s *SCRAM) handleServerFirst(challenge []byte) ([]byte, bool, error) {
	s.serverFirst = string(challenge)
	fields, err := parseScramFields(s.serverFirst)
	if err != nil {
		return nil, true, fmt.Errorf("sasl: %s: malformed server-first message: %w", s.Name(), err)
	}

	serverNonce, ok := fields["r"]
	if !ok || !strings.HasPrefix(serverNonce, s.clientNonce) {
		return nil, true, fmt.Errorf("sasl: %s: server nonce does not extend client nonce", s.Name())
	}
	saltB64, ok := fields["s"]
	if !ok {
		return nil, true, fmt.Errorf("sasl: %s: server-first message missing salt", s.Name())
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, true, fmt.Errorf("sasl: %s: malformed salt: %w", s.Name(), err)
	}
	iterStr, ok := fields["i"]
	if !ok {
		return nil, true, fmt.Errorf("sasl: %s: server-first message missing iteration count", s.Name())
	}
	iterations, err := strconv.Atoi(iterStr)
	if err != nil || iterations <= 0 {
		return nil, true, fmt.Errorf("sasl: %s: invalid iteration count %q", s.Name(), iterStr)
	}

	keyLen := s.newHash().Size()
	s.saltedPassword = pbkdf2.Key([]byte(s.password), salt, iterations, keyLen, s.newHash)

	clientFinalWithoutProof := "c=biws,r=" + serverNonce
	s.authMessage = s.clientFirstBare + "," + s.serverFirst + "," + clientFinalWithoutProof

	clientKey := s.hmac(s.saltedPassword, []byte("Client Key"))
	storedKey := s.hash(clientKey)
	clientSignature := s.hmac(storedKey, []byte(s.authMessage))
	clientProof := xorBytes(clientKey, clientSignature)

	clientFinal := clientFinalWithoutProof + ",p=" + base64.StdEncoding.EncodeToString(clientProof)
	s.stage = stageClientFinalSent
	return []byte(clientFinal), false, nil
}

func (s *SCRAM) handleServerFinal(challenge []byte) error {
	s.stage = stageDone
	fields, err := parseScramFields(string(challenge))
	if err != nil {
		return fmt.Errorf("sasl: %s: malformed server-final message: %w", s.Name(), err)
	}
	if errMsg, ok := fields["e"]; ok {
		return fmt.Errorf("sasl: %s: server rejected authentication: %s", s.Name(), errMsg)
	}
	sigB64, ok := fields["v"]
	if !ok {
		return fmt.Errorf("sasl: %s: server-final message missing signature", s.Name())
	}
	gotSig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("sasl: %s: malformed server signature: %w", s.Name(), err)
	}

	serverKey := s.hmac(s.saltedPassword, []byte("Server Key"))
	wantSig := s.hmac(serverKey, []byte(s.authMessage))
	if !hmac.Equal(gotSig, wantSig) {
		return fmt.Errorf("sasl: %s: server signature mismatch, possible MITM", s.Name())
	}
	return nil
}

func (s *SCRAM) hmac(key, data []byte) []byte {
	mac := hmac.New(s.newHash, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func (s *SCRAM) hash(data []byte) []byte {
	h := s.newHash()
	h.Write(data)
	return h.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// parseScramFields splits a comma-separated key=value SCRAM message. Go
// values may themselves contain "=" (base64 payloads do); only the first
// "=" in each field separates key from value.
func parseScramFields(msg string) (map[string]string, error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(msg, ",") {
		idx := strings.IndexByte(part, '=')
		if idx < 0 {
			return nil, fmt.Errorf("field %q missing '='", part)
		}
		fields[part[:idx]] = part[idx+1:]
	}
	return fields, nil
}

// escapeSaslName escapes "=" and "," in a SASL name per RFC 5802 §5.1.
func escapeSaslName(name string) string {
	name = strings.ReplaceAll(name, "=", "=3D")
	name = strings.ReplaceAll(name, ",", "=2C")
	return name
}

func randomNonce() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// broken, in which case nothing downstream can proceed safely.
		panic(fmt.Sprintf("sasl: crypto/rand unavailable: %v", err))
	}
	return base64.RawStdEncoding.EncodeToString(buf)
}
