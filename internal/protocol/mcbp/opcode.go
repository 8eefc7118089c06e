package mcbp

// Opcode identifies the operation a frame carries.
type Opcode byte

// Opcodes the core must implement (§6.1). Values match the server's
// published binary protocol opcode table.
const (
	OpGet        Opcode = 0x00
	OpUpsert     Opcode = 0x01 // "Set" on the wire
	OpAdd        Opcode = 0x02 // Insert
	OpReplace    Opcode = 0x03
	OpRemove     Opcode = 0x04 // "Delete" on the wire
	OpIncrement  Opcode = 0x05
	OpDecrement  Opcode = 0x06
	OpNoop       Opcode = 0x0a
	OpAppend     Opcode = 0x0e
	OpPrepend    Opcode = 0x0f

	OpTouch       Opcode = 0x1c
	OpGetAndTouch Opcode = 0x1d

	OpHello Opcode = 0x1f

	OpSASLListMechs Opcode = 0x20
	OpSASLAuth      Opcode = 0x21
	OpSASLStep      Opcode = 0x22

	OpGetAndLock Opcode = 0x94
	OpUnlock     Opcode = 0x95

	OpGetReplica Opcode = 0x83

	OpObserveSeqno Opcode = 0x91

	OpGetMeta Opcode = 0xa0

	OpSelectBucket Opcode = 0x89

	OpSubdocMultiLookup  Opcode = 0xd0
	OpSubdocMultiMutate  Opcode = 0xd1

	OpGetErrorMap Opcode = 0xfe

	OpGetClusterConfig Opcode = 0xb5
	OpGetCollectionID  Opcode = 0xbb

	// Server-initiated opcode, carried with MagicServerRequest/Response.
	OpClusterMapChangeNotification Opcode = 0x01
)

var opcodeNames = map[Opcode]string{
	OpGet:                           "GET",
	OpUpsert:                        "SET",
	OpAdd:                           "ADD",
	OpReplace:                       "REPLACE",
	OpRemove:                        "DELETE",
	OpIncrement:                     "INCREMENT",
	OpDecrement:                     "DECREMENT",
	OpNoop:                          "NOOP",
	OpAppend:                        "APPEND",
	OpPrepend:                       "PREPEND",
	OpTouch:                         "TOUCH",
	OpGetAndTouch:                   "GAT",
	OpHello:                         "HELLO",
	OpSASLListMechs:                 "SASL_LIST_MECHS",
	OpSASLAuth:                      "SASL_AUTH",
	OpSASLStep:                      "SASL_STEP",
	OpGetAndLock:                    "GET_LOCKED",
	OpUnlock:                        "UNLOCK_KEY",
	OpGetReplica:                    "GET_REPLICA",
	OpObserveSeqno:                  "OBSERVE_SEQNO",
	OpGetMeta:                       "GET_META",
	OpSelectBucket:                  "SELECT_BUCKET",
	OpSubdocMultiLookup:             "SUBDOC_MULTI_LOOKUP",
	OpSubdocMultiMutate:             "SUBDOC_MULTI_MUTATION",
	OpGetErrorMap:                   "GET_ERROR_MAP",
	OpGetClusterConfig:              "GET_CLUSTER_CONFIG",
	OpGetCollectionID:               "COLLECTIONS_GET_ID",
}

// String returns the opcode's canonical wire name, or a hex fallback for
// opcodes this core doesn't name (still decodable, just unrecognised).
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "OPCODE_0x" + hexByte(byte(o))
}

// IsIdempotent reports whether repeating the operation against the server
// has no additional effect beyond the first successful application — the
// property C4's retry decision table keys on for non-vbucket-routing
// reasons (§4.4, §7 propagation policy).
func (o Opcode) IsIdempotent() bool {
	switch o {
	case OpGet, OpGetAndTouch, OpGetReplica, OpGetMeta, OpObserveSeqno,
		OpTouch, OpUnlock, OpGetAndLock, OpNoop, OpHello,
		OpGetErrorMap, OpGetClusterConfig, OpGetCollectionID,
		OpSelectBucket, OpSASLListMechs, OpSASLAuth, OpSASLStep,
		OpSubdocMultiLookup:
		return true
	case OpUpsert, OpReplace, OpRemove:
		// Idempotent only when the caller supplied a CAS precondition;
		// callers that care pass that through at the command-runtime
		// layer (§4.6) rather than here, since Opcode alone can't see it.
		return false
	default:
		return false
	}
}

const hexDigits = "0123456789abcdef"

func hexByte(b byte) string {
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xf]})
}
