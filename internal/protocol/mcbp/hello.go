package mcbp

import "encoding/binary"

// Feature is one HELLO-negotiable capability bit (§3 "Hello features").
// On the wire each feature is a big-endian uint16 sent in the HELLO
// request body and echoed back (subset) in the response body.
type Feature uint16

const (
	FeatureTCPNoDelay                     Feature = 0x03
	FeatureMutationSeqno                  Feature = 0x04
	FeatureXATTR                          Feature = 0x06
	FeatureXERROR                         Feature = 0x07
	FeatureSelectBucket                   Feature = 0x08
	FeatureSnappy                         Feature = 0x0a
	FeatureJSON                           Feature = 0x0b
	FeatureDuplex                         Feature = 0x0c
	FeatureClustermapChangeNotification   Feature = 0x0d
	FeatureUnorderedExecution             Feature = 0x0e
	FeatureTracing                        Feature = 0x0f
	FeatureAltRequestSupport              Feature = 0x10
	FeatureSyncReplication                Feature = 0x11
	FeatureCollections                    Feature = 0x12
	FeaturePreserveTTL                    Feature = 0x14
	FeatureSubdocCreateAsDeleted          Feature = 0x17
	FeatureSubdocDocumentMacroSupport     Feature = 0x18
	FeatureSubdocReplaceBodyWithXattr     Feature = 0x19
	FeatureReportUnitUsage                Feature = 0x1a
	FeatureDeduplicateNotMyVbucketClustermap Feature = 0x1f
)

var featureNames = map[Feature]string{
	FeatureTCPNoDelay:                        "TCP_NODELAY",
	FeatureMutationSeqno:                     "MUTATION_SEQNO",
	FeatureXATTR:                             "XATTR",
	FeatureXERROR:                            "XERROR",
	FeatureSelectBucket:                      "SELECT_BUCKET",
	FeatureSnappy:                            "SNAPPY",
	FeatureJSON:                              "JSON",
	FeatureDuplex:                            "DUPLEX",
	FeatureClustermapChangeNotification:      "CLUSTERMAP_CHANGE_NOTIFICATION",
	FeatureUnorderedExecution:                "UNORDERED_EXECUTION",
	FeatureTracing:                           "TRACING",
	FeatureAltRequestSupport:                 "ALT_REQUEST_SUPPORT",
	FeatureSyncReplication:                   "SYNC_REPLICATION",
	FeatureCollections:                       "COLLECTIONS",
	FeaturePreserveTTL:                       "PRESERVE_TTL",
	FeatureSubdocCreateAsDeleted:             "SUBDOC_CREATE_AS_DELETED",
	FeatureSubdocDocumentMacroSupport:        "SUBDOC_DOCUMENT_MACRO_SUPPORT",
	FeatureSubdocReplaceBodyWithXattr:        "SUBDOC_REPLACE_BODY_WITH_XATTR",
	FeatureReportUnitUsage:                   "REPORT_UNIT_USAGE",
	FeatureDeduplicateNotMyVbucketClustermap: "DEDUPLICATE_NOT_MY_VBUCKET_CLUSTERMAP",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return "FEATURE_0x" + hexU16(uint16(f))
}

// FeatureSet is the negotiated (or requested) set of HELLO features,
// backed by a map so membership and iteration are both convenient; the
// sets involved are always small (a few dozen features at most).
type FeatureSet map[Feature]bool

// NewFeatureSet builds a FeatureSet from a list of features.
func NewFeatureSet(features ...Feature) FeatureSet {
	fs := make(FeatureSet, len(features))
	for _, f := range features {
		fs[f] = true
	}
	return fs
}

// Has reports whether f is in the set.
func (fs FeatureSet) Has(f Feature) bool { return fs[f] }

// EncodeHelloBody serializes the requested feature list as the HELLO
// request body (user-agent is carried separately, in the key).
func EncodeHelloBody(requested []Feature) []byte {
	buf := make([]byte, len(requested)*2)
	for i, f := range requested {
		binary.BigEndian.PutUint16(buf[i*2:], uint16(f))
	}
	return buf
}

// DecodeHelloBody parses the HELLO response body (the subset of requested
// features the server accepted) into a FeatureSet.
func DecodeHelloBody(body []byte) FeatureSet {
	fs := make(FeatureSet, len(body)/2)
	for i := 0; i+1 < len(body); i += 2 {
		fs[Feature(binary.BigEndian.Uint16(body[i:]))] = true
	}
	return fs
}

// MaxUserAgentLen is the HELLO key (user agent) length cap (§4.3.1: "≤ 250
// chars").
const MaxUserAgentLen = 250
