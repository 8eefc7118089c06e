package mcbp

import (
	"encoding/json"
	"fmt"
)

// ErrorMapAttribute is one entry from the closed attribute set (§7).
type ErrorMapAttribute string

const (
	AttrSuccess                ErrorMapAttribute = "success"
	AttrItemOnly               ErrorMapAttribute = "item-only"
	AttrInvalidInput           ErrorMapAttribute = "invalid-input"
	AttrFetchConfig            ErrorMapAttribute = "fetch-config"
	AttrConnStateInvalidated   ErrorMapAttribute = "conn-state-invalidated"
	AttrAuth                   ErrorMapAttribute = "auth"
	AttrSpecialHandling        ErrorMapAttribute = "special-handling"
	AttrSupport                ErrorMapAttribute = "support"
	AttrTemp                   ErrorMapAttribute = "temp"
	AttrInternal               ErrorMapAttribute = "internal"
	AttrRetryNow               ErrorMapAttribute = "retry-now"
	AttrRetryLater             ErrorMapAttribute = "retry-later"
	AttrSubdoc                 ErrorMapAttribute = "subdoc"
	AttrDCP                    ErrorMapAttribute = "dcp"
	AttrAutoRetry              ErrorMapAttribute = "auto-retry"
	AttrItemLocked             ErrorMapAttribute = "item-locked"
	AttrItemDeleted            ErrorMapAttribute = "item-deleted"
	AttrRateLimit              ErrorMapAttribute = "rate-limit"
)

// knownAttributes is the closed set (§7); anything else is an unknown
// attribute, kept in the entry without special handling rather than
// rejected (§6.3). No warning is logged for it here.
var knownAttributes = map[ErrorMapAttribute]bool{
	AttrSuccess: true, AttrItemOnly: true, AttrInvalidInput: true,
	AttrFetchConfig: true, AttrConnStateInvalidated: true, AttrAuth: true,
	AttrSpecialHandling: true, AttrSupport: true, AttrTemp: true,
	AttrInternal: true, AttrRetryNow: true, AttrRetryLater: true,
	AttrSubdoc: true, AttrDCP: true, AttrAutoRetry: true,
	AttrItemLocked: true, AttrItemDeleted: true, AttrRateLimit: true,
}

// ErrorMapEntry is one status-code entry in the error map document.
type ErrorMapEntry struct {
	Name        string
	Description string
	Attributes  map[ErrorMapAttribute]bool
	RetrySpec   *ErrorMapRetrySpec
}

// ErrorMapRetrySpec is the optional per-entry retry delay schedule the
// server may publish alongside retry-now/retry-later.
type ErrorMapRetrySpec struct {
	Strategy    string // "constant", "linear", "exponential"
	IntervalMs  int
	AfterMs     int
	CeilingMs   int
	MaxDuration int
}

// HasAttribute reports whether e carries attr.
func (e ErrorMapEntry) HasAttribute(attr ErrorMapAttribute) bool {
	return e.Attributes[attr]
}

// ErrorMap is the parsed error-map document, keyed by numeric status code.
type ErrorMap struct {
	Version  int
	Revision int
	Entries  map[Status]ErrorMapEntry
}

// Lookup returns the entry for status, if the map has one.
func (m *ErrorMap) Lookup(status Status) (ErrorMapEntry, bool) {
	if m == nil {
		return ErrorMapEntry{}, false
	}
	e, ok := m.Entries[status]
	return e, ok
}

// wireErrorMap mirrors the JSON document shape (§6.2/§6.3): a top-level
// version/revision plus a map of hex-string status code to entry. Unknown
// top-level fields are ignored automatically by encoding/json.
type wireErrorMap struct {
	Version  int                      `json:"version"`
	Revision int                      `json:"revision"`
	Errors   map[string]wireErrorSpec `json:"errors"`
}

type wireErrorSpec struct {
	Name  string   `json:"name"`
	Desc  string   `json:"desc"`
	Attrs []string `json:"attrs"`
	Retry *struct {
		Strategy    string `json:"strategy"`
		Interval    int    `json:"interval"`
		After       int    `json:"after"`
		Ceil        int    `json:"ceil"`
		MaxDuration int    `json:"max-duration"`
	} `json:"retry"`
}

// ParseErrorMap parses an error-map JSON document (§6.3). Only version 2
// is documented by the server interface this core targets; other
// versions are still parsed best-effort since the shape is additive.
func ParseErrorMap(data []byte) (*ErrorMap, error) {
	var wire wireErrorMap
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("mcbp: parse error map: %w", err)
	}

	m := &ErrorMap{
		Version:  wire.Version,
		Revision: wire.Revision,
		Entries:  make(map[Status]ErrorMapEntry, len(wire.Errors)),
	}

	for codeHex, spec := range wire.Errors {
		var code uint16
		if _, err := fmt.Sscanf(codeHex, "%x", &code); err != nil {
			continue // skip unparseable keys rather than failing the whole document
		}

		attrs := make(map[ErrorMapAttribute]bool, len(spec.Attrs))
		for _, a := range spec.Attrs {
			attrs[ErrorMapAttribute(a)] = true
			// Unknown attributes are kept in the map (so HasAttribute
			// still answers honestly for them) but are not otherwise
			// special-cased; knownAttributes exists for validation/
			// logging call sites, not to filter entries here.
		}

		entry := ErrorMapEntry{Name: spec.Name, Description: spec.Desc, Attributes: attrs}
		if spec.Retry != nil {
			entry.RetrySpec = &ErrorMapRetrySpec{
				Strategy:    spec.Retry.Strategy,
				IntervalMs:  spec.Retry.Interval,
				AfterMs:     spec.Retry.After,
				CeilingMs:   spec.Retry.Ceil,
				MaxDuration: spec.Retry.MaxDuration,
			}
		}
		m.Entries[Status(code)] = entry
	}

	return m, nil
}

// IsKnownAttribute reports whether attr is in the closed §7 attribute
// set, for callers that want to warn on server-side additions.
func IsKnownAttribute(attr ErrorMapAttribute) bool {
	return knownAttributes[attr]
}
