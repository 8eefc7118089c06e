package command

import "github.com/ryanfowler/gokv/internal/collections"

// DocumentID is the fully-qualified address of one document: bucket is
// carried for bucket-scoped sessions/telemetry, scope/collection select
// the collection-ID cache entry, key is the raw document key
// (supplemental feature #4: promoted from an implicit tuple in the Data
// Model into an explicit comparable struct).
type DocumentID struct {
	Bucket     string
	Scope      string
	Collection string
	Key        string
}

// CollectionPath returns the cache key used by internal/collections.
func (d DocumentID) CollectionPath() string {
	scope, coll := d.Scope, d.Collection
	if scope == "" {
		scope = collections.DefaultScope
	}
	if coll == "" {
		coll = collections.DefaultCollection
	}
	return collections.Path(scope, coll)
}

// IsDefaultCollection reports whether d targets the implicit default
// collection, which never needs resolution even on collection-unaware
// documents.
func (d DocumentID) IsDefaultCollection() bool {
	return collections.IsDefault(d.Scope, d.Collection)
}
