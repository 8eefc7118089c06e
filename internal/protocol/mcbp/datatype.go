package mcbp

// Datatype is the bitmask carried in byte 5 of the header describing how
// the value is encoded on the wire (§3 Data Model).
type Datatype uint8

const (
	DatatypeRaw    Datatype = 0x00
	DatatypeJSON   Datatype = 0x01
	DatatypeSnappy Datatype = 0x02
	DatatypeXattr  Datatype = 0x04
)

// HasSnappy reports whether the value is Snappy-compressed on the wire.
func (d Datatype) HasSnappy() bool { return d&DatatypeSnappy != 0 }

// HasJSON reports whether the value is tagged as JSON.
func (d Datatype) HasJSON() bool { return d&DatatypeJSON != 0 }

// HasXattr reports whether the value carries an extended-attributes
// segment ahead of the document body.
func (d Datatype) HasXattr() bool { return d&DatatypeXattr != 0 }

// WithoutSnappy clears the Snappy bit, used after transparent
// decompression so downstream consumers see a datatype matching the
// (now uncompressed) bytes they hold (§4.1).
func (d Datatype) WithoutSnappy() Datatype { return d &^ DatatypeSnappy }
