package db

import (
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/ValentinKolb/perfDB/lib/db/codec"
)

// --------------------------------------------------------------------------
// Record
// --------------------------------------------------------------------------

// Record is the in-memory representation of one database line: a KEY and the
// ID:VALUES pairs stored under it.
//
// A Record is never persisted implicitly. Changes become visible in the
// database file only through IPerfDB.StoreRecord or IPerfDB.UpdateRecord.
// Raw (string) access to ids and values is reserved to this package, callers
// go through the codec contract.
type Record struct {
	key     string
	entries map[string]string
}

// NewRecord creates an empty record whose KEY is the serialized problem config.
func NewRecord(problemConfig codec.ISerializable) *Record {
	return newRecord(codec.SerializeToString(problemConfig))
}

func newRecord(key string) *Record {
	return &Record{
		key:     key,
		entries: make(map[string]string),
	}
}

// Key returns the KEY of the record.
func (r *Record) Key() string {
	return r.key
}

// Len returns the number of ID:VALUES pairs.
func (r *Record) Len() int {
	return len(r.entries)
}

// IDs returns all ids of the record in sorted order.
func (r *Record) IDs() []string {
	return slices.Sorted(maps.Keys(r.entries))
}

// Has reports whether the record holds VALUES under id.
func (r *Record) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// SetValues serializes values and stores them under id.
// Returns true if the contents of the record changed, i.e. false if the
// exact same VALUES were already stored under id.
func (r *Record) SetValues(id string, values codec.ISerializable) bool {
	return r.setValues(id, codec.SerializeToString(values))
}

// GetValues delivers the VALUES stored under id to values.Deserialize.
// Returns false if there is no such id (values is not touched) or if the
// VALUES cannot be deserialized. In the latter case the state of values is
// unspecified.
func (r *Record) GetValues(id string, values codec.IDeserializable) bool {
	s, ok := r.getValues(id)
	if !ok {
		return false
	}
	if err := values.Deserialize(s); err != nil {
		metricDeserializeErrors.Inc()
		Logger.Warningf("deserialize failed for %s:%s under key %s: %v", id, s, r.key, err)
		return false
	}
	return true
}

// Merge copies all ID:VALUES pairs from that record which are not present in
// this record. Pairs already in this record are never overwritten.
// Records with different keys are not merged.
//
//	this = {ID1:VALUE1}
//	that = {ID1:VALUE3, ID2:VALUE2}
//	this.Merge(that) = {ID1:VALUE1, ID2:VALUE2}
func (r *Record) Merge(that *Record) {
	if that == nil || r.key != that.key {
		return
	}
	for id, values := range that.entries {
		if _, ok := r.entries[id]; !ok {
			r.entries[id] = values
		}
	}
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	return &Record{
		key:     r.key,
		entries: maps.Clone(r.entries),
	}
}

// Equal reports whether both records have the same key and the same pairs.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	return r.key == other.key && maps.Equal(r.entries, other.entries)
}

// String returns the record line without the line terminator.
func (r *Record) String() string {
	var sb strings.Builder
	r.writeLine(&sb)
	return sb.String()
}

// --------------------------------------------------------------------------
// Package private mutation (only the database may modify raw contents)
// --------------------------------------------------------------------------

func (r *Record) setValues(id, values string) bool {
	if old, ok := r.entries[id]; ok && old == values {
		return false
	}
	r.entries[id] = values
	return true
}

func (r *Record) getValues(id string) (string, bool) {
	values, ok := r.entries[id]
	return values, ok
}

func (r *Record) erase(id string) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// replaceContents makes r hold exactly the pairs of other.
func (r *Record) replaceContents(other *Record) {
	r.entries = maps.Clone(other.entries)
}

// parseContents parses the part of a line following "KEY=".
// Any malformed ID:VALUES segment fails the whole record, the record is left
// empty in that case.
func (r *Record) parseContents(contents string) error {
	clear(r.entries)
	if contents == "" {
		return NewError(RetCMalformedRecord, "no contents under the key "+r.key)
	}

	for _, segment := range strings.Split(contents, string(codec.PairSeparator)) {
		id, values, found := strings.Cut(segment, string(codec.IDSeparator))
		switch {
		case !found:
			clear(r.entries)
			return NewError(RetCMalformedRecord, "id not found in segment '"+segment+"'")
		case id == "":
			clear(r.entries)
			return NewError(RetCMalformedRecord, "empty id in segment '"+segment+"'")
		case values == "":
			clear(r.entries)
			return NewError(RetCMalformedRecord, "empty values for id '"+id+"'")
		}
		// first occurrence of a duplicated id wins
		if _, dup := r.entries[id]; !dup {
			r.entries[id] = values
		}
	}
	return nil
}

// validate checks the reserved characters invariant for the key and all pairs.
func (r *Record) validate() error {
	if r.key == "" {
		return NewError(RetCInvalidOperation, "empty record key")
	}
	if err := codec.ValidateText(r.key); err != nil {
		return WrapError(RetCReservedCharacter, "invalid key", err)
	}
	// such a line would be read back as a comment
	if strings.HasPrefix(r.key, commentPrefix) {
		return NewError(RetCReservedCharacter, "key must not start with '"+commentPrefix+"': "+r.key)
	}
	for id, values := range r.entries {
		if id == "" {
			return NewError(RetCInvalidOperation, "empty id under key "+r.key)
		}
		if values == "" {
			return NewError(RetCInvalidOperation, "empty values for id "+id+" under key "+r.key)
		}
		if err := codec.ValidateText(id); err != nil {
			return WrapError(RetCReservedCharacter, "invalid id", err)
		}
		if err := codec.ValidateText(values); err != nil {
			return WrapError(RetCReservedCharacter, "invalid values for id "+id, err)
		}
	}
	return nil
}

// writeLine renders KEY=ID:VALUES;... with ids in sorted order.
func (r *Record) writeLine(sb *strings.Builder) {
	sb.WriteString(r.key)
	sb.WriteByte(codec.KeySeparator)
	for i, id := range r.IDs() {
		if i > 0 {
			sb.WriteByte(codec.PairSeparator)
		}
		sb.WriteString(id)
		sb.WriteByte(codec.IDSeparator)
		sb.WriteString(r.entries[id])
	}
}

// writeContents validates the record and writes it as one terminated line.
func (r *Record) writeContents(w io.Writer) error {
	if err := r.validate(); err != nil {
		return err
	}
	var sb strings.Builder
	r.writeLine(&sb)
	sb.WriteByte(codec.LineTerminator)
	_, err := io.WriteString(w, sb.String())
	return err
}
