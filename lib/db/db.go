package db

import (
	"github.com/ValentinKolb/perfDB/lib/db/codec"
	"github.com/ValentinKolb/perfDB/lib/db/util"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplText Implementation = "text"
	ImplSync Implementation = "sync"
)

// FileStats describes the contents of a database file.
type FileStats struct {
	Path           string         `json:"path"`
	DbType         Implementation `json:"db_type"`
	SizeBytes      int64          `json:"size_bytes"`
	Lines          int            `json:"lines"`
	Records        int            `json:"records"`
	Entries        int            `json:"entries"`
	BlankLines     int            `json:"blank_lines"`
	Comments       int            `json:"comments"`
	MalformedLines int            `json:"malformed_lines"`
	DuplicateKeys  int            `json:"duplicate_keys"`

	// line size distribution (bytes, including the line terminator)
	LineSizes *util.LineHistogram `json:"-"`
	// number of ID:VALUES pairs per record
	EntriesPerRecord util.Stats `json:"entries_per_record"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// IPerfDB defines the interface of a performance database: a file of records,
// each holding the tuning values of several solvers for one problem config.
//
// Not found is never an error: lookups report it through the found return
// value. Errors are reserved for I/O failures and invalid records and are
// always of type *Error.
type IPerfDB interface {

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// FindRecord searches the database for the key of the serialized problem config.
	// Returns a copy of the stored record, the caller owns it.
	FindRecord(problemConfig codec.ISerializable) (record *Record, found bool, err error)

	// FindRecordByKey searches the database for a record with the given key.
	FindRecordByKey(key string) (record *Record, found bool, err error)

	// ForEach calls fn for every well-formed record in file order until fn returns false.
	// Implementations that serialize access must not hold their lock while fn
	// runs, fn may call back into the database.
	ForEach(fn func(record *Record) bool) (err error)

	// Stats scans the whole file and reports its contents.
	Stats() (stats FileStats, err error)

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// StoreRecord stores the record. If a record with the same key is already
	// in the database it is replaced. A record without pairs removes the key.
	StoreRecord(record *Record) (err error)

	// UpdateRecord stores the record. If a record with the same key is already
	// in the database, pairs of the stored record whose ids are not in the
	// provided record are kept. On success the provided record is updated to
	// the merged state, on failure it is left untouched.
	UpdateRecord(record *Record) (err error)

	// Remove removes the VALUES under id from the record of the problem config.
	// The whole line is dropped when no pair is left.
	// Returns whether anything was removed.
	Remove(problemConfig codec.ISerializable, id string) (removed bool, err error)

	// RemoveRecord removes the record of the problem config.
	// Returns whether a record was removed.
	RemoveRecord(problemConfig codec.ISerializable) (removed bool, err error)

	// --------------------------------------------------------------------------
	// Metadata
	// --------------------------------------------------------------------------

	// Path returns the path of the database file.
	Path() string

	// Implementation returns the type of the implementation.
	Implementation() Implementation
}

// --------------------------------------------------------------------------
// Convenience Operations
// --------------------------------------------------------------------------

// Store updates the record of the problem config with values under id.
// Pairs stored under other ids are kept. Returns the updated record.
func Store(d IPerfDB, problemConfig codec.ISerializable, id string, values codec.ISerializable) (*Record, error) {
	record := NewRecord(problemConfig)
	record.SetValues(id, values)
	if err := d.UpdateRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Load searches the record of the problem config and delivers the VALUES
// stored under id to values.Deserialize.
// Returns false if there is no such record or id, if the database cannot be
// read, or if the VALUES cannot be deserialized.
func Load(d IPerfDB, problemConfig codec.ISerializable, id string, values codec.IDeserializable) bool {
	record, found, err := d.FindRecord(problemConfig)
	if err != nil {
		Logger.Errorf("load of %s failed: %v", id, err)
		return false
	}
	if !found {
		return false
	}
	return record.GetValues(id, values)
}
