// Package db provides the performance database: a persistent key-value record
// store used to cache tuned kernel parameters.
//
// A database is a single text file with one record per line:
//
//	KEY=ID1:VALUES1;ID2:VALUES2;...;IDn:VALUESn
//
// KEY identifies a record, it is a serialized problem configuration. ID is a
// sub-key under the KEY, usually the name of a solver able to handle the
// problem config, so several solvers can store values under the same KEY.
// VALUES is the solver specific encoding of its tuning parameters. If VALUES
// represents a set of numbers, "," is the recommended separator.
//
// None of "=", ":", ";" (or a newline) is allowed within KEY, ID and VALUES.
// There is no escaping; records that violate this are rejected on write.
// There are no identical KEYs in one file and no identical IDs in one record.
// Blank lines and lines starting with "#" are ignored, lines that cannot be
// parsed are logged and treated as absent.
//
// Key Components:
//
//   - Record: The in-memory form of one line. Values are set and read through
//     the codec contract (codec.ISerializable / codec.IDeserializable). Raw
//     string mutation and parsing are private to this package, so records can
//     only reach the file through the IPerfDB API.
//
//   - IPerfDB Interface: Lookup (FindRecord), full replacement (StoreRecord),
//     merge-on-update (UpdateRecord) and removal of ids or whole records.
//     Store and Load are convenience functions on top of it.
//
//   - TextDB: The file backed implementation (NewTextDB). It keeps no index;
//     every call re-scans the file. A found record remembers its byte range so
//     that a replacement of equal length is written in place, other changes
//     rebuild the file through a temp file and an atomic rename, and new
//     records are appended.
//
//   - Error System: All failures are reported as *Error carrying a RetCode.
//     A key or id that does not exist is not an error.
//
// Note on Concurrency:
//
//	TextDB is neither thread-safe nor safe for several processes writing the
//	same file. Concurrent writers can interleave and lose updates or corrupt
//	lines. The syncdb package (github.com/ValentinKolb/perfDB/lib/db/syncdb)
//	wraps any IPerfDB with an in-process mutex and an advisory lock file.
//
// Related Packages:
//
// The codec package defines the serialization contract and ready-made value
// types. The testing package (github.com/ValentinKolb/perfDB/lib/db/testing)
// provides a conformance suite and benchmarks for IPerfDB implementations.
// The util package provides the size histogram used by Stats.
package db
