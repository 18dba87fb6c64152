// Package cmd implements the command-line interface of the perfDB
// performance database. It provides commands to inspect and edit a database
// file and to measure the performance of the implementation.
//
// The package is organized into several subpackages:
//
//   - record: Commands for record operations (get, set, find, rm, dump, stats)
//     and the bench command
//   - lock: Commands for the lock file of a database (acquire, release)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables with the PERFDB_ prefix
// (e.g. PERFDB_DB, PERFDB_LOCK_TIMEOUT), which are also read from .env and
// .env.local files.
//
// See perfdb -help for a list of all commands.
package cmd
