// Package common provides the pieces shared by the perfdb command line tool
// and the library packages.
//
// Key Components:
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logger package (used by all perfDB packages) and writes every line as
//     "LEVEL | package | message". InitLoggers installs it and sets the level.
//
//   - Config: Configuration of the CLI (database path, locking, logging) with
//     a human readable String representation.
package common
