// Package lockmgr implements an advisory locking mechanism using lock files.
// It coordinates access to a shared database file across multiple processes
// on the same host (or on a shared file system that honors O_EXCL).
//
// The lockmgr keeps no internal state besides the lock files themselves.
// Therefore it is safe to be created multiple times, it is even possible to
// create a new lockmgr for every acquire and or release operation.
//
// Core Functionality:
//   - Lock acquisition with ownership verification
//   - Breaking of stale locks through configurable timeouts
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//   - Lock Acquisition: Attempts to create the lock file with O_CREATE|O_EXCL,
//     which guarantees that only one requester can successfully create it.
//     The file contains a randomly generated owner ID that identifies the
//     lock holder.
//
//   - Timeouts: A lock file whose modification time is older than the timeout
//     given to AcquireLock is considered stale (e.g. the holder crashed). It is
//     removed and the acquisition is attempted once more. Breaking happens
//     while holding a second lock file "<key>.break" (again O_EXCL) and the
//     staleness is checked again under it, so two acquirers that both saw
//     the stale lock can not both remove it and end up holding the lock.
//
//   - Safe Release: The ReleaseLock operation first verifies that the
//     requester is the legitimate owner of the lock by comparing owner IDs
//     before removing the lock file.
//
// AcquireLock never blocks, callers that want to wait retry it (see the
// syncdb package).
//
// Usage Example:
//
//	lockProvider := lockmgr.NewLockManager()
//
//	// Acquire a lock that is considered stale after 30 seconds
//	acquired, ownerID, err := lockProvider.AcquireLock("perf.db.lock", 30)
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // Use the resource safely
//	    // ...
//
//	    released, err := lockProvider.ReleaseLock("perf.db.lock", ownerID)
//	    if err != nil {
//	        // Handle error
//	    }
//	}
//
// Security Considerations:
//
//	The locks are advisory. Processes that do not use the lockmgr can still
//	modify the protected files, and anyone with write access to the directory
//	can remove a lock file.
package lockmgr
