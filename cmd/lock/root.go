package lock

import (
	"fmt"

	"github.com/ValentinKolb/perfDB/cmd/util"
	"github.com/ValentinKolb/perfDB/lib/db/syncdb"
	"github.com/ValentinKolb/perfDB/lib/lockmgr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	lockMgr lockmgr.ILockManager

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:   "lock",
		Short: "Acquire or release the lock file of the database",
		Long: util.WrapString(`Scripts that edit the database file by other means can take the same lock
file (<db>.lock) that perfdb uses with --lock.`),
		PersistentPreRunE: setupLockMgr,
	}

	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire",
		Short: "Acquire the lock",
		Args:  cobra.NoArgs,
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [ownerID]",
		Short: "Release a previously acquired lock",
		Long:  "Release the lock using the owner ID returned by the acquire command.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelease,
	}
)

func init() {
	// Add subcommands to lock command
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)
}

// setupLockMgr initializes the lock manager
func setupLockMgr(cmd *cobra.Command, args []string) error {
	if err := util.Setup(cmd, args); err != nil {
		return err
	}
	lockMgr = lockmgr.NewLockManager()
	return nil
}

func lockPath() string {
	return syncdb.LockPath(util.GetConfig().DBPath)
}

// runAcquire handles the acquire lock command
func runAcquire(_ *cobra.Command, _ []string) error {
	// Attempt to acquire the lock
	acquired, ownerID, err := lockMgr.AcquireLock(lockPath(), uint64(viper.GetInt64("lock-timeout")))
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %v", err)
	}

	if !acquired {
		fmt.Printf("acquired=false\n")
		return nil
	}

	fmt.Printf("acquired=true, ownerId=%s\n", ownerID)
	return nil
}

// runRelease handles the release lock command
func runRelease(_ *cobra.Command, args []string) error {
	// Attempt to release the lock
	released, err := lockMgr.ReleaseLock(lockPath(), []byte(args[0]))
	if err != nil {
		return fmt.Errorf("failed to release lock: %v", err)
	}

	fmt.Printf("released=%v\n", released)
	return nil
}
