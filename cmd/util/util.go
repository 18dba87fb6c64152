package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/perfDB/lib/common"
	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/ValentinKolb/perfDB/lib/db/syncdb"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupDBFlags adds the database flags to a command
func SetupDBFlags(cmd *cobra.Command) {
	key := "db"
	cmd.PersistentFlags().String(key, "perf.db", WrapString("Path of the performance database file"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("Log level (debug, info, warn, error)"))

	key = "lock"
	cmd.PersistentFlags().Bool(key, false, WrapString("Serialize access to the database with a lock file (<db>.lock) so that several processes can write to the same file"))

	key = "lock-timeout"
	cmd.PersistentFlags().Int64(key, 30, WrapString("Age in seconds after which a lock file is considered stale and broken (0 for never)"))

	key = "lock-wait"
	cmd.PersistentFlags().Int64(key, 10, WrapString("How long to wait for the lock file in seconds"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("perfdb")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetConfig reads the configuration from viper
func GetConfig() *common.Config {
	return &common.Config{
		DBPath:            viper.GetString("db"),
		Lock:              viper.GetBool("lock"),
		LockTimeoutSecond: viper.GetInt64("lock-timeout"),
		WaitTimeoutSecond: viper.GetInt64("lock-wait"),
		LogLevel:          viper.GetString("log-level"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// Setup binds the flags of the command and initializes the loggers
func Setup(cmd *cobra.Command, _ []string) error {
	if err := BindCommandFlags(cmd); err != nil {
		return err
	}
	return common.InitLoggers(GetConfig().LogLevel)
}

// OpenDB creates the database described by the configuration. Without locking
// the plain text database is returned, with locking it is wrapped by syncdb.
func OpenDB(config *common.Config) (db.IPerfDB, error) {
	if config.DBPath == "" {
		return nil, fmt.Errorf("no database path given")
	}
	textDB := db.NewTextDB(config.DBPath)
	if !config.Lock {
		return textDB, nil
	}
	opts := syncdb.DefaultOptions()
	opts.LockTimeout = time.Duration(config.LockTimeoutSecond) * time.Second
	opts.WaitTimeout = time.Duration(config.WaitTimeoutSecond) * time.Second
	return syncdb.NewSyncDB(textDB, opts), nil
}
