package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// CLI configuration struct
// --------------------------------------------------------------------------

// Config holds the configuration shared by all perfdb commands.
type Config struct {
	// path of the database file
	DBPath string

	// locking
	Lock              bool
	LockTimeoutSecond int64
	WaitTimeoutSecond int64

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Database")
	addField("Path", c.DBPath)

	addSection("Locking")
	addField("Lock File", fmt.Sprintf("%t", c.Lock))
	if c.Lock {
		addField("Stale After", fmt.Sprintf("%d sec", c.LockTimeoutSecond))
		addField("Wait Timeout", fmt.Sprintf("%d sec", c.WaitTimeoutSecond))
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
