package record

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/ValentinKolb/perfDB/lib/db/codec"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key] [id]",
		Short: "Reads the values stored under an id of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, id := args[0], args[1]
			var values codec.String
			found := db.Load(perfDB, codec.String(key), id, &values)
			fmt.Printf("key=%s, id=%s, found=%v, values=%s\n", key, id, found, values)
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [id] [values]",
		Short: "Stores values under an id of a record, other ids are kept",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := db.Store(perfDB, codec.String(args[0]), args[1], codec.String(args[2]))
			if err != nil {
				return err
			}
			fmt.Println(record)
			return nil
		},
	}
	findCmd = &cobra.Command{
		Use:   "find [key]",
		Short: "Prints the record of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, found, err := perfDB.FindRecordByKey(args[0])
			if err != nil {
				return err
			}
			if !found {
				fmt.Printf("key=%s, found=false\n", args[0])
				return nil
			}
			fmt.Println(record)
			return nil
		},
	}
	rmCmd = &cobra.Command{
		Use:   "rm [key] [id]",
		Short: "Removes an id from a record, or the whole record if no id is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				removed bool
				err     error
			)
			if len(args) == 2 {
				removed, err = perfDB.Remove(codec.String(args[0]), args[1])
			} else {
				removed, err = perfDB.RemoveRecord(codec.String(args[0]))
			}
			if err != nil {
				return err
			}
			fmt.Printf("removed=%v\n", removed)
			return nil
		},
	}
	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Prints all well-formed records in file order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return perfDB.ForEach(func(record *db.Record) bool {
				fmt.Println(record)
				return true
			})
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints statistics about the database file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := perfDB.Stats()
			if err != nil {
				return err
			}

			if viper.GetBool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(stats); err != nil {
					return err
				}
			} else {
				fmt.Print(formatStats(stats))
			}

			if viper.GetBool("metrics") {
				fmt.Println()
				db.WriteMetrics(os.Stdout)
			}
			return nil
		},
	}
)

// formatStats renders the statistics as a table
func formatStats(stats db.FileStats) string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name string, value any) {
		sb.WriteString(fmt.Sprintf("  %-22s: %v\n", name, value))
	}

	addSection("File")
	addField("Path", stats.Path)
	addField("Implementation", stats.DbType)
	addField("Size (bytes)", stats.SizeBytes)
	addField("Lines", stats.Lines)

	addSection("Contents")
	addField("Records", stats.Records)
	addField("Entries", stats.Entries)
	addField("Entries per Record", fmt.Sprintf("mean %.2f, min %.0f, max %.0f",
		stats.EntriesPerRecord.Mean, stats.EntriesPerRecord.Min, stats.EntriesPerRecord.Max))
	addField("Comments", stats.Comments)
	addField("Blank Lines", stats.BlankLines)
	addField("Malformed Lines", stats.MalformedLines)
	addField("Duplicate Keys", stats.DuplicateKeys)

	if stats.LineSizes != nil && stats.LineSizes.Count() > 0 {
		addSection("Line Sizes")
		addField("Shortest", stats.LineSizes.Shortest())
		addField("Average", stats.LineSizes.Mean())
		addField("Median (est.)", stats.LineSizes.Median())
		addField("P99 (est.)", stats.LineSizes.Percentile(99))
		addField("Longest", stats.LineSizes.Longest())
	}

	return sb.String()
}
