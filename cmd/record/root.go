package record

import (
	"github.com/ValentinKolb/perfDB/cmd/util"
	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/spf13/cobra"
)

var (
	perfDB db.IPerfDB

	// Commands are the record commands, they are added directly to the root command
	Commands = []*cobra.Command{getCmd, setCmd, findCmd, rmCmd, dumpCmd, statsCmd, benchCmd}
)

func init() {
	for _, cmd := range Commands {
		cmd.PreRunE = openDB
	}

	statsCmd.Flags().Bool("metrics", false, util.WrapString("Also print the operation counters of this process in Prometheus format"))
	statsCmd.Flags().Bool("json", false, util.WrapString("Print the statistics as JSON"))
}

// openDB initializes the database from the configuration
func openDB(cmd *cobra.Command, args []string) error {
	if err := util.Setup(cmd, args); err != nil {
		return err
	}

	var err error
	perfDB, err = util.OpenDB(util.GetConfig())
	return err
}
