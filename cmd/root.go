package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/perfDB/cmd/lock"
	"github.com/ValentinKolb/perfDB/cmd/record"
	"github.com/ValentinKolb/perfDB/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "perfdb",
		Short: "performance database for tuned kernel parameters",
		Long: fmt.Sprintf(`perfDB (v%s)

A persistent key-value record store in a single text file.
Every line holds the tuning values of several solvers for one problem config:

  KEY=ID1:VALUES1;ID2:VALUES2`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of perfDB",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("perfDB v%s\n", Version)
		},
	}
	configCmd = &cobra.Command{
		Use:     "config",
		Short:   "Print the effective configuration",
		PreRunE: util.Setup,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(util.GetConfig().String())
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(record.Commands...)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(configCmd)

	// Add Flags
	util.SetupDBFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
