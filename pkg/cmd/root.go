package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/config"
)

var configPath string

var RootCmd = &cobra.Command{
	Use:           RootCmdName,
	Short:         RootCmdShort,
	Long:          RootCmdLong,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	RootCmd.AddCommand(ServeCmd, newValueCmd(), newAssessCmd())
}

// loadConfig reads configuration into the global viper instance, which
// carries any flags bound by the subcommands.
func loadConfig() (*config.Config, error) {
	v := viper.GetViper()
	config.Prepare(v)
	return config.Load(v, configPath)
}
