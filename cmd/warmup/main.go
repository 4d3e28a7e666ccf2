package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string

	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Warmup thermostat control CLI",
	Long: `A command line interface for Warmup underfloor heating thermostats.

Credentials and settings are read from config.yaml, WARMUP_* environment
variables and the flags below, in increasing order of precedence.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or ./configs/config.yaml)")
	flags.String("username", "", "Warmup account email")
	flags.String("password", "", "Warmup account password")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")

	_ = v.BindPFlag("username", flags.Lookup("username"))
	_ = v.BindPFlag("password", flags.Lookup("password"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
