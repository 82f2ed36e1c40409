package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configName string

var rootCmd = &cobra.Command{
	Use:   "jobboard",
	Short: "Job board messaging backend",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configName, "config", "c", "config", "config file name under ./config, without extension")
	rootCmd.AddCommand(serveCmd, conversationsCmd, hashPasswordCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
