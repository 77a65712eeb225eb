package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "dmlabels",
		Short: "Render serial numbers as Data Matrix labels",
		Long: `dmlabels turns newline-separated serial numbers into Data Matrix symbols,
lays them out on printable pages and returns a preview image and a PDF.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				return os.Setenv("CONFIG_PATH", cfgFile)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default $CONFIG_PATH or config.yaml)")

	root.AddCommand(newServeCmd(), newRenderCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
